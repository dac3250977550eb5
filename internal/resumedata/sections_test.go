package resumedata

import (
	"encoding/json"
	"testing"
)

func TestFromAnyClassifiesShapes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Kind
	}{
		{name: "text", raw: `"hello"`, want: KindText},
		{name: "record", raw: `{"a":1}`, want: KindRecord},
		{name: "records", raw: `[{"a":1},{"b":2}]`, want: KindRecords},
		{name: "strings", raw: `["a","b"]`, want: KindStrings},
		{name: "empty list", raw: `[]`, want: KindEmptyList},
		{name: "number", raw: `42`, want: KindOther},
		{name: "null", raw: `null`, want: KindOther},
		{name: "mixed", raw: `["a",{"b":1}]`, want: KindOther},
		{name: "nested lists", raw: `[["a"]]`, want: KindOther},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			var v Value
			if err := json.Unmarshal([]byte(tt.raw), &v); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if v.Kind() != tt.want {
				t.Fatalf("kind = %s, want %s", v.Kind(), tt.want)
			}
		})
	}
}

func TestSectionsPreserveUnknownShapes(t *testing.T) {
	raw := `{"age":30,"flags":[1,"x"],"note":null}`
	s, err := ParseSections([]byte(raw))
	if err != nil {
		t.Fatalf("ParseSections: %v", err)
	}
	data, err := s.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	var got, want map[string]any
	_ = json.Unmarshal(data, &got)
	_ = json.Unmarshal([]byte(raw), &want)
	if got["age"] != want["age"] || got["note"] != nil {
		t.Fatalf("unexpected encoding %s", data)
	}
	flags, ok := got["flags"].([]any)
	if !ok || len(flags) != 2 {
		t.Fatalf("expected mixed list preserved, got %s", data)
	}
}

func TestGeneratedTextHelpers(t *testing.T) {
	base := Sections{"profile": Mapping(map[string]any{"name": "Kim"})}

	withText := base.WithGenerated("letter")
	if got, ok := withText.GeneratedText(); !ok || got != "letter" {
		t.Fatalf("expected generated text, got %q ok=%v", got, ok)
	}
	if _, ok := base.GeneratedText(); ok {
		t.Fatalf("WithGenerated must not mutate the receiver")
	}

	cleared := withText.WithoutGenerated()
	if _, ok := cleared.GeneratedText(); ok {
		t.Fatalf("expected generated text removed")
	}
	if _, ok := withText.GeneratedText(); !ok {
		t.Fatalf("WithoutGenerated must not mutate the receiver")
	}
}

func TestParseSectionsNull(t *testing.T) {
	for _, raw := range []string{"", "null", "  "} {
		s, err := ParseSections([]byte(raw))
		if err != nil {
			t.Fatalf("ParseSections(%q): %v", raw, err)
		}
		if s != nil {
			t.Fatalf("expected nil sections for %q", raw)
		}
	}
	var nilSections Sections
	data, err := nilSections.Encode()
	if err != nil || string(data) != "{}" {
		t.Fatalf("expected {} for nil sections, got %s err=%v", data, err)
	}
}
