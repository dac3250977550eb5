// Package resumedata models the free-form resume sections a user submits and
// the canonical record the generation backend consumes.
package resumedata

import (
	"bytes"
	"encoding/json"
	"maps"
)

// GeneratedCoverLetterKey is the sections key that holds generated output.
const GeneratedCoverLetterKey = "generatedCoverLetter"

// Kind tags the shape of a section value.
type Kind int

const (
	KindOther Kind = iota
	KindText
	KindRecord
	KindRecords
	KindStrings
	KindEmptyList
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindRecord:
		return "record"
	case KindRecords:
		return "records"
	case KindStrings:
		return "strings"
	case KindEmptyList:
		return "empty_list"
	default:
		return "other"
	}
}

// Value is a single section value. The zero Value is KindOther holding null.
type Value struct {
	kind    Kind
	text    string
	record  map[string]any
	records []map[string]any
	strs    []string
	other   any
}

// Text wraps a string.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Mapping wraps a mapping. A nil mapping is stored as empty.
func Mapping(m map[string]any) Value {
	if m == nil {
		m = map[string]any{}
	}
	return Value{kind: KindRecord, record: m}
}

// Records wraps a sequence of mappings. An empty sequence becomes KindEmptyList.
func Records(rs []map[string]any) Value {
	if len(rs) == 0 {
		return EmptyList()
	}
	return Value{kind: KindRecords, records: rs}
}

// Strings wraps a sequence of strings. An empty sequence becomes KindEmptyList.
func Strings(ss []string) Value {
	if len(ss) == 0 {
		return EmptyList()
	}
	return Value{kind: KindStrings, strs: ss}
}

// EmptyList is the value of an empty sequence.
func EmptyList() Value { return Value{kind: KindEmptyList} }

// Other wraps any JSON-compatible value that fits none of the known shapes.
func Other(v any) Value { return Value{kind: KindOther, other: v} }

// FromAny classifies a decoded JSON value.
func FromAny(v any) Value {
	switch t := v.(type) {
	case string:
		return Text(t)
	case map[string]any:
		return Mapping(t)
	case []map[string]any:
		return Records(t)
	case []string:
		return Strings(t)
	case []any:
		return classifyList(t)
	default:
		return Other(v)
	}
}

// Mixed sequences stay KindOther so no alias lookup can match them.
func classifyList(items []any) Value {
	if len(items) == 0 {
		return EmptyList()
	}
	switch items[0].(type) {
	case string:
		out := make([]string, 0, len(items))
		for _, item := range items {
			s, ok := item.(string)
			if !ok {
				return Other(items)
			}
			out = append(out, s)
		}
		return Strings(out)
	case map[string]any:
		out := make([]map[string]any, 0, len(items))
		for _, item := range items {
			m, ok := item.(map[string]any)
			if !ok {
				return Other(items)
			}
			out = append(out, m)
		}
		return Records(out)
	default:
		return Other(items)
	}
}

// Kind reports the value's shape.
func (v Value) Kind() Kind { return v.kind }

// AsText returns the string for KindText.
func (v Value) AsText() (string, bool) {
	return v.text, v.kind == KindText
}

// AsRecord returns the mapping for KindRecord.
func (v Value) AsRecord() (map[string]any, bool) {
	return v.record, v.kind == KindRecord
}

// AsRecords returns the mappings for KindRecords and an empty slice for KindEmptyList.
func (v Value) AsRecords() ([]map[string]any, bool) {
	switch v.kind {
	case KindRecords:
		return v.records, true
	case KindEmptyList:
		return []map[string]any{}, true
	}
	return nil, false
}

// AsStrings returns the strings for KindStrings and an empty slice for KindEmptyList.
func (v Value) AsStrings() ([]string, bool) {
	switch v.kind {
	case KindStrings:
		return v.strs, true
	case KindEmptyList:
		return []string{}, true
	}
	return nil, false
}

// Any converts the value back to plain JSON-compatible data.
func (v Value) Any() any {
	switch v.kind {
	case KindText:
		return v.text
	case KindRecord:
		return v.record
	case KindRecords:
		out := make([]any, len(v.records))
		for i, r := range v.records {
			out[i] = r
		}
		return out
	case KindStrings:
		out := make([]any, len(v.strs))
		for i, s := range v.strs {
			out[i] = s
		}
		return out
	case KindEmptyList:
		return []any{}
	default:
		return v.other
	}
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Any())
}

// UnmarshalJSON implements json.Unmarshaler. Numbers keep their literal text.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*v = FromAny(raw)
	return nil
}

// Sections maps section keys to values.
type Sections map[string]Value

// ParseSections decodes a JSON object. Empty input and null yield nil sections.
func ParseSections(data []byte) (Sections, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var s Sections
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return nil, err
	}
	return s, nil
}

// FromMap classifies every entry of a decoded JSON object.
func FromMap(m map[string]any) Sections {
	if m == nil {
		return nil
	}
	out := make(Sections, len(m))
	for k, v := range m {
		out[k] = FromAny(v)
	}
	return out
}

// Clone returns a shallow copy.
func (s Sections) Clone() Sections {
	if s == nil {
		return nil
	}
	return maps.Clone(s)
}

// GeneratedText returns the stored cover letter text, if any.
func (s Sections) GeneratedText() (string, bool) {
	v, ok := s[GeneratedCoverLetterKey]
	if !ok {
		return "", false
	}
	return v.AsText()
}

// WithGenerated returns a copy with the generated text set.
func (s Sections) WithGenerated(text string) Sections {
	out := s.Clone()
	if out == nil {
		out = Sections{}
	}
	out[GeneratedCoverLetterKey] = Text(text)
	return out
}

// WithoutGenerated returns a copy with the generated text removed.
func (s Sections) WithoutGenerated() Sections {
	out := s.Clone()
	delete(out, GeneratedCoverLetterKey)
	return out
}

// Encode serializes sections for storage; nil encodes as an empty object.
func (s Sections) Encode() ([]byte, error) {
	if s == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]Value(s))
}
