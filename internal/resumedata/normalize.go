package resumedata

import "maps"

// Canonical field names sent to the generation backend.
const (
	FieldProfile     = "profile"
	FieldExperiences = "experiences"
	FieldProjects    = "projects"
	FieldActivities  = "activities"
	FieldAwards      = "awards"
	FieldSkills      = "skills"
)

// Alias keys in lookup order. The first key holding a value of the expected
// shape wins.
var (
	profileKeys    = []string{"profile", "personalInfo"}
	experienceKeys = []string{"experiences", "experience", "educationExperience"}
	projectKeys    = []string{"projects", "project"}
	activityKeys   = []string{"activities", "club", "clubs"}
	awardKeys      = []string{"awards", "award"}
	skillKeys      = []string{"skills", "technicalSkills"}
	skillNameField = "name"
)

// Record is the canonical resume shape. Normalize never leaves a field nil.
type Record struct {
	Profile     map[string]any   `json:"profile"`
	Experiences []map[string]any `json:"experiences"`
	Projects    []map[string]any `json:"projects"`
	Activities  []map[string]any `json:"activities"`
	Awards      []map[string]any `json:"awards"`
	Skills      []string         `json:"skills"`
}

// EmptyRecord returns a record with every field present and empty.
func EmptyRecord() Record {
	return Record{
		Profile:     map[string]any{},
		Experiences: []map[string]any{},
		Projects:    []map[string]any{},
		Activities:  []map[string]any{},
		Awards:      []map[string]any{},
		Skills:      []string{},
	}
}

// Normalize extracts the canonical record from free-form sections. Missing
// keys and unexpected shapes yield empty fields; it never fails.
func Normalize(s Sections) Record {
	out := EmptyRecord()
	if len(s) == 0 {
		return out
	}
	if v, ok := lookup(s, profileKeys, KindRecord); ok {
		rec, _ := v.AsRecord()
		out.Profile = maps.Clone(rec)
	}
	out.Experiences = recordList(s, experienceKeys)
	out.Projects = recordList(s, projectKeys)
	out.Activities = recordList(s, activityKeys)
	out.Awards = recordList(s, awardKeys)
	out.Skills = skillList(s)
	return out
}

// Sections renders the record back under its canonical keys.
func (r Record) Sections() Sections {
	return Sections{
		FieldProfile:     Mapping(maps.Clone(r.Profile)),
		FieldExperiences: Records(cloneRecords(r.Experiences)),
		FieldProjects:    Records(cloneRecords(r.Projects)),
		FieldActivities:  Records(cloneRecords(r.Activities)),
		FieldAwards:      Records(cloneRecords(r.Awards)),
		FieldSkills:      Strings(append([]string(nil), r.Skills...)),
	}
}

// Map returns the record as plain JSON-compatible data.
func (r Record) Map() map[string]any {
	out := make(map[string]any, 6)
	for k, v := range r.Sections() {
		out[k] = v.Any()
	}
	return out
}

func lookup(s Sections, keys []string, kinds ...Kind) (Value, bool) {
	for _, key := range keys {
		v, ok := s[key]
		if !ok {
			continue
		}
		for _, k := range kinds {
			if v.Kind() == k {
				return v, true
			}
		}
	}
	return Value{}, false
}

func recordList(s Sections, keys []string) []map[string]any {
	v, ok := lookup(s, keys, KindRecords, KindEmptyList)
	if !ok {
		return []map[string]any{}
	}
	recs, _ := v.AsRecords()
	return cloneRecords(recs)
}

func skillList(s Sections) []string {
	v, ok := lookup(s, skillKeys, KindStrings, KindRecords, KindEmptyList)
	if !ok {
		return []string{}
	}
	if v.Kind() == KindRecords {
		recs, _ := v.AsRecords()
		out := make([]string, 0, len(recs))
		for _, rec := range recs {
			name, _ := rec[skillNameField].(string)
			out = append(out, name)
		}
		return out
	}
	strs, _ := v.AsStrings()
	return append([]string{}, strs...)
}

func cloneRecords(in []map[string]any) []map[string]any {
	out := make([]map[string]any, 0, len(in))
	for _, m := range in {
		out = append(out, maps.Clone(m))
	}
	return out
}
