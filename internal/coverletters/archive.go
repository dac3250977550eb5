package coverletters

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// SortSpec is a validated archive ordering.
type SortSpec struct {
	Field string
	Desc  bool
}

var sortColumns = map[string]string{
	"updatedAt": "updated_at",
	"createdAt": "created_at",
	"title":     "title",
	"status":    "status",
}

// DefaultSort orders the archive by most recently updated.
var DefaultSort = SortSpec{Field: "updatedAt", Desc: true}

// ParseSort reads "field" or "field,direction". An empty value yields
// DefaultSort; unknown fields or directions are rejected.
func ParseSort(raw string) (SortSpec, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultSort, nil
	}
	field, dir, _ := strings.Cut(raw, ",")
	field = strings.TrimSpace(field)
	if _, ok := sortColumns[field]; !ok {
		return SortSpec{}, invalidField("sort", fmt.Sprintf("unsupported sort field %q", field))
	}
	spec := SortSpec{Field: field}
	switch strings.ToLower(strings.TrimSpace(dir)) {
	case "", "asc":
	case "desc":
		spec.Desc = true
	default:
		return SortSpec{}, invalidField("sort", fmt.Sprintf("unsupported sort direction %q", dir))
	}
	return spec, nil
}

// Column returns the SQL column for the sort field.
func (s SortSpec) Column() string {
	if col, ok := sortColumns[s.Field]; ok {
		return col
	}
	return sortColumns[DefaultSort.Field]
}

func (s SortSpec) String() string {
	if s.Desc {
		return s.Field + ",desc"
	}
	return s.Field + ",asc"
}

// ArchiveQuery selects a page of archived cover letters for one owner.
type ArchiveQuery struct {
	OwnerID string
	Search  string
	Tone    string
	Sort    SortSpec
	Page    int
	Size    int
}

func (q ArchiveQuery) validate() error {
	var issues []FieldIssue
	if q.Page < 0 {
		issues = append(issues, FieldIssue{Field: "page", Issue: "must be >= 0"})
	}
	if q.Size < 1 || q.Size > MaxPageSize {
		issues = append(issues, FieldIssue{Field: "size", Issue: fmt.Sprintf("must be between 1 and %d", MaxPageSize)})
	}
	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

// Offset is the number of rows skipped before this page.
func (q ArchiveQuery) Offset() int {
	return q.Page * q.Size
}

// ArchiveItem is the listing projection of a cover letter.
type ArchiveItem struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	PreviewURL string    `json:"previewUrl"`
	Status     Status    `json:"status"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Page is one page of archive results.
type Page struct {
	Content       []ArchiveItem `json:"content"`
	Page          int           `json:"page"`
	Size          int           `json:"size"`
	TotalElements int           `json:"totalElements"`
	TotalPages    int           `json:"totalPages"`
}

func newPage(items []CoverLetter, q ArchiveQuery, total int) Page {
	content := make([]ArchiveItem, 0, len(items))
	for _, cl := range items {
		content = append(content, ArchiveItem{
			ID:         cl.ID,
			Title:      cl.Title,
			PreviewURL: cl.PreviewURL,
			Status:     cl.Status,
			UpdatedAt:  cl.UpdatedAt,
		})
	}
	totalPages := 0
	if q.Size > 0 {
		totalPages = (total + q.Size - 1) / q.Size
	}
	return Page{
		Content:       content,
		Page:          q.Page,
		Size:          q.Size,
		TotalElements: total,
		TotalPages:    totalPages,
	}
}
