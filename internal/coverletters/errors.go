package coverletters

import (
	"errors"
	"strings"

	"coverletter-backend/internal/render"
)

var (
	ErrNotFound          = errors.New("cover letter not found")
	ErrNotGenerated      = errors.New("cover letter has not been generated")
	ErrUnsupportedFormat = render.ErrUnsupportedFormat
	ErrRenderFailed      = render.ErrRenderFailed
	ErrInvalidInput      = errors.New("invalid input")
	ErrGenerationFailed  = errors.New("cover letter generation failed")
)

// FieldIssue describes one rejected input field.
type FieldIssue struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// ValidationError lists every rejected field. It matches ErrInvalidInput.
type ValidationError struct {
	Issues []FieldIssue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		parts = append(parts, is.Field+": "+is.Issue)
	}
	return "invalid input: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

func invalidField(field, issue string) error {
	return &ValidationError{Issues: []FieldIssue{{Field: field, Issue: issue}}}
}
