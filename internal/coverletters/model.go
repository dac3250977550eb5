package coverletters

import (
	"time"

	"coverletter-backend/internal/resumedata"
)

// Status is the generation state of a cover letter.
type Status string

const (
	StatusDraft      Status = "DRAFT"
	StatusProcessing Status = "PROCESSING"
	StatusSuccess    Status = "SUCCESS"
	StatusFailed     Status = "FAILED"
)

const (
	DefaultTone              = "진솔한"
	DefaultLengthPerQuestion = 1000
	// DefaultQuestionLabel is the prompt label sent with every generation.
	DefaultQuestionLabel = "지원 동기"
	DefaultTitle         = "Cover Letter"
)

// Valid reports whether s is one of the known states.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusProcessing, StatusSuccess, StatusFailed:
		return true
	}
	return false
}

// CanTransitionTo reports whether the orchestrator may move s to next. Any
// state may start processing; only processing may finish.
func (s Status) CanTransitionTo(next Status) bool {
	if !s.Valid() {
		return false
	}
	switch next {
	case StatusProcessing:
		return true
	case StatusSuccess, StatusFailed:
		return s == StatusProcessing
	}
	return false
}

// CoverLetter is one user-owned cover letter document.
type CoverLetter struct {
	ID                string              `json:"id"`
	OwnerID           string              `json:"-"`
	Title             string              `json:"title"`
	TargetCompany     string              `json:"targetCompany"`
	TargetJob         string              `json:"targetJob"`
	Questions         []string            `json:"questions"`
	Tone              string              `json:"tone"`
	LengthPerQuestion *int                `json:"lengthPerQuestion"`
	Sections          resumedata.Sections `json:"sections"`
	Status            Status              `json:"status"`
	TemplateID        string              `json:"templateId,omitempty"`
	Archived          bool                `json:"archived"`
	PreviewURL        string              `json:"previewUrl,omitempty"`
	CreatedAt         time.Time           `json:"createdAt"`
	UpdatedAt         time.Time           `json:"updatedAt"`
}

// GeneratedText returns the generated cover letter, present only while the
// status is SUCCESS.
func (c CoverLetter) GeneratedText() (string, bool) {
	return c.Sections.GeneratedText()
}

// EffectiveTone returns the tone used for generation.
func (c CoverLetter) EffectiveTone() string {
	if c.Tone == "" {
		return DefaultTone
	}
	return c.Tone
}

// EffectiveLength returns the per-question length used for generation.
func (c CoverLetter) EffectiveLength() int {
	if c.LengthPerQuestion == nil || *c.LengthPerQuestion <= 0 {
		return DefaultLengthPerQuestion
	}
	return *c.LengthPerQuestion
}

// DisplayTitle is the title used in exported documents.
func (c CoverLetter) DisplayTitle() string {
	if c.Title == "" {
		return DefaultTitle
	}
	return c.Title
}
