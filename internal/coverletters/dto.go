package coverletters

import (
	"time"

	"coverletter-backend/internal/resumedata"
)

type draftRequest struct {
	Title         *string             `json:"title"`
	TargetCompany *string             `json:"targetCompany"`
	TargetJob     *string             `json:"targetJob"`
	Sections      resumedata.Sections `json:"sections"`
}

func (r draftRequest) input() DraftInput {
	return DraftInput{
		Title:         r.Title,
		TargetCompany: r.TargetCompany,
		TargetJob:     r.TargetJob,
		Sections:      r.Sections,
	}
}

type settingsRequest struct {
	Questions         []string `json:"questions"`
	Tone              string   `json:"tone"`
	LengthPerQuestion *int     `json:"lengthPerQuestion"`
}

type templateRequest struct {
	TemplateID string `json:"templateId"`
}

type titleRequest struct {
	Title string `json:"title"`
}

type contentRequest struct {
	Sections resumedata.Sections `json:"sections"`
}

type generatedContentRequest struct {
	Content string `json:"content"`
}

type archiveRequest struct {
	Archived *bool `json:"archived"`
}

// GenerationResponse reports the outcome of a generate request.
type GenerationResponse struct {
	CoverLetterID string    `json:"coverLetterId"`
	Status        Status    `json:"status"`
	Content       string    `json:"content,omitempty"`
	PreviewURL    string    `json:"previewUrl,omitempty"`
	Queued        bool      `json:"queued,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func toGenerationResponse(cl CoverLetter) GenerationResponse {
	text, _ := cl.GeneratedText()
	return GenerationResponse{
		CoverLetterID: cl.ID,
		Status:        cl.Status,
		Content:       text,
		PreviewURL:    cl.PreviewURL,
		UpdatedAt:     cl.UpdatedAt,
	}
}
