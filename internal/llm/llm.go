package llm

import (
	"context"
	"errors"

	"coverletter-backend/internal/resumedata"
)

// Client abstracts cover letter generation backends.
type Client interface {
	GenerateCoverLetter(ctx context.Context, input GenerateInput) (string, error)
}

// GenerateInput is everything a backend needs to write one answer.
type GenerateInput struct {
	Resume   resumedata.Record
	Question string
	Tone     string
	Length   int
}

var (
	// ErrNotImplemented is returned by the placeholder client.
	ErrNotImplemented = errors.New("LLM not implemented")
	// ErrEmptyOutput means the backend answered without usable text.
	ErrEmptyOutput = errors.New("generation backend returned empty text")
)

// PlaceholderClient is used when no provider is configured.
type PlaceholderClient struct{}

// GenerateCoverLetter returns ErrNotImplemented.
func (PlaceholderClient) GenerateCoverLetter(ctx context.Context, input GenerateInput) (string, error) {
	_ = ctx
	_ = input
	return "", ErrNotImplemented
}

var _ Client = PlaceholderClient{}
