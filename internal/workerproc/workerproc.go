// Package workerproc turns queued generation messages into orchestrator calls.
package workerproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"coverletter-backend/internal/coverletters"
	"coverletter-backend/internal/queue"
)

// Generator runs one generation. *coverletters.Orchestrator implements it.
type Generator interface {
	RequestGeneration(ctx context.Context, id, ownerID string) (coverletters.CoverLetter, error)
}

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{}
	}
	sum := sha256.Sum256([]byte(body))
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates a JSON decode failure.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

func (e ErrDecode) Unwrap() error { return e.Err }

// ErrMissingField indicates a message without a cover letter or owner id.
type ErrMissingField struct {
	Meta      MessageMeta
	Field     string
	RequestID string
}

func (e ErrMissingField) Error() string { return "missing " + e.Field }

// ErrProcess indicates generation failed after successful parsing.
type ErrProcess struct {
	CoverLetterID string
	RequestID     string
	Err           error
}

func (e ErrProcess) Error() string {
	if e.Err == nil {
		return "process cover letter"
	}
	return "process cover letter: " + e.Err.Error()
}

func (e ErrProcess) Unwrap() error { return e.Err }

// Retryable reports whether another delivery could succeed. A missing
// document or a recorded FAILED status is final.
func (e ErrProcess) Retryable() bool {
	return !errors.Is(e.Err, coverletters.ErrNotFound) && !errors.Is(e.Err, coverletters.ErrGenerationFailed)
}

// ParseMessage validates and decodes the queue payload.
func ParseMessage(body string) (queue.Message, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return queue.Message{}, meta, ErrEmptyBody{Meta: meta}
	}

	msg, err := queue.DecodeMessage([]byte(body))
	if err != nil {
		return queue.Message{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	if strings.TrimSpace(msg.CoverLetterID) == "" {
		return msg, meta, ErrMissingField{Meta: meta, Field: "coverLetterId", RequestID: msg.RequestID}
	}
	if strings.TrimSpace(msg.OwnerID) == "" {
		return msg, meta, ErrMissingField{Meta: meta, Field: "ownerId", RequestID: msg.RequestID}
	}
	return msg, meta, nil
}

// HandleMessage runs generation for an already parsed message.
func HandleMessage(ctx context.Context, gen Generator, msg queue.Message) error {
	if gen == nil {
		return errors.New("generator not configured")
	}
	ctx = coverletters.WithRequestID(ctx, msg.RequestID)
	if _, err := gen.RequestGeneration(ctx, msg.CoverLetterID, msg.OwnerID); err != nil {
		return ErrProcess{CoverLetterID: msg.CoverLetterID, RequestID: msg.RequestID, Err: err}
	}
	return nil
}
