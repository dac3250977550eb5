package coverletters

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"coverletter-backend/internal/llm"
	"coverletter-backend/internal/resumedata"
	"coverletter-backend/internal/shared/metrics"
	"coverletter-backend/internal/shared/resilience"
	"coverletter-backend/internal/shared/telemetry"
)

// DefaultGenerationTimeout bounds one backend call.
const DefaultGenerationTimeout = 120 * time.Second

const breakerOperation = "coverletter.generate"

// PreviewPublisher renders and stores a preview image, returning its URL.
type PreviewPublisher interface {
	Publish(ctx context.Context, cl CoverLetter, text string) (string, error)
}

// Orchestrator runs generation as a two-checkpoint saga: PROCESSING is
// committed before the backend call and exactly one terminal state after it.
type Orchestrator struct {
	Repo     Repo
	LLM      llm.Client
	Breaker  *resilience.Executor
	Previews PreviewPublisher
	Timeout  time.Duration
	Now      func() time.Time
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now().UTC()
	}
	return time.Now().UTC()
}

// RequestGeneration generates the cover letter text for id. On backend
// failure the document is left FAILED and the returned error wraps
// ErrGenerationFailed together with the cause.
func (o *Orchestrator) RequestGeneration(ctx context.Context, id, ownerID string) (CoverLetter, error) {
	cl, err := o.Repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return CoverLetter{}, err
	}
	resume := resumedata.Normalize(cl.Sections)
	fields := map[string]any{
		"cover_letter_id": cl.ID,
		"user_id":         ownerID,
		"request_id":      requestIDFromContext(ctx),
		"from_status":     string(cl.Status),
	}

	if !cl.Status.CanTransitionTo(StatusProcessing) {
		return CoverLetter{}, fmt.Errorf("cover letter %s has unknown status %q", cl.ID, cl.Status)
	}
	// A previous result is withdrawn; generated text exists only in SUCCESS.
	cl.Status = StatusProcessing
	cl.Sections = cl.Sections.WithoutGenerated()
	cl.PreviewURL = ""
	cl.UpdatedAt = o.now()
	if err := o.Repo.SaveCheckpoint(ctx, checkpointOf(cl)); err != nil {
		return CoverLetter{}, fmt.Errorf("save processing checkpoint: %w", err)
	}
	telemetry.Info("coverletter.generation.processing", fields)

	input := llm.GenerateInput{
		Resume:   resume,
		Question: DefaultQuestionLabel,
		Tone:     cl.EffectiveTone(),
		Length:   cl.EffectiveLength(),
	}

	metrics.GenerationStarted()
	start := time.Now()
	text, genErr := o.generate(ctx, input)
	metrics.GenerationFinished(time.Since(start), genErr)

	// A cancelled caller must still leave a terminal status behind.
	finalCtx := context.WithoutCancel(ctx)
	if genErr != nil {
		cl.Status = StatusFailed
		cl.UpdatedAt = o.now()
		if err := o.Repo.SaveCheckpoint(finalCtx, checkpointOf(cl)); err != nil {
			return CoverLetter{}, fmt.Errorf("save failed checkpoint: %w", errors.Join(err, genErr))
		}
		fields["error"] = genErr
		fields["to_status"] = string(StatusFailed)
		telemetry.Error("coverletter.generation.failed", fields)
		return o.reload(finalCtx, cl), fmt.Errorf("%w: %w", ErrGenerationFailed, genErr)
	}

	cl.Sections = cl.Sections.WithGenerated(text)
	if o.Previews != nil {
		url, err := o.Previews.Publish(finalCtx, cl, text)
		if err != nil {
			telemetry.Warn("coverletter.preview.failed", map[string]any{
				"cover_letter_id": cl.ID,
				"error":           err,
			})
			cl.PreviewURL = ""
		} else {
			cl.PreviewURL = url
		}
	}
	cl.Status = StatusSuccess
	cl.UpdatedAt = o.now()
	if err := o.Repo.SaveCheckpoint(finalCtx, checkpointOf(cl)); err != nil {
		return CoverLetter{}, fmt.Errorf("save success checkpoint: %w", err)
	}
	fields["to_status"] = string(StatusSuccess)
	fields["text_len"] = len([]rune(text))
	telemetry.Info("coverletter.generation.succeeded", fields)
	return o.reload(finalCtx, cl), nil
}

// reload returns the stored document so edits made during the call show up.
// The in-memory copy is returned when the read fails.
func (o *Orchestrator) reload(ctx context.Context, cl CoverLetter) CoverLetter {
	stored, err := o.Repo.GetByID(ctx, cl.OwnerID, cl.ID)
	if err != nil {
		return cl
	}
	return stored
}

func (o *Orchestrator) generate(ctx context.Context, input llm.GenerateInput) (string, error) {
	if o.LLM == nil {
		return "", llm.ErrNotImplemented
	}
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = DefaultGenerationTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var text string
	call := func(ctx context.Context) error {
		out, err := o.LLM.GenerateCoverLetter(ctx, input)
		if err != nil {
			return err
		}
		if strings.TrimSpace(out) == "" {
			return llm.ErrEmptyOutput
		}
		text = out
		return nil
	}
	var err error
	if o.Breaker != nil {
		err = o.Breaker.Execute(callCtx, breakerOperation, call, countsAgainstBackend)
	} else {
		err = call(callCtx)
	}
	if err != nil {
		return "", err
	}
	return text, nil
}

// countsAgainstBackend excludes caller cancellation from breaker failures.
func countsAgainstBackend(err error) bool {
	return !errors.Is(err, context.Canceled)
}

func checkpointOf(cl CoverLetter) Checkpoint {
	generated, _ := cl.Sections.GeneratedText()
	return Checkpoint{
		ID:         cl.ID,
		OwnerID:    cl.OwnerID,
		Status:     cl.Status,
		Generated:  generated,
		PreviewURL: cl.PreviewURL,
		UpdatedAt:  cl.UpdatedAt,
	}
}
