package coverletters

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"coverletter-backend/internal/llm"
	"coverletter-backend/internal/render"
	"coverletter-backend/internal/resumedata"
	"coverletter-backend/internal/shared/resilience"
)

func newOrchestrator(repo Repo, client llm.Client) *Orchestrator {
	return &Orchestrator{
		Repo:    repo,
		LLM:     client,
		Timeout: time.Second,
		Now:     func() time.Time { return fixedNow.Add(time.Minute) },
	}
}

type fakePublisher struct {
	url string
	err error
}

func (p fakePublisher) Publish(context.Context, CoverLetter, string) (string, error) {
	return p.url, p.err
}

func TestRequestGenerationSuccess(t *testing.T) {
	repo := newRecordingRepo()
	seedCoverLetter(t, repo, nil)
	client := &fakeLLM{fn: replyWith("Dear hiring manager", nil)}

	cl, err := newOrchestrator(repo, client).RequestGeneration(context.Background(), "cl-1", "user-1")
	if err != nil {
		t.Fatalf("RequestGeneration: %v", err)
	}
	if cl.Status != StatusSuccess {
		t.Fatalf("expected SUCCESS, got %s", cl.Status)
	}
	if text, _ := cl.GeneratedText(); text != "Dear hiring manager" {
		t.Fatalf("unexpected text %q", text)
	}

	stored, _ := repo.GetByID(context.Background(), "user-1", "cl-1")
	if stored.Status != StatusSuccess {
		t.Fatalf("expected stored SUCCESS, got %s", stored.Status)
	}
	if text, ok := stored.GeneratedText(); !ok || text != "Dear hiring manager" {
		t.Fatalf("expected stored text, got %q (%v)", text, ok)
	}
	if summary, _ := stored.Sections["summary"].AsText(); summary != "Go developer" {
		t.Fatalf("expected user sections kept, got %q", summary)
	}
	if !stored.UpdatedAt.Equal(fixedNow.Add(time.Minute)) {
		t.Fatalf("expected UpdatedAt refreshed, got %v", stored.UpdatedAt)
	}
}

func TestRequestGenerationSendsDefaults(t *testing.T) {
	repo := NewMemoryRepo()
	seedCoverLetter(t, repo, nil)
	client := &fakeLLM{}

	if _, err := newOrchestrator(repo, client).RequestGeneration(context.Background(), "cl-1", "user-1"); err != nil {
		t.Fatalf("RequestGeneration: %v", err)
	}
	in := client.inputs[0]
	if in.Question != DefaultQuestionLabel || in.Tone != DefaultTone || in.Length != DefaultLengthPerQuestion {
		t.Fatalf("unexpected defaults: %+v", in)
	}
	if !slices.Equal(in.Resume.Skills, []string{"Go", "SQL"}) {
		t.Fatalf("expected normalized skills, got %v", in.Resume.Skills)
	}
	if in.Resume.Experiences == nil || in.Resume.Profile == nil {
		t.Fatalf("expected empty, non-nil fields: %+v", in.Resume)
	}
}

func TestRequestGenerationUsesSettings(t *testing.T) {
	repo := NewMemoryRepo()
	seedCoverLetter(t, repo, func(cl *CoverLetter) {
		cl.Tone = "열정적인"
		cl.LengthPerQuestion = intPtr(700)
	})
	client := &fakeLLM{}

	if _, err := newOrchestrator(repo, client).RequestGeneration(context.Background(), "cl-1", "user-1"); err != nil {
		t.Fatalf("RequestGeneration: %v", err)
	}
	if in := client.inputs[0]; in.Tone != "열정적인" || in.Length != 700 {
		t.Fatalf("expected stored settings, got %+v", in)
	}
}

func TestRequestGenerationCommitsProcessingBeforeCall(t *testing.T) {
	repo := newRecordingRepo()
	seedCoverLetter(t, repo, func(cl *CoverLetter) {
		cl.Status = StatusSuccess
		cl.Sections = cl.Sections.WithGenerated("old text")
		cl.PreviewURL = "/files/old.png"
	})

	var during CoverLetter
	client := &fakeLLM{fn: func(ctx context.Context, _ llm.GenerateInput) (string, error) {
		during, _ = repo.GetByID(ctx, "user-1", "cl-1")
		return "new text", nil
	}}

	if _, err := newOrchestrator(repo, client).RequestGeneration(context.Background(), "cl-1", "user-1"); err != nil {
		t.Fatalf("RequestGeneration: %v", err)
	}
	if during.Status != StatusProcessing {
		t.Fatalf("expected PROCESSING during the call, got %s", during.Status)
	}
	if _, ok := during.GeneratedText(); ok {
		t.Fatalf("expected previous text withdrawn while processing")
	}
	if during.PreviewURL != "" {
		t.Fatalf("expected preview cleared while processing, got %q", during.PreviewURL)
	}
}

func TestRequestGenerationKeepsEditsMadeDuringCall(t *testing.T) {
	repo := NewMemoryRepo()
	seedCoverLetter(t, repo, nil)
	svc := newTestService(repo)

	client := &fakeLLM{fn: func(ctx context.Context, _ llm.GenerateInput) (string, error) {
		edited := resumedata.FromMap(map[string]any{"name": "Kim", "summary": "edited while processing"})
		if _, err := svc.UpdateContent(ctx, "user-1", "cl-1", edited); err != nil {
			return "", err
		}
		return "final text", nil
	}}

	cl, err := newOrchestrator(repo, client).RequestGeneration(context.Background(), "cl-1", "user-1")
	if err != nil {
		t.Fatalf("RequestGeneration: %v", err)
	}
	stored, _ := repo.GetByID(context.Background(), "user-1", "cl-1")
	if summary, _ := stored.Sections["summary"].AsText(); summary != "edited while processing" {
		t.Fatalf("expected concurrent edit kept, got %q", summary)
	}
	if text, _ := stored.GeneratedText(); text != "final text" || stored.Status != StatusSuccess {
		t.Fatalf("expected SUCCESS with merged text, got %s %q", stored.Status, text)
	}
	if summary, _ := cl.Sections["summary"].AsText(); summary != "edited while processing" {
		t.Fatalf("expected returned document to reflect the edit, got %q", summary)
	}
}

func TestRequestGenerationWritesExactlyTwoCheckpoints(t *testing.T) {
	cases := []struct {
		name  string
		reply func(context.Context, llm.GenerateInput) (string, error)
		final Status
	}{
		{name: "success", reply: replyWith("ok", nil), final: StatusSuccess},
		{name: "failure", reply: replyWith("", errors.New("backend down")), final: StatusFailed},
		{name: "blank", reply: replyWith("   ", nil), final: StatusFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newRecordingRepo()
			seedCoverLetter(t, repo, nil)

			_, _ = newOrchestrator(repo, &fakeLLM{fn: tc.reply}).RequestGeneration(context.Background(), "cl-1", "user-1")

			if repo.writes() != 2 {
				t.Fatalf("expected 2 writes, got %d", repo.writes())
			}
			if repo.checkpoints[0].Status != StatusProcessing || repo.checkpoints[1].Status != tc.final {
				t.Fatalf("unexpected transitions %s -> %s", repo.checkpoints[0].Status, repo.checkpoints[1].Status)
			}
		})
	}
}

func TestRequestGenerationFailureLeavesFailed(t *testing.T) {
	repo := NewMemoryRepo()
	seedCoverLetter(t, repo, func(cl *CoverLetter) {
		cl.Status = StatusSuccess
		cl.Sections = cl.Sections.WithGenerated("previous text")
	})
	errBackend := errors.New("backend returned 500")
	client := &fakeLLM{fn: replyWith("", errBackend)}

	_, err := newOrchestrator(repo, client).RequestGeneration(context.Background(), "cl-1", "user-1")
	if !errors.Is(err, ErrGenerationFailed) || !errors.Is(err, errBackend) {
		t.Fatalf("expected ErrGenerationFailed wrapping cause, got %v", err)
	}
	stored, _ := repo.GetByID(context.Background(), "user-1", "cl-1")
	if stored.Status != StatusFailed {
		t.Fatalf("expected FAILED, got %s", stored.Status)
	}
	if _, ok := stored.GeneratedText(); ok {
		t.Fatalf("expected no generated text outside SUCCESS")
	}
	if client.callCount() != 1 {
		t.Fatalf("expected no retry, got %d calls", client.callCount())
	}
}

func TestRequestGenerationBlankOutputFails(t *testing.T) {
	repo := NewMemoryRepo()
	seedCoverLetter(t, repo, nil)

	_, err := newOrchestrator(repo, &fakeLLM{fn: replyWith(" \n ", nil)}).RequestGeneration(context.Background(), "cl-1", "user-1")
	if !errors.Is(err, ErrGenerationFailed) || !errors.Is(err, llm.ErrEmptyOutput) {
		t.Fatalf("expected empty output failure, got %v", err)
	}
}

func TestRequestGenerationRetriesAfterFailure(t *testing.T) {
	repo := NewMemoryRepo()
	seedCoverLetter(t, repo, func(cl *CoverLetter) { cl.Status = StatusFailed })

	cl, err := newOrchestrator(repo, &fakeLLM{}).RequestGeneration(context.Background(), "cl-1", "user-1")
	if err != nil {
		t.Fatalf("RequestGeneration: %v", err)
	}
	if cl.Status != StatusSuccess {
		t.Fatalf("expected FAILED -> SUCCESS, got %s", cl.Status)
	}
}

func TestRequestGenerationTimeout(t *testing.T) {
	repo := NewMemoryRepo()
	seedCoverLetter(t, repo, nil)
	client := &fakeLLM{fn: func(ctx context.Context, _ llm.GenerateInput) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	orch := newOrchestrator(repo, client)
	orch.Timeout = 20 * time.Millisecond

	_, err := orch.RequestGeneration(context.Background(), "cl-1", "user-1")
	if !errors.Is(err, ErrGenerationFailed) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected timeout failure, got %v", err)
	}
	stored, _ := repo.GetByID(context.Background(), "user-1", "cl-1")
	if stored.Status != StatusFailed {
		t.Fatalf("expected FAILED after timeout, got %s", stored.Status)
	}
	if _, ok := stored.GeneratedText(); ok {
		t.Fatalf("expected generatedCoverLetter to stay absent after timeout")
	}
}

func TestRequestGenerationCancelledCallerStillPersistsTerminalState(t *testing.T) {
	repo := NewMemoryRepo()
	seedCoverLetter(t, repo, nil)
	ctx, cancel := context.WithCancel(context.Background())
	client := &fakeLLM{fn: func(callCtx context.Context, _ llm.GenerateInput) (string, error) {
		cancel()
		<-callCtx.Done()
		return "", callCtx.Err()
	}}

	_, err := newOrchestrator(repo, client).RequestGeneration(ctx, "cl-1", "user-1")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation cause, got %v", err)
	}
	stored, _ := repo.GetByID(context.Background(), "user-1", "cl-1")
	if stored.Status != StatusFailed {
		t.Fatalf("expected FAILED persisted, got %s", stored.Status)
	}
}

func TestRequestGenerationNotFound(t *testing.T) {
	repo := newRecordingRepo()
	seedCoverLetter(t, repo, nil)
	client := &fakeLLM{}

	_, err := newOrchestrator(repo, client).RequestGeneration(context.Background(), "cl-1", "someone-else")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if repo.writes() != 0 || client.callCount() != 0 {
		t.Fatalf("expected no writes and no calls, got %d writes %d calls", repo.writes(), client.callCount())
	}
}

func TestRequestGenerationOpenBreakerFailsFast(t *testing.T) {
	repo := NewMemoryRepo()
	seedCoverLetter(t, repo, nil)
	client := &fakeLLM{fn: replyWith("", errors.New("down"))}
	orch := newOrchestrator(repo, client)
	orch.Breaker = resilience.NewExecutor(resilience.Config{
		Enabled:          true,
		MinRequests:      1,
		FailureRatio:     0.5,
		OpenTimeout:      time.Minute,
		HalfOpenMaxCalls: 1,
	})

	_, _ = orch.RequestGeneration(context.Background(), "cl-1", "user-1")
	_, err := orch.RequestGeneration(context.Background(), "cl-1", "user-1")
	if !errors.Is(err, resilience.ErrCircuitOpen) || !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("expected open breaker failure, got %v", err)
	}
	if client.callCount() != 1 {
		t.Fatalf("expected the open breaker to skip the backend, got %d calls", client.callCount())
	}
	stored, _ := repo.GetByID(context.Background(), "user-1", "cl-1")
	if stored.Status != StatusFailed {
		t.Fatalf("expected FAILED, got %s", stored.Status)
	}
}

func TestRequestGenerationPreviewIsBestEffort(t *testing.T) {
	repo := NewMemoryRepo()
	seedCoverLetter(t, repo, nil)
	orch := newOrchestrator(repo, &fakeLLM{})

	orch.Previews = fakePublisher{url: "/files/previews/abc/cl-1.png"}
	cl, err := orch.RequestGeneration(context.Background(), "cl-1", "user-1")
	if err != nil || cl.PreviewURL != "/files/previews/abc/cl-1.png" {
		t.Fatalf("expected preview url, got %q (%v)", cl.PreviewURL, err)
	}

	orch.Previews = fakePublisher{err: errors.New("store down")}
	cl, err = orch.RequestGeneration(context.Background(), "cl-1", "user-1")
	if err != nil {
		t.Fatalf("expected preview failure to be ignored, got %v", err)
	}
	if cl.Status != StatusSuccess || cl.PreviewURL != "" {
		t.Fatalf("expected SUCCESS without preview, got %s %q", cl.Status, cl.PreviewURL)
	}
}

func TestGenerateThenDownloadPDF(t *testing.T) {
	repo := NewMemoryRepo()
	seedCoverLetter(t, repo, func(cl *CoverLetter) {
		cl.Sections = resumedata.Sections{}
	})
	if _, err := newOrchestrator(repo, &fakeLLM{fn: replyWith("I build reliable services.", nil)}).
		RequestGeneration(context.Background(), "cl-1", "user-1"); err != nil {
		t.Fatalf("RequestGeneration: %v", err)
	}

	renderer, err := render.NewRenderer("", "")
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	exporter := &Exporter{Repo: repo, Renderer: renderer}
	art, err := exporter.Download(context.Background(), "user-1", "cl-1", "pdf")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if art.ContentType != render.ContentTypePDF || art.FileName != "cover-letter-cl-1.pdf" {
		t.Fatalf("unexpected artifact %s %s", art.ContentType, art.FileName)
	}
	if !bytes.HasPrefix(art.Bytes, []byte("%PDF")) {
		t.Fatalf("expected PDF bytes")
	}
}
