package coverletters

import (
	"context"
	"sync"
	"testing"
	"time"

	"coverletter-backend/internal/llm"
	"coverletter-backend/internal/resumedata"
)

var fixedNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type fakeLLM struct {
	mu     sync.Mutex
	calls  int
	inputs []llm.GenerateInput
	fn     func(ctx context.Context, in llm.GenerateInput) (string, error)
}

func (f *fakeLLM) GenerateCoverLetter(ctx context.Context, in llm.GenerateInput) (string, error) {
	f.mu.Lock()
	f.calls++
	f.inputs = append(f.inputs, in)
	fn := f.fn
	f.mu.Unlock()
	if fn == nil {
		return "generated text", nil
	}
	return fn(ctx, in)
}

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func replyWith(text string, err error) func(context.Context, llm.GenerateInput) (string, error) {
	return func(context.Context, llm.GenerateInput) (string, error) { return text, err }
}

// recordingRepo counts writes on top of a MemoryRepo.
type recordingRepo struct {
	*MemoryRepo
	mu          sync.Mutex
	checkpoints []Checkpoint
	updates     int
}

func newRecordingRepo() *recordingRepo {
	return &recordingRepo{MemoryRepo: NewMemoryRepo()}
}

func (r *recordingRepo) SaveCheckpoint(ctx context.Context, cp Checkpoint) error {
	r.mu.Lock()
	r.checkpoints = append(r.checkpoints, cp)
	r.mu.Unlock()
	return r.MemoryRepo.SaveCheckpoint(ctx, cp)
}

func (r *recordingRepo) Update(ctx context.Context, cl CoverLetter) error {
	r.mu.Lock()
	r.updates++
	r.mu.Unlock()
	return r.MemoryRepo.Update(ctx, cl)
}

func (r *recordingRepo) writes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.checkpoints) + r.updates
}

func seedCoverLetter(t *testing.T, repo Repo, mutate func(*CoverLetter)) CoverLetter {
	t.Helper()
	cl := CoverLetter{
		ID:            "cl-1",
		OwnerID:       "user-1",
		Title:         "Backend engineer",
		TargetCompany: "Acme",
		TargetJob:     "Backend",
		Sections: resumedata.FromMap(map[string]any{
			"name":    "Kim",
			"summary": "Go developer",
			"skills":  []any{"Go", "SQL"},
		}),
		Status:    StatusDraft,
		CreatedAt: fixedNow,
		UpdatedAt: fixedNow,
	}
	if mutate != nil {
		mutate(&cl)
	}
	if err := repo.Create(context.Background(), cl); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return cl
}

func intPtr(v int) *int { return &v }

func strPtr(s string) *string { return &s }
