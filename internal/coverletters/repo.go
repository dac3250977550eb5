package coverletters

import (
	"context"
	"time"

	"coverletter-backend/internal/resumedata"
)

// Repo defines persistence operations for cover letters. Every read and
// write is scoped by owner; a foreign id behaves like a missing one.
type Repo interface {
	Create(ctx context.Context, cl CoverLetter) error
	GetByID(ctx context.Context, ownerID, id string) (CoverLetter, error)
	// Update writes the owner-editable fields and UpdatedAt. It never writes
	// Status or PreviewURL, and the stored generated text survives it.
	Update(ctx context.Context, cl CoverLetter) error
	// SaveCheckpoint writes status, preview URL and UpdatedAt, and merges the
	// generated text into the stored sections: set for SUCCESS, removed for
	// any other status. Other section keys are left as stored.
	SaveCheckpoint(ctx context.Context, cp Checkpoint) error
	Delete(ctx context.Context, ownerID, id string) error
	ListArchived(ctx context.Context, q ArchiveQuery) ([]CoverLetter, int, error)
	ListByOwner(ctx context.Context, ownerID string) ([]CoverLetter, error)
}

// Checkpoint is the only way Status or the generated text changes.
type Checkpoint struct {
	ID         string
	OwnerID    string
	Status     Status
	Generated  string
	PreviewURL string
	UpdatedAt  time.Time
}

// mergeGenerated applies the generated-text rule of a checkpoint to stored.
func (cp Checkpoint) mergeGenerated(stored resumedata.Sections) resumedata.Sections {
	if cp.Status == StatusSuccess {
		return stored.WithGenerated(cp.Generated)
	}
	return stored.WithoutGenerated()
}
