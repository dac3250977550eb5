package coverletters

import (
	"context"
	"slices"
	"strings"
	"sync"
)

// MemoryRepo stores cover letters in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]CoverLetter
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]CoverLetter)}
}

func cloneCoverLetter(cl CoverLetter) CoverLetter {
	cl.Questions = slices.Clone(cl.Questions)
	cl.Sections = cl.Sections.Clone()
	if cl.LengthPerQuestion != nil {
		v := *cl.LengthPerQuestion
		cl.LengthPerQuestion = &v
	}
	return cl
}

// Create stores the cover letter.
func (r *MemoryRepo) Create(ctx context.Context, cl CoverLetter) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[cl.ID] = cloneCoverLetter(cl)
	return nil
}

// GetByID returns the owner's cover letter.
func (r *MemoryRepo) GetByID(ctx context.Context, ownerID, id string) (CoverLetter, error) {
	if err := ctx.Err(); err != nil {
		return CoverLetter{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	cl, ok := r.byID[id]
	if !ok || cl.OwnerID != ownerID {
		return CoverLetter{}, ErrNotFound
	}
	return cloneCoverLetter(cl), nil
}

// Update writes the editable fields, keeping Status and PreviewURL.
func (r *MemoryRepo) Update(ctx context.Context, cl CoverLetter) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.byID[cl.ID]
	if !ok || existing.OwnerID != cl.OwnerID {
		return ErrNotFound
	}
	next := cloneCoverLetter(cl)
	next.Status = existing.Status
	next.PreviewURL = existing.PreviewURL
	next.CreatedAt = existing.CreatedAt
	next.Sections = next.Sections.WithoutGenerated()
	if text, ok := existing.Sections.GeneratedText(); ok {
		next.Sections = next.Sections.WithGenerated(text)
	}
	r.byID[cl.ID] = next
	return nil
}

// SaveCheckpoint writes status, preview and UpdatedAt and merges the
// generated text into the current sections.
func (r *MemoryRepo) SaveCheckpoint(ctx context.Context, cp Checkpoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.byID[cp.ID]
	if !ok || existing.OwnerID != cp.OwnerID {
		return ErrNotFound
	}
	existing.Status = cp.Status
	existing.Sections = cp.mergeGenerated(existing.Sections)
	existing.PreviewURL = cp.PreviewURL
	existing.UpdatedAt = cp.UpdatedAt
	r.byID[cp.ID] = existing
	return nil
}

// Delete removes the owner's cover letter.
func (r *MemoryRepo) Delete(ctx context.Context, ownerID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cl, ok := r.byID[id]
	if !ok || cl.OwnerID != ownerID {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

// ListArchived returns one page of the owner's archived cover letters and
// the total number of matches.
func (r *MemoryRepo) ListArchived(ctx context.Context, q ArchiveQuery) ([]CoverLetter, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	search := strings.ToLower(strings.TrimSpace(q.Search))
	tone := strings.TrimSpace(q.Tone)

	r.mu.RLock()
	matches := make([]CoverLetter, 0)
	for _, cl := range r.byID {
		if cl.OwnerID != q.OwnerID || !cl.Archived {
			continue
		}
		if tone != "" && cl.Tone != tone {
			continue
		}
		if search != "" && !containsFold(search, cl.Title, cl.TargetCompany, cl.TargetJob) {
			continue
		}
		matches = append(matches, cloneCoverLetter(cl))
	}
	r.mu.RUnlock()

	sortCoverLetters(matches, q.Sort)
	total := len(matches)
	start := q.Offset()
	if start >= total {
		return []CoverLetter{}, total, nil
	}
	end := start + q.Size
	if end > total {
		end = total
	}
	return matches[start:end], total, nil
}

// ListByOwner returns every cover letter of the owner, most recently
// updated first.
func (r *MemoryRepo) ListByOwner(ctx context.Context, ownerID string) ([]CoverLetter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]CoverLetter, 0)
	for _, cl := range r.byID {
		if cl.OwnerID == ownerID {
			out = append(out, cloneCoverLetter(cl))
		}
	}
	r.mu.RUnlock()
	sortCoverLetters(out, DefaultSort)
	return out, nil
}

func containsFold(needle string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

// sortCoverLetters orders items like the SQL listing: by the sort field,
// then by id, both in the requested direction.
func sortCoverLetters(items []CoverLetter, spec SortSpec) {
	slices.SortStableFunc(items, func(a, b CoverLetter) int {
		c := compareField(a, b, spec.Field)
		if c == 0 {
			c = strings.Compare(a.ID, b.ID)
		}
		if spec.Desc {
			return -c
		}
		return c
	})
}

func compareField(a, b CoverLetter, field string) int {
	switch field {
	case "createdAt":
		return a.CreatedAt.Compare(b.CreatedAt)
	case "title":
		return strings.Compare(a.Title, b.Title)
	case "status":
		return strings.Compare(string(a.Status), string(b.Status))
	default:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	}
}

var _ Repo = (*MemoryRepo)(nil)
