package coverletters

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"coverletter-backend/internal/resumedata"
	"coverletter-backend/internal/shared/telemetry"
)

// DraftInput carries draft fields; nil fields are left unchanged.
type DraftInput struct {
	Title         *string
	TargetCompany *string
	TargetJob     *string
	Sections      resumedata.Sections
}

// SettingsInput replaces the generation settings.
type SettingsInput struct {
	Questions         []string
	Tone              string
	LengthPerQuestion *int
}

// PreviewView is the read model of the preview screen.
type PreviewView struct {
	ID        string              `json:"id"`
	Title     string              `json:"title"`
	Status    Status              `json:"status"`
	Questions []string            `json:"questions"`
	Sections  resumedata.Sections `json:"sections"`
}

// PreviewRemover deletes a published preview image.
type PreviewRemover interface {
	Remove(ctx context.Context, ownerID, id string) error
}

// Service contains the owner-facing cover letter operations. Status is
// never written here; see Orchestrator.
type Service struct {
	Repo     Repo
	Previews PreviewRemover
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Create stores a new draft owned by ownerID.
func (s *Service) Create(ctx context.Context, ownerID string, in DraftInput) (CoverLetter, error) {
	title := ""
	if in.Title != nil {
		title = strings.TrimSpace(*in.Title)
	}
	in.Title = &title
	if err := validateTitle(title); err != nil {
		return CoverLetter{}, err
	}
	if err := validateDraft(in); err != nil {
		return CoverLetter{}, err
	}

	now := s.now()
	cl := CoverLetter{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Title:     title,
		Sections:  in.Sections.WithoutGenerated(),
		Status:    StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.TargetCompany != nil {
		cl.TargetCompany = strings.TrimSpace(*in.TargetCompany)
	}
	if in.TargetJob != nil {
		cl.TargetJob = strings.TrimSpace(*in.TargetJob)
	}
	if err := s.Repo.Create(ctx, cl); err != nil {
		return CoverLetter{}, err
	}
	telemetry.Info("coverletter.created", map[string]any{
		"cover_letter_id": cl.ID,
		"user_id":         ownerID,
	})
	return cl, nil
}

// Get returns the owner's cover letter.
func (s *Service) Get(ctx context.Context, ownerID, id string) (CoverLetter, error) {
	return s.Repo.GetByID(ctx, ownerID, id)
}

// UpdateDraft applies the non-nil draft fields. New sections replace the
// stored ones, keeping any generated text.
func (s *Service) UpdateDraft(ctx context.Context, ownerID, id string, in DraftInput) (CoverLetter, error) {
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		in.Title = &t
	}
	if err := validateDraft(in); err != nil {
		return CoverLetter{}, err
	}
	return s.mutate(ctx, ownerID, id, func(cl *CoverLetter) error {
		if in.Title != nil {
			cl.Title = *in.Title
		}
		if in.TargetCompany != nil {
			cl.TargetCompany = strings.TrimSpace(*in.TargetCompany)
		}
		if in.TargetJob != nil {
			cl.TargetJob = strings.TrimSpace(*in.TargetJob)
		}
		if in.Sections != nil {
			cl.Sections = carryGenerated(cl.Sections, in.Sections)
		}
		return nil
	})
}

// UpdateContent replaces the stored sections. A client-supplied generated
// text is ignored; the stored one is carried over.
func (s *Service) UpdateContent(ctx context.Context, ownerID, id string, sections resumedata.Sections) (CoverLetter, error) {
	return s.mutate(ctx, ownerID, id, func(cl *CoverLetter) error {
		cl.Sections = carryGenerated(cl.Sections, sections)
		return nil
	})
}

// UpdateSettings replaces questions, tone and length without touching status.
func (s *Service) UpdateSettings(ctx context.Context, ownerID, id string, in SettingsInput) (CoverLetter, error) {
	in.Tone = strings.TrimSpace(in.Tone)
	if err := validateSettings(in); err != nil {
		return CoverLetter{}, err
	}
	return s.mutate(ctx, ownerID, id, func(cl *CoverLetter) error {
		cl.Questions = slices.Clone(in.Questions)
		cl.Tone = in.Tone
		cl.LengthPerQuestion = in.LengthPerQuestion
		return nil
	})
}

// SelectTemplate stores the chosen template id.
func (s *Service) SelectTemplate(ctx context.Context, ownerID, id, templateID string) (CoverLetter, error) {
	templateID = strings.TrimSpace(templateID)
	if templateID == "" {
		return CoverLetter{}, invalidField("templateId", "is required")
	}
	return s.mutate(ctx, ownerID, id, func(cl *CoverLetter) error {
		cl.TemplateID = templateID
		return nil
	})
}

// Rename changes the title.
func (s *Service) Rename(ctx context.Context, ownerID, id, title string) (CoverLetter, error) {
	title = strings.TrimSpace(title)
	if err := validateTitle(title); err != nil {
		return CoverLetter{}, err
	}
	return s.mutate(ctx, ownerID, id, func(cl *CoverLetter) error {
		cl.Title = title
		return nil
	})
}

// UpdateGeneratedContent replaces the generated text. Only a successfully
// generated cover letter has text to edit.
func (s *Service) UpdateGeneratedContent(ctx context.Context, ownerID, id, text string) (CoverLetter, error) {
	if strings.TrimSpace(text) == "" {
		return CoverLetter{}, invalidField("content", "is required")
	}
	cl, err := s.Repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return CoverLetter{}, err
	}
	if cl.Status != StatusSuccess {
		return CoverLetter{}, ErrNotGenerated
	}
	cl.Sections = cl.Sections.WithGenerated(text)
	cl.UpdatedAt = s.now()
	if err := s.Repo.SaveCheckpoint(ctx, checkpointOf(cl)); err != nil {
		return CoverLetter{}, err
	}
	return cl, nil
}

// SetArchived moves the cover letter in or out of the archive.
func (s *Service) SetArchived(ctx context.Context, ownerID, id string, archived bool) (CoverLetter, error) {
	return s.mutate(ctx, ownerID, id, func(cl *CoverLetter) error {
		cl.Archived = archived
		return nil
	})
}

// Delete removes the cover letter and, best effort, its preview image.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.Repo.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	if s.Previews != nil {
		if err := s.Previews.Remove(ctx, ownerID, id); err != nil {
			telemetry.Warn("coverletter.preview.remove_failed", map[string]any{
				"cover_letter_id": id,
				"error":           err,
			})
		}
	}
	return nil
}

// Preview returns the questions and stored sections in any status.
func (s *Service) Preview(ctx context.Context, ownerID, id string) (PreviewView, error) {
	cl, err := s.Repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return PreviewView{}, err
	}
	questions := cl.Questions
	if questions == nil {
		questions = []string{}
	}
	return PreviewView{
		ID:        cl.ID,
		Title:     cl.Title,
		Status:    cl.Status,
		Questions: questions,
		Sections:  cl.Sections,
	}, nil
}

// ListArchived returns one page of the owner's archive.
func (s *Service) ListArchived(ctx context.Context, q ArchiveQuery) (Page, error) {
	if q.Sort.Field == "" {
		q.Sort = DefaultSort
	}
	if err := q.validate(); err != nil {
		return Page{}, err
	}
	items, total, err := s.Repo.ListArchived(ctx, q)
	if err != nil {
		return Page{}, err
	}
	return newPage(items, q, total), nil
}

// ListByOwner returns all of the owner's cover letters.
func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]CoverLetter, error) {
	return s.Repo.ListByOwner(ctx, ownerID)
}

func (s *Service) mutate(ctx context.Context, ownerID, id string, apply func(*CoverLetter) error) (CoverLetter, error) {
	cl, err := s.Repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return CoverLetter{}, err
	}
	if err := apply(&cl); err != nil {
		return CoverLetter{}, err
	}
	cl.UpdatedAt = s.now()
	if err := s.Repo.Update(ctx, cl); err != nil {
		return CoverLetter{}, err
	}
	return cl, nil
}

// carryGenerated drops any generated text from incoming and restores the
// stored one. Only checkpoints write that key.
func carryGenerated(stored, incoming resumedata.Sections) resumedata.Sections {
	next := incoming.WithoutGenerated()
	if text, ok := stored.GeneratedText(); ok {
		return next.WithGenerated(text)
	}
	return next
}
