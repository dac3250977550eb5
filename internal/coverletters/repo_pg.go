package coverletters

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"coverletter-backend/internal/resumedata"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const selectColumns = `id, owner_id, title, target_company, target_job, questions, tone,
       length_per_question, sections, status, template_id, archived, preview_url,
       created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCoverLetter(row rowScanner) (CoverLetter, error) {
	var (
		cl         CoverLetter
		questions  []byte
		sections   []byte
		length     sql.NullInt64
		templateID sql.NullString
		previewURL sql.NullString
		status     string
	)
	if err := row.Scan(
		&cl.ID,
		&cl.OwnerID,
		&cl.Title,
		&cl.TargetCompany,
		&cl.TargetJob,
		&questions,
		&cl.Tone,
		&length,
		&sections,
		&status,
		&templateID,
		&cl.Archived,
		&previewURL,
		&cl.CreatedAt,
		&cl.UpdatedAt,
	); err != nil {
		return CoverLetter{}, err
	}
	cl.Status = Status(status)
	if len(questions) > 0 {
		if err := json.Unmarshal(questions, &cl.Questions); err != nil {
			return CoverLetter{}, fmt.Errorf("decode questions: %w", err)
		}
	}
	parsed, err := resumedata.ParseSections(sections)
	if err != nil {
		return CoverLetter{}, fmt.Errorf("decode sections: %w", err)
	}
	cl.Sections = parsed
	if length.Valid {
		v := int(length.Int64)
		cl.LengthPerQuestion = &v
	}
	cl.TemplateID = templateID.String
	cl.PreviewURL = previewURL.String
	return cl, nil
}

func encodeQuestions(qs []string) ([]byte, error) {
	if qs == nil {
		qs = []string{}
	}
	return json.Marshal(qs)
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return int64(*v)
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Create inserts a new cover letter.
func (r *PGRepo) Create(ctx context.Context, cl CoverLetter) error {
	const query = `
INSERT INTO cover_letters (
	id, owner_id, title, target_company, target_job, questions, tone,
	length_per_question, sections, status, template_id, archived, preview_url,
	created_at, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	questions, err := encodeQuestions(cl.Questions)
	if err != nil {
		return err
	}
	sections, err := cl.Sections.Encode()
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		cl.ID,
		cl.OwnerID,
		cl.Title,
		cl.TargetCompany,
		cl.TargetJob,
		questions,
		cl.Tone,
		nullableInt(cl.LengthPerQuestion),
		sections,
		string(cl.Status),
		nullableString(cl.TemplateID),
		cl.Archived,
		nullableString(cl.PreviewURL),
		cl.CreatedAt,
		cl.UpdatedAt,
	)
	return err
}

// GetByID returns the owner's cover letter.
func (r *PGRepo) GetByID(ctx context.Context, ownerID, id string) (CoverLetter, error) {
	query := `SELECT ` + selectColumns + `
FROM cover_letters
WHERE id = $1 AND owner_id = $2
LIMIT 1`
	cl, err := scanCoverLetter(r.DB.QueryRowContext(ctx, query, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return CoverLetter{}, ErrNotFound
	}
	return cl, err
}

// Update writes the editable fields. Status and preview_url are untouched.
func (r *PGRepo) Update(ctx context.Context, cl CoverLetter) error {
	const query = `
UPDATE cover_letters
SET title = $3,
    target_company = $4,
    target_job = $5,
    questions = $6,
    tone = $7,
    length_per_question = $8,
    sections = CASE WHEN sections ? 'generatedCoverLetter'
        THEN jsonb_set($9::jsonb, '{generatedCoverLetter}', sections -> 'generatedCoverLetter')
        ELSE $9::jsonb - 'generatedCoverLetter' END,
    template_id = $10,
    archived = $11,
    updated_at = $12
WHERE id = $1 AND owner_id = $2`
	questions, err := encodeQuestions(cl.Questions)
	if err != nil {
		return err
	}
	sections, err := cl.Sections.Encode()
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, query,
		cl.ID,
		cl.OwnerID,
		cl.Title,
		cl.TargetCompany,
		cl.TargetJob,
		questions,
		cl.Tone,
		nullableInt(cl.LengthPerQuestion),
		sections,
		nullableString(cl.TemplateID),
		cl.Archived,
		cl.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return requireOneRow(res)
}

// SaveCheckpoint writes status, preview_url and updated_at. Only the
// generatedCoverLetter key of sections is touched, so edits made while the
// generation ran are kept.
func (r *PGRepo) SaveCheckpoint(ctx context.Context, cp Checkpoint) error {
	const query = `
UPDATE cover_letters
SET status = $3,
    sections = CASE WHEN $4::text IS NULL
        THEN sections - 'generatedCoverLetter'
        ELSE jsonb_set(sections, '{generatedCoverLetter}', to_jsonb($4::text)) END,
    preview_url = $5,
    updated_at = $6
WHERE id = $1 AND owner_id = $2`
	var generated any
	if cp.Status == StatusSuccess {
		generated = cp.Generated
	}
	res, err := r.DB.ExecContext(ctx, query,
		cp.ID,
		cp.OwnerID,
		string(cp.Status),
		generated,
		nullableString(cp.PreviewURL),
		cp.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return requireOneRow(res)
}

// Delete removes the owner's cover letter.
func (r *PGRepo) Delete(ctx context.Context, ownerID, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM cover_letters WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return err
	}
	return requireOneRow(res)
}

// ListArchived returns one page of archived cover letters and the total
// number of matches.
func (r *PGRepo) ListArchived(ctx context.Context, q ArchiveQuery) ([]CoverLetter, int, error) {
	where, args := archiveFilter(q)

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM cover_letters WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 || q.Offset() >= total {
		return []CoverLetter{}, total, nil
	}

	dir := "ASC"
	if q.Sort.Desc {
		dir = "DESC"
	}
	query := fmt.Sprintf(`SELECT %s
FROM cover_letters
WHERE %s
ORDER BY %s %s, id %s
LIMIT $%d OFFSET $%d`, selectColumns, where, q.Sort.Column(), dir, dir, len(args)+1, len(args)+2)
	args = append(args, q.Size, q.Offset())

	items, err := r.queryList(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListByOwner returns every cover letter of the owner, most recently
// updated first.
func (r *PGRepo) ListByOwner(ctx context.Context, ownerID string) ([]CoverLetter, error) {
	query := `SELECT ` + selectColumns + `
FROM cover_letters
WHERE owner_id = $1
ORDER BY updated_at DESC, id DESC`
	return r.queryList(ctx, query, ownerID)
}

func (r *PGRepo) queryList(ctx context.Context, query string, args ...any) ([]CoverLetter, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]CoverLetter, 0)
	for rows.Next() {
		cl, err := scanCoverLetter(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cl)
	}
	return out, rows.Err()
}

func archiveFilter(q ArchiveQuery) (string, []any) {
	clauses := []string{"owner_id = $1", "archived = TRUE"}
	args := []any{q.OwnerID}
	if tone := strings.TrimSpace(q.Tone); tone != "" {
		args = append(args, tone)
		clauses = append(clauses, fmt.Sprintf("tone = $%d", len(args)))
	}
	if search := strings.TrimSpace(q.Search); search != "" {
		args = append(args, "%"+escapeLike(search)+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf("(title ILIKE $%d OR target_company ILIKE $%d OR target_job ILIKE $%d)", n, n, n))
	}
	return strings.Join(clauses, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Repo = (*PGRepo)(nil)
