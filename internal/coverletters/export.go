package coverletters

import (
	"context"
	"errors"
	"fmt"

	"coverletter-backend/internal/render"
	"coverletter-backend/internal/shared/metrics"
	"coverletter-backend/internal/shared/telemetry"
)

// MissingTextPlaceholder is rendered when a SUCCESS document has no text.
const MissingTextPlaceholder = "(생성된 자기소개서가 없습니다)"

// Artifact is a rendered document ready to be sent to the client.
type Artifact struct {
	Bytes       []byte
	ContentType string
	FileName    string
}

// Exporter renders stored cover letters into downloadable files.
type Exporter struct {
	Repo     Repo
	Renderer *render.Renderer
}

// Render produces the document bytes for doc. Status is checked before the
// format so an ungenerated document reports ErrNotGenerated for any format.
func (e *Exporter) Render(doc CoverLetter, rawFormat string) (Artifact, error) {
	if doc.Status != StatusSuccess {
		return Artifact{}, ErrNotGenerated
	}
	format, err := render.ParseFormat(rawFormat)
	if err != nil {
		return Artifact{}, err
	}
	if e.Renderer == nil {
		return Artifact{}, fmt.Errorf("%w: renderer not configured", ErrRenderFailed)
	}

	text, ok := doc.GeneratedText()
	if !ok {
		text = MissingTextPlaceholder
	}
	title := doc.DisplayTitle()
	data, err := e.Renderer.Render(format, title, title+"\n\n"+text)
	metrics.Export(string(format), err)
	if err != nil {
		if !errors.Is(err, ErrRenderFailed) {
			err = fmt.Errorf("%w: %v", ErrRenderFailed, err)
		}
		return Artifact{}, err
	}
	return Artifact{
		Bytes:       data,
		ContentType: format.ContentType(),
		FileName:    "cover-letter-" + doc.ID + format.Extension(),
	}, nil
}

// Download loads the owner's document and renders it.
func (e *Exporter) Download(ctx context.Context, ownerID, id, format string) (Artifact, error) {
	doc, err := e.Repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return Artifact{}, err
	}
	art, err := e.Render(doc, format)
	if err != nil {
		telemetry.Warn("coverletter.export.failed", map[string]any{
			"cover_letter_id": id,
			"format":          format,
			"error":           err,
		})
		return Artifact{}, err
	}
	telemetry.Info("coverletter.export.succeeded", map[string]any{
		"cover_letter_id": id,
		"format":          format,
		"bytes":           len(art.Bytes),
	})
	return art, nil
}
