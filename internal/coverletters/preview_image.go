package coverletters

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"coverletter-backend/internal/render"
	"coverletter-backend/internal/shared/storage/object"
)

// DefaultPreviewBaseURL is joined with the storage key to form PreviewURL.
const DefaultPreviewBaseURL = "/files/"

// ObjectPreviews publishes PNG previews into an object store.
type ObjectPreviews struct {
	Store    object.ObjectStore
	Renderer *render.Renderer
	BaseURL  string
}

// Publish renders text and stores the PNG under the owner's preview key.
func (p *ObjectPreviews) Publish(ctx context.Context, cl CoverLetter, text string) (string, error) {
	if p == nil || p.Store == nil || p.Renderer == nil {
		return "", errors.New("preview publisher not configured")
	}
	key, err := object.PreviewKey(cl.OwnerID, cl.ID)
	if err != nil {
		return "", err
	}
	png, err := p.Renderer.Preview(text)
	if err != nil {
		return "", err
	}
	if _, err := p.Store.SaveWithKey(ctx, key, "image/png", bytes.NewReader(png)); err != nil {
		return "", fmt.Errorf("save preview: %w", err)
	}
	return p.url(key), nil
}

// Remove deletes the stored preview of id. A missing object is not an error.
func (p *ObjectPreviews) Remove(ctx context.Context, ownerID, id string) error {
	if p == nil || p.Store == nil {
		return nil
	}
	key, err := object.PreviewKey(ownerID, id)
	if err != nil {
		return err
	}
	return p.Store.Delete(ctx, key)
}

func (p *ObjectPreviews) url(key string) string {
	base := p.BaseURL
	if base == "" {
		base = DefaultPreviewBaseURL
	}
	return strings.TrimRight(base, "/") + "/" + key
}
