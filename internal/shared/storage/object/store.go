package object

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"path"
	"strings"
)

// ErrInvalidKey is returned for identifiers that cannot be turned into a
// storage key segment.
var ErrInvalidKey = errors.New("invalid storage key")

// ObjectStore defines the contract for saving and retrieving binary objects
// addressed by a caller-chosen storage key.
type ObjectStore interface {
	SaveWithKey(ctx context.Context, storageKey string, contentType string, r io.Reader) (int64, error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	Delete(ctx context.Context, storageKey string) error
}

// PreviewKey returns the storage key of a cover letter's preview image. The
// owner is hashed so keys never expose user identifiers.
func PreviewKey(ownerID, coverLetterID string) (string, error) {
	name, err := keySegment(coverLetterID)
	if err != nil {
		return "", err
	}
	return path.Join("previews", ownerSegment(ownerID), name+".png"), nil
}

func ownerSegment(ownerID string) string {
	sum := sha256.Sum256([]byte(ownerID))
	return hex.EncodeToString(sum[:])
}

// keySegment flattens separators and rejects traversal.
func keySegment(raw string) (string, error) {
	if strings.Contains(raw, "..") {
		return "", ErrInvalidKey
	}
	s := strings.TrimSpace(raw)
	s = strings.NewReplacer("/", "_", "\\", "_").Replace(s)
	if s == "" {
		return "", ErrInvalidKey
	}
	return s, nil
}
