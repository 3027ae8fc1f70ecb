// Package store persists poster records and their image assets.
package store

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/po-you/poyou/internal/models"
)

// Store defines poster persistence operations. Backends are interchangeable;
// identifiers are opaque strings whose shape is backend-determined.
type Store interface {
	// Create validates required fields (title, image), writes the image asset,
	// and persists the record. A failed record write rolls back the asset.
	Create(ctx context.Context, in *models.PosterInput, image []byte, imageExt string) (*models.Poster, error)
	// List returns posters matching the filter, ordered per q.Order.
	List(ctx context.Context, q *models.ListQuery) ([]*models.Poster, error)
	// Get returns the poster with the given id, or ErrNotFound.
	Get(ctx context.Context, id string) (*models.Poster, error)
	// Delete removes the record and best-effort removes its asset. Returns
	// ErrNotFound for unknown ids, including repeated deletes.
	Delete(ctx context.Context, id string) error
	// Count returns the number of stored posters.
	Count(ctx context.Context) (int64, error)
	Close() error
}

// imageExts are the accepted image asset extensions.
var imageExts = []string{".png", ".jpg", ".jpeg", ".webp"}

// NormalizeImageExt lower-cases ext, ensures a leading dot, and validates it
// against the accepted image types.
func NormalizeImageExt(ext string) (string, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	for _, e := range imageExts {
		if ext == e {
			return ext, nil
		}
	}
	return "", &ValidationError{Field: "image", Reason: fmt.Sprintf("unsupported image type %q", ext)}
}

// validateInput checks the required fields for creation.
func validateInput(in *models.PosterInput, image []byte) error {
	if in == nil || strings.TrimSpace(in.Title) == "" {
		return &ValidationError{Field: "title", Reason: "title is required"}
	}
	if len(image) == 0 {
		return &ValidationError{Field: "image", Reason: "image is required"}
	}
	return nil
}

// ReadImage reads the poster's image asset. A dangling image reference is a
// recoverable StorageError, not a crash.
func ReadImage(p *models.Poster) ([]byte, error) {
	data, err := os.ReadFile(p.ImagePath)
	if err != nil {
		return nil, &StorageError{Op: "read image", Err: err}
	}
	return data, nil
}
