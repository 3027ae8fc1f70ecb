package store

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/po-you/poyou/internal/feature"
	"github.com/po-you/poyou/internal/models"
)

// DiskStore implements Store as a directory of JSON metadata files grouped
// into category-named subdirectories. Each record is one JSON file plus one
// image file sharing the same base name (the record id).
//
// Known gap: the image and metadata writes are not transactional. A crash
// between the two leaves an orphaned image with no record.
type DiskStore struct {
	root   string
	logger *zap.Logger
}

// diskRecord is the on-disk metadata shape. Reads tolerate a UTF-8 BOM.
type diskRecord struct {
	models.PosterInput
	CreatedAt string `json:"created_at"`
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// NewDiskStore creates a filesystem store rooted at root.
func NewDiskStore(root string, logger *zap.Logger) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &DiskStore{root: root, logger: logger}, nil
}

// newID returns a timestamp id with a random suffix, unique enough for
// single-writer usage and sortable by creation time.
func newID(now time.Time) string {
	suffix := make([]byte, 3)
	_, _ = rand.Read(suffix)
	return now.Format("20060102150405") + "-" + hex.EncodeToString(suffix)
}

// categoryDir returns the bucket directory for a record's category.
func (s *DiskStore) categoryDir(c models.Category) string {
	if !c.Valid() {
		c = models.CategoryOther
	}
	return filepath.Join(s.root, string(c))
}

// Create buckets the record into its category directory, writing the image
// first and the metadata second. A failed metadata write unlinks the image.
func (s *DiskStore) Create(ctx context.Context, in *models.PosterInput, image []byte, imageExt string) (*models.Poster, error) {
	if err := validateInput(in, image); err != nil {
		return nil, err
	}
	ext, err := NormalizeImageExt(imageExt)
	if err != nil {
		return nil, err
	}

	dir := s.categoryDir(in.Category)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &StorageError{Op: "create category directory", Err: err}
	}

	created := time.Now().UTC().Truncate(time.Second)
	id := newID(created)
	imagePath := filepath.Join(dir, id+ext)
	metaPath := filepath.Join(dir, id+".json")

	if err := os.WriteFile(imagePath, image, 0644); err != nil {
		return nil, &StorageError{Op: "write image", Err: err}
	}
	data, err := json.MarshalIndent(diskRecord{
		PosterInput: *in,
		CreatedAt:   created.Format(time.RFC3339),
	}, "", "  ")
	if err != nil {
		_ = os.Remove(imagePath)
		return nil, &StorageError{Op: "marshal metadata", Err: err}
	}
	if err := os.WriteFile(metaPath, data, 0644); err != nil {
		_ = os.Remove(imagePath)
		return nil, &StorageError{Op: "write metadata", Err: err}
	}

	return &models.Poster{
		PosterInput: *in,
		ID:          id,
		ImagePath:   imagePath,
		CreatedAt:   created,
	}, nil
}

// List walks all category directories and returns matching posters.
// Unparsable metadata files are skipped with a logged error.
func (s *DiskStore) List(ctx context.Context, q *models.ListQuery) ([]*models.Poster, error) {
	if q == nil {
		q = &models.ListQuery{}
	}
	var posters []*models.Poster
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}
		p, err := s.readRecord(path)
		if err != nil {
			s.logger.Warn("skipping unreadable poster metadata", zap.String("path", path), zap.Error(err))
			return nil
		}
		if matchesList(p, q) {
			posters = append(posters, p)
		}
		return nil
	})
	if err != nil {
		return nil, &StorageError{Op: "list posters", Err: err}
	}

	if q.Order == models.OrderTitle {
		sort.SliceStable(posters, func(i, j int) bool {
			return strings.ToLower(posters[i].Title) < strings.ToLower(posters[j].Title)
		})
	} else {
		sort.SliceStable(posters, func(i, j int) bool {
			return posters[i].CreatedAt.After(posters[j].CreatedAt)
		})
	}
	return posters, nil
}

func matchesList(p *models.Poster, q *models.ListQuery) bool {
	tags := feature.BuildTagString(&p.PosterInput)
	if q.Keyword != "" {
		kw := strings.ToLower(q.Keyword)
		if !strings.Contains(strings.ToLower(p.Title), kw) &&
			!strings.Contains(strings.ToLower(p.Description), kw) &&
			!strings.Contains(tags, kw) {
			return false
		}
	}
	if q.Tag != "" && !strings.Contains(tags, strings.ToLower(q.Tag)) {
		return false
	}
	return true
}

// metaPath locates the metadata file for id by checking each category
// directory for the exact base name. Ids are opaque file base names; an id
// carrying a path separator cannot name a record and reads as not found.
func (s *DiskStore) metaPath(id string) (string, error) {
	if id == "" || id == "." || id == ".." || id != filepath.Base(id) {
		return "", ErrNotFound
	}
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return "", &StorageError{Op: "scan data directory", Err: err}
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		candidate := filepath.Join(s.root, e.Name(), id+".json")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", ErrNotFound
}

// Get finds the record by id across all category directories.
func (s *DiskStore) Get(ctx context.Context, id string) (*models.Poster, error) {
	path, err := s.metaPath(id)
	if err != nil {
		return nil, err
	}
	return s.readRecord(path)
}

// Delete removes the metadata file and, best-effort, the co-located image.
func (s *DiskStore) Delete(ctx context.Context, id string) error {
	metaPath, err := s.metaPath(id)
	if err != nil {
		return err
	}
	if err := os.Remove(metaPath); err != nil {
		return &StorageError{Op: "delete poster", Err: err}
	}
	if img := s.findImage(metaPath, id); img != "" {
		if err := os.Remove(img); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("failed to remove poster image", zap.String("path", img), zap.Error(err))
		}
	}
	return nil
}

// Count returns the number of metadata files under the root.
func (s *DiskStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".json") {
			n++
		}
		return nil
	})
	return n, err
}

// Close is a no-op for DiskStore.
func (s *DiskStore) Close() error { return nil }

// Root returns the data directory, for watch wiring.
func (s *DiskStore) Root() string { return s.root }

func (s *DiskStore) readRecord(metaPath string) (*models.Poster, error) {
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, &StorageError{Op: "read metadata", Err: err}
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	var rec diskRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, &StorageError{Op: "unmarshal metadata", Err: err}
	}
	created, err := time.Parse(time.RFC3339, rec.CreatedAt)
	if err != nil {
		// Tolerate records written without a timestamp; fall back to mtime.
		if info, statErr := os.Stat(metaPath); statErr == nil {
			created = info.ModTime().UTC()
		}
	}
	id := strings.TrimSuffix(filepath.Base(metaPath), ".json")
	return &models.Poster{
		PosterInput: rec.PosterInput,
		ID:          id,
		ImagePath:   s.findImage(metaPath, id),
		CreatedAt:   created,
	}, nil
}

// findImage probes the accepted extensions next to the metadata file. An
// empty result is a dangling reference the caller treats as recoverable.
func (s *DiskStore) findImage(metaPath, id string) string {
	dir := filepath.Dir(metaPath)
	for _, ext := range imageExts {
		candidate := filepath.Join(dir, id+ext)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}
