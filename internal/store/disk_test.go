package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/po-you/poyou/internal/models"
)

func newDiskStore(t *testing.T) *DiskStore {
	t.Helper()
	st, err := NewDiskStore(filepath.Join(t.TempDir(), "posters"), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	return st
}

func TestDiskStore_CategoryBucketing(t *testing.T) {
	st := newDiskStore(t)
	ctx := context.Background()

	created, err := st.Create(ctx, samplePoster(), fakePNG, ".png")
	if err != nil {
		t.Fatal(err)
	}
	wantDir := filepath.Join(st.Root(), "Contest")
	if filepath.Dir(created.ImagePath) != wantDir {
		t.Errorf("image not bucketed by category: %s", created.ImagePath)
	}
	if _, err := os.Stat(filepath.Join(wantDir, created.ID+".json")); err != nil {
		t.Errorf("metadata not co-located: %v", err)
	}

	// Unknown category falls back to the Other bucket.
	other, err := st.Create(ctx, &models.PosterInput{Title: "untagged"}, fakePNG, ".png")
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Dir(other.ImagePath) != filepath.Join(st.Root(), "Other") {
		t.Errorf("uncategorized poster not in Other: %s", other.ImagePath)
	}
}

func TestDiskStore_DeleteRemovesMetadataAndImage(t *testing.T) {
	st := newDiskStore(t)
	ctx := context.Background()

	created, err := st.Create(ctx, samplePoster(), fakePNG, ".webp")
	if err != nil {
		t.Fatal(err)
	}
	if err := st.Delete(ctx, created.ID); err != nil {
		t.Fatal(err)
	}
	// Both files in the category directory are gone.
	matches, _ := filepath.Glob(filepath.Join(st.Root(), "*", created.ID+".*"))
	if len(matches) != 0 {
		t.Errorf("leftover files after delete: %v", matches)
	}
}

func TestDiskStore_IDsAreLiteral(t *testing.T) {
	st := newDiskStore(t)
	ctx := context.Background()

	a, err := st.Create(ctx, samplePoster(), fakePNG, ".png")
	if err != nil {
		t.Fatal(err)
	}
	b, err := st.Create(ctx, &models.PosterInput{Title: "second"}, fakePNG, ".jpg")
	if err != nil {
		t.Fatal(err)
	}

	// Glob metacharacters and traversal sequences are not record ids.
	for _, id := range []string{"*", "[", "..", "", "../" + a.ID, filepath.Join("Contest", a.ID)} {
		if _, err := st.Get(ctx, id); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get(%q) = %v, want ErrNotFound", id, err)
		}
		if err := st.Delete(ctx, id); !errors.Is(err, ErrNotFound) {
			t.Errorf("Delete(%q) = %v, want ErrNotFound", id, err)
		}
	}

	// Nothing was removed along the way.
	for _, p := range []*models.Poster{a, b} {
		got, err := st.Get(ctx, p.ID)
		if err != nil {
			t.Fatalf("poster %s lost: %v", p.ID, err)
		}
		if _, err := os.Stat(got.ImagePath); err != nil {
			t.Errorf("image asset for %s lost: %v", p.ID, err)
		}
	}
}

func TestDiskStore_ReadsMetadataWithBOM(t *testing.T) {
	st := newDiskStore(t)
	dir := filepath.Join(st.Root(), "Event")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	meta := append([]byte{0xEF, 0xBB, 0xBF}, []byte(`{
		"title": "Spring Festival",
		"category": "Event",
		"created_at": "2025-04-01T09:00:00Z"
	}`)...)
	if err := os.WriteFile(filepath.Join(dir, "20250401090000-abc123.json"), meta, 0644); err != nil {
		t.Fatal(err)
	}

	got, err := st.Get(context.Background(), "20250401090000-abc123")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Spring Festival" {
		t.Errorf("BOM metadata not parsed: %+v", got)
	}
	if got.ImagePath != "" {
		t.Errorf("expected dangling image reference, got %q", got.ImagePath)
	}
}

func TestDiskStore_ListSkipsMalformedMetadata(t *testing.T) {
	st := newDiskStore(t)
	ctx := context.Background()
	if _, err := st.Create(ctx, samplePoster(), fakePNG, ".png"); err != nil {
		t.Fatal(err)
	}
	dir := filepath.Join(st.Root(), "Other")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := st.List(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("malformed record not skipped: got %d posters", len(got))
	}
}

func TestNewID(t *testing.T) {
	created, err := newDiskStore(t).Create(context.Background(), samplePoster(), fakePNG, ".png")
	if err != nil {
		t.Fatal(err)
	}
	parts := strings.Split(created.ID, "-")
	if len(parts) != 2 || len(parts[0]) != 14 || len(parts[1]) != 6 {
		t.Errorf("unexpected id shape: %q", created.ID)
	}
}
