package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/po-you/poyou/internal/feature"
	"github.com/po-you/poyou/internal/models"
)

// SQLiteStore implements Store over a single posters table. Image assets live
// under assetDir with collision-resistant random filenames.
type SQLiteStore struct {
	db       *sql.DB
	assetDir string
	logger   *zap.Logger
}

// NewSQLiteStore opens or creates the database at dbPath and initializes the
// schema. Parent directories and assetDir are created if missing.
func NewSQLiteStore(dbPath, assetDir string, logger *zap.Logger) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	if err := os.MkdirAll(assetDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create asset directory: %w", err)
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteStore{db: db, assetDir: assetDir, logger: logger}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS posters (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		description TEXT DEFAULT "",
		tags TEXT DEFAULT "",
		metadata TEXT DEFAULT "",
		image_path TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_posters_created_at ON posters(created_at);
	`
	_, err := db.Exec(schema)
	return err
}

// Create writes the image asset first, then inserts the row. The asset is
// removed if the insert fails so no record points at a missing image.
func (s *SQLiteStore) Create(ctx context.Context, in *models.PosterInput, image []byte, imageExt string) (*models.Poster, error) {
	if err := validateInput(in, image); err != nil {
		return nil, err
	}
	ext, err := NormalizeImageExt(imageExt)
	if err != nil {
		return nil, err
	}

	imagePath := filepath.Join(s.assetDir, uuid.New().String()+ext)
	if err := os.WriteFile(imagePath, image, 0644); err != nil {
		return nil, &StorageError{Op: "write image", Err: err}
	}

	metadata, err := json.Marshal(in)
	if err != nil {
		_ = os.Remove(imagePath)
		return nil, &StorageError{Op: "marshal metadata", Err: err}
	}

	created := time.Now().UTC().Truncate(time.Second)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO posters (title, description, tags, metadata, image_path, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		in.Title, in.Description, feature.BuildTagString(in), string(metadata),
		imagePath, created.Format(time.RFC3339),
	)
	if err != nil {
		_ = os.Remove(imagePath)
		return nil, &StorageError{Op: "insert poster", Err: err}
	}
	rowID, err := res.LastInsertId()
	if err != nil {
		_ = os.Remove(imagePath)
		return nil, &StorageError{Op: "insert poster", Err: err}
	}

	return &models.Poster{
		PosterInput: *in,
		ID:          strconv.FormatInt(rowID, 10),
		ImagePath:   imagePath,
		CreatedAt:   created,
	}, nil
}

// List returns posters matching the filter. Keyword and tag use LIKE
// substring semantics against title/description/tags, as the UI expects.
func (s *SQLiteStore) List(ctx context.Context, q *models.ListQuery) ([]*models.Poster, error) {
	if q == nil {
		q = &models.ListQuery{}
	}
	query := `SELECT id, title, description, metadata, image_path, created_at FROM posters`
	var (
		where []string
		args  []interface{}
	)
	if q.Keyword != "" {
		where = append(where, "(title LIKE ? OR description LIKE ? OR tags LIKE ?)")
		like := "%" + q.Keyword + "%"
		args = append(args, like, like, like)
	}
	if q.Tag != "" {
		where = append(where, "tags LIKE ?")
		args = append(args, "%"+q.Tag+"%")
	}
	for i, w := range where {
		if i == 0 {
			query += " WHERE " + w
		} else {
			query += " AND " + w
		}
	}
	if q.Order == models.OrderTitle {
		query += " ORDER BY title COLLATE NOCASE ASC"
	} else {
		query += " ORDER BY datetime(created_at) DESC, id DESC"
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &StorageError{Op: "list posters", Err: err}
	}
	defer rows.Close()

	var posters []*models.Poster
	for rows.Next() {
		p, err := scanPoster(rows)
		if err != nil {
			return nil, err
		}
		posters = append(posters, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "list posters", Err: err}
	}
	return posters, nil
}

// Get returns the poster with the given id, or ErrNotFound.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*models.Poster, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, description, metadata, image_path, created_at
		 FROM posters WHERE id = ?`, id)
	p, err := scanPoster(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return p, err
}

// Delete removes the record and best-effort removes the asset. Asset removal
// failure is logged, never fatal; a second delete returns ErrNotFound.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	var imagePath string
	err := s.db.QueryRowContext(ctx, `SELECT image_path FROM posters WHERE id = ?`, id).Scan(&imagePath)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return &StorageError{Op: "delete poster", Err: err}
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM posters WHERE id = ?`, id); err != nil {
		return &StorageError{Op: "delete poster", Err: err}
	}
	if err := os.Remove(imagePath); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("failed to remove poster image", zap.String("path", imagePath), zap.Error(err))
	}
	return nil
}

// Count returns the total number of posters.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posters`).Scan(&n)
	return n, err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPoster(row rowScanner) (*models.Poster, error) {
	var (
		rowID                               int64
		title, desc, metadata, imagePath, createdAt string
	)
	if err := row.Scan(&rowID, &title, &desc, &metadata, &imagePath, &createdAt); err != nil {
		return nil, err
	}
	var in models.PosterInput
	if metadata != "" {
		if err := json.Unmarshal([]byte(metadata), &in); err != nil {
			return nil, &StorageError{Op: "unmarshal metadata", Err: err}
		}
	}
	in.Title = title
	in.Description = desc
	created, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, &StorageError{Op: "parse created_at", Err: err}
	}
	return &models.Poster{
		PosterInput: in,
		ID:          strconv.FormatInt(rowID, 10),
		ImagePath:   imagePath,
		CreatedAt:   created,
	}, nil
}
