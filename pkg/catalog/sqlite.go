package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/matzehuels/lightbox/pkg/errors"
)

// SQLitePrefix marks a catalog reference as a SQLite database path.
const SQLitePrefix = "sqlite://"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS images (
	position  INTEGER NOT NULL,
	id        TEXT NOT NULL,
	url       TEXT NOT NULL,
	thumbnail TEXT NOT NULL DEFAULT '',
	date      TEXT NOT NULL DEFAULT '',
	width     REAL NOT NULL,
	height    REAL NOT NULL,
	tiers     TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_images_position ON images(position, id);
`

// SQLite serves images from a local SQLite database, ordered by position
// then id like [Mongo]. Tiers are stored as a JSON column.
type SQLite struct {
	db   *sql.DB
	path string
}

// IsSQLiteRef reports whether ref names a SQLite catalog, either with the
// sqlite:// prefix or a .db, .sqlite or .sqlite3 extension.
func IsSQLiteRef(ref string) bool {
	if strings.HasPrefix(ref, SQLitePrefix) {
		return true
	}
	switch strings.ToLower(filepath.Ext(ref)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}

// OpenSQLite opens or creates the database at path and ensures the schema.
func OpenSQLite(path string) (*SQLite, error) {
	path = strings.TrimPrefix(path, SQLitePrefix)
	if path == "" {
		return nil, errors.New(errors.ErrCodeInvalidPath, "sqlite path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", dir)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "open %s", path)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init schema in %s", path)
	}
	return &SQLite{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *SQLite) Path() string { return s.path }

// FetchPage implements [Source]. Failures are reported as FETCH_FAILED.
func (s *SQLite) FetchPage(ctx context.Context, offset, count int) (Page, error) {
	if offset < 0 || count < 0 {
		return Page{}, errors.New(errors.ErrCodeInvalidInput, "invalid page offset=%d count=%d", offset, count)
	}
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM images`).Scan(&total); err != nil {
		return Page{}, errors.Wrap(errors.ErrCodeFetchFailed, err, "count catalog rows")
	}
	if count == 0 || offset >= total {
		return Page{Total: total}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, url, thumbnail, date, width, height, tiers
		FROM images
		ORDER BY position, id
		LIMIT ? OFFSET ?`, count, offset)
	if err != nil {
		return Page{}, errors.Wrap(errors.ErrCodeFetchFailed, err, "query catalog page at offset %d", offset)
	}
	defer rows.Close()

	images := make([]*Image, 0, count)
	for rows.Next() {
		var (
			img   Image
			tiers string
		)
		if err := rows.Scan(&img.ID, &img.URL, &img.Thumbnail, &img.Date, &img.Width, &img.Height, &tiers); err != nil {
			return Page{}, errors.Wrap(errors.ErrCodeFetchFailed, err, "scan catalog row")
		}
		if tiers != "" {
			if err := json.Unmarshal([]byte(tiers), &img.Tiers); err != nil {
				return Page{}, errors.Wrap(errors.ErrCodeFetchFailed, err, "decode tiers of %q", img.ID)
			}
		}
		if img.ID == "" {
			img.ID = img.URL
		}
		images = append(images, &img)
	}
	if err := rows.Err(); err != nil {
		return Page{}, errors.Wrap(errors.ErrCodeFetchFailed, err, "iterate catalog page")
	}
	return Page{Images: images, Total: total}, nil
}

// Insert stores images with consecutive positions starting at start, in a
// single transaction.
func (s *SQLite) Insert(ctx context.Context, start int, images []*Image) error {
	if len(images) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "begin insert")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO images (position, id, url, thumbnail, date, width, height, tiers)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "prepare insert")
	}
	defer stmt.Close()

	for i, img := range images {
		var tiers []byte
		if len(img.Tiers) > 0 {
			if tiers, err = json.Marshal(img.Tiers); err != nil {
				return errors.Wrap(errors.ErrCodeInternal, err, "encode tiers of %q", img.ID)
			}
		}
		if _, err := stmt.ExecContext(ctx, start+i, img.ID, img.URL, img.Thumbnail, img.Date, img.Width, img.Height, string(tiers)); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "insert %q", img.ID)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "commit %d images", len(images))
	}
	return nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

var _ Source = (*SQLite)(nil)
