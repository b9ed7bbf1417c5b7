package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bunchhieng/uuidspace/internal/model"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sqlx.DB
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	memory := dbPath == ":memory:"
	if !memory {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	var dsn string
	if memory {
		dsn = dbPath + "?_pragma=journal_mode(DELETE)&_pragma=synchronous(NORMAL)"
	} else {
		dsn = dbPath + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if memory {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(context.Background(), db.DB); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

type favoriteRow struct {
	Identifier string         `db:"identifier"`
	Format     string         `db:"format"`
	Index      sql.NullString `db:"idx"`
	Note       sql.NullString `db:"note"`
	CreatedAt  string         `db:"created_at"`
}

func (r *favoriteRow) toFavorite() *model.Favorite {
	fav := &model.Favorite{
		Identifier: r.Identifier,
		Format:     r.Format,
		CreatedAt:  parseSQLiteTime(r.CreatedAt),
	}
	if r.Index.Valid {
		fav.Index = r.Index.String
	}
	if r.Note.Valid {
		fav.Note = r.Note.String
	}
	return fav
}

const selectFavorites = "SELECT identifier, format, idx, note, created_at FROM favorites"

func normalize(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Add stars an identifier.
func (s *SQLiteStorage) Add(ctx context.Context, fav *model.Favorite) (*model.Favorite, error) {
	if err := fav.Validate(); err != nil {
		return nil, err
	}
	identifier := normalize(fav.Identifier)

	has, err := s.Has(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if has {
		return nil, model.ErrDuplicate
	}

	createdAt := fav.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	createdAtStr := createdAt.UTC().Format(time.RFC3339)

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO favorites (identifier, format, idx, note, created_at) VALUES (?, ?, ?, ?, ?)",
		identifier, fav.Format, nullString(fav.Index), nullString(fav.Note), createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("insert favorite: %w", err)
	}

	return &model.Favorite{
		Identifier: identifier,
		Format:     fav.Format,
		Index:      fav.Index,
		Note:       fav.Note,
		CreatedAt:  parseSQLiteTime(createdAtStr),
	}, nil
}

// Get retrieves a favorite by identifier.
func (s *SQLiteStorage) Get(ctx context.Context, identifier string) (*model.Favorite, error) {
	var row favoriteRow
	err := s.db.GetContext(ctx, &row, selectFavorites+" WHERE identifier = ?", normalize(identifier))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get favorite: %w", err)
	}
	return row.toFavorite(), nil
}

// Has reports whether identifier is starred.
func (s *SQLiteStorage) Has(ctx context.Context, identifier string) (bool, error) {
	var n int
	err := s.db.GetContext(ctx, &n, "SELECT COUNT(1) FROM favorites WHERE identifier = ?", normalize(identifier))
	if err != nil {
		return false, fmt.Errorf("check favorite: %w", err)
	}
	return n > 0, nil
}

// List retrieves favorites with optional filters.
func (s *SQLiteStorage) List(ctx context.Context, opts ListOptions) ([]*model.Favorite, error) {
	query := selectFavorites + " WHERE 1=1"
	args := []interface{}{}

	if opts.Format != "" {
		query += " AND format = ?"
		args = append(args, opts.Format)
	}

	query += " ORDER BY created_at DESC, identifier"

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	var rows []favoriteRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}

	favs := make([]*model.Favorite, len(rows))
	for i := range rows {
		favs[i] = rows[i].toFavorite()
	}
	return favs, nil
}

// Remove unstars an identifier.
func (s *SQLiteStorage) Remove(ctx context.Context, identifier string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM favorites WHERE identifier = ?", normalize(identifier))
	if err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	return checkRowsAffected(result)
}

func checkRowsAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

// Export returns all favorites for export.
func (s *SQLiteStorage) Export(ctx context.Context) ([]*model.Favorite, error) {
	return s.List(ctx, ListOptions{})
}

// Import adds favorites that are not yet starred and fills in missing
// notes on the ones that are. It returns the number of new favorites.
func (s *SQLiteStorage) Import(ctx context.Context, favs []*model.Favorite) (int, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	added := 0
	for _, fav := range favs {
		if err := fav.Validate(); err != nil {
			return 0, fmt.Errorf("import %s: %w", fav.Identifier, err)
		}
		identifier := normalize(fav.Identifier)

		var existing favoriteRow
		err := tx.GetContext(ctx, &existing, selectFavorites+" WHERE identifier = ?", identifier)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			createdAt := fav.CreatedAt
			if createdAt.IsZero() {
				createdAt = time.Now()
			}
			_, err = tx.ExecContext(ctx,
				"INSERT INTO favorites (identifier, format, idx, note, created_at) VALUES (?, ?, ?, ?, ?)",
				identifier, fav.Format, nullString(fav.Index), nullString(fav.Note), createdAt.UTC().Format(time.RFC3339))
			if err != nil {
				return 0, fmt.Errorf("insert favorite %s: %w", identifier, err)
			}
			added++
		case err != nil:
			return 0, fmt.Errorf("check existing favorite %s: %w", identifier, err)
		case !existing.Note.Valid && fav.Note != "":
			_, err = tx.ExecContext(ctx, "UPDATE favorites SET note = ? WHERE identifier = ?", fav.Note, identifier)
			if err != nil {
				return 0, fmt.Errorf("update favorite %s: %w", identifier, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return added, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func parseSQLiteTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t
	}
	return time.Time{}
}
