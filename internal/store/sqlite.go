package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/i474232898/route-weather/internal/auth"
	"github.com/i474232898/route-weather/internal/common"
	"github.com/i474232898/route-weather/internal/history"
)

const sqliteTimeLayout = "2006-01-02 15:04:05"

// SQLiteStore keeps users and search history in a SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (or creates) the database at path and ensures the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite serialises writers; a single connection also keeps ":memory:" shared.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.CreateTables(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// CreateTables creates the users and routes tables if missing.
func (s *SQLiteStore) CreateTables(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT UNIQUE NOT NULL,
			password_hash BLOB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS routes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			start_place TEXT NOT NULL,
			end_place TEXT NOT NULL,
			distance_km REAL NOT NULL,
			search_date TEXT NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_routes_user_id ON routes(user_id, id DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create sqlite schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) InsertUser(ctx context.Context, username string, passwordHash []byte) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash) VALUES (?, ?)`, username, passwordHash)
	if err != nil {
		if common.HasAny(err.Error(), "UNIQUE constraint failed") {
			return 0, auth.ErrUsernameTaken
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) UserByName(ctx context.Context, username string) (auth.User, error) {
	var u auth.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash FROM users WHERE username = ?`, username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.User{}, auth.ErrUserNotFound
	}
	if err != nil {
		return auth.User{}, fmt.Errorf("select user: %w", err)
	}
	return u, nil
}

func (s *SQLiteStore) Append(ctx context.Context, rec history.Record) error {
	created := rec.CreatedAt
	if created.IsZero() {
		created = s.now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO routes (user_id, start_place, end_place, distance_km, search_date)
		VALUES (?, ?, ?, ?, ?)
	`, rec.UserID, rec.StartPlace, rec.EndPlace, rec.DistanceKm, created.UTC().Format(sqliteTimeLayout))
	if err != nil {
		return fmt.Errorf("insert search record: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListFor(ctx context.Context, userID int64, limit int) ([]history.Record, error) {
	if limit <= 0 {
		limit = -1 // sqlite: no limit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, start_place, end_place, distance_km, search_date
		FROM routes WHERE user_id = ? ORDER BY id DESC LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("select search records: %w", err)
	}
	defer rows.Close()

	records := []history.Record{}
	for rows.Next() {
		rec, err := scanSQLiteRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) Get(ctx context.Context, userID, id int64) (history.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, start_place, end_place, distance_km, search_date
		FROM routes WHERE user_id = ? AND id = ?
	`, userID, id)

	rec, err := scanSQLiteRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return history.Record{}, history.ErrNotFound
	}
	return rec, err
}

// Ping checks the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteRecord(row rowScanner) (history.Record, error) {
	var (
		rec     history.Record
		created string
	)
	if err := row.Scan(&rec.ID, &rec.UserID, &rec.StartPlace, &rec.EndPlace, &rec.DistanceKm, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return history.Record{}, err
		}
		return history.Record{}, fmt.Errorf("scan search record: %w", err)
	}

	ts, err := time.ParseInLocation(sqliteTimeLayout, created, time.UTC)
	if err != nil {
		return history.Record{}, fmt.Errorf("parse search_date %q: %w", created, err)
	}
	rec.CreatedAt = ts
	return rec, nil
}
