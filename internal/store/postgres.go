package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/i474232898/route-weather/internal/auth"
	"github.com/i474232898/route-weather/internal/history"
)

// PostgresStore keeps users and search history in PostgreSQL.
type PostgresStore struct {
	Pool *pgxpool.Pool
}

// OpenPostgres creates a connection pool, pings it and ensures the schema.
func OpenPostgres(ctx context.Context, dsn string, maxConns int32) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	s := &PostgresStore{Pool: pool}
	if err := s.CreateTables(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// CreateTables creates the users and search_records tables if missing.
func (s *PostgresStore) CreateTables(ctx context.Context) error {
	_, err := s.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			password_hash BYTEA NOT NULL
		);
		CREATE TABLE IF NOT EXISTS search_records (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id),
			start_place TEXT NOT NULL,
			end_place TEXT NOT NULL,
			distance_km DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS idx_search_records_user ON search_records(user_id, id DESC);
	`)
	if err != nil {
		return fmt.Errorf("create postgres schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) InsertUser(ctx context.Context, username string, passwordHash []byte) (int64, error) {
	var id int64
	err := s.Pool.QueryRow(ctx,
		`INSERT INTO users (username, password_hash) VALUES ($1, $2) RETURNING id`,
		username, passwordHash,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, auth.ErrUsernameTaken
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) UserByName(ctx context.Context, username string) (auth.User, error) {
	var u auth.User
	err := s.Pool.QueryRow(ctx,
		`SELECT id, username, password_hash FROM users WHERE username = $1`, username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return auth.User{}, auth.ErrUserNotFound
	}
	if err != nil {
		return auth.User{}, fmt.Errorf("select user: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) Append(ctx context.Context, rec history.Record) error {
	var err error
	if rec.CreatedAt.IsZero() {
		_, err = s.Pool.Exec(ctx, `
			INSERT INTO search_records (user_id, start_place, end_place, distance_km)
			VALUES ($1, $2, $3, $4)
		`, rec.UserID, rec.StartPlace, rec.EndPlace, rec.DistanceKm)
	} else {
		_, err = s.Pool.Exec(ctx, `
			INSERT INTO search_records (user_id, start_place, end_place, distance_km, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, rec.UserID, rec.StartPlace, rec.EndPlace, rec.DistanceKm, rec.CreatedAt)
	}
	if err != nil {
		return fmt.Errorf("insert search record: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListFor(ctx context.Context, userID int64, limit int) ([]history.Record, error) {
	query := `
		SELECT id, user_id, start_place, end_place, distance_km, created_at
		FROM search_records WHERE user_id = $1 ORDER BY id DESC`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select search records: %w", err)
	}
	defer rows.Close()

	records := []history.Record{}
	for rows.Next() {
		var rec history.Record
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.StartPlace, &rec.EndPlace, &rec.DistanceKm, &rec.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *PostgresStore) Get(ctx context.Context, userID, id int64) (history.Record, error) {
	var rec history.Record
	err := s.Pool.QueryRow(ctx, `
		SELECT id, user_id, start_place, end_place, distance_km, created_at
		FROM search_records WHERE user_id = $1 AND id = $2
	`, userID, id).Scan(&rec.ID, &rec.UserID, &rec.StartPlace, &rec.EndPlace, &rec.DistanceKm, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return history.Record{}, history.ErrNotFound
	}
	if err != nil {
		return history.Record{}, fmt.Errorf("select search record: %w", err)
	}
	return rec, nil
}

// Ping checks the pool is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

// Close releases pool resources.
func (s *PostgresStore) Close() {
	s.Pool.Close()
}
