package history

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a record does not exist for the user.
var ErrNotFound = errors.New("search record not found")

// Record is one persisted search. Records are append-only.
type Record struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"userId"`
	StartPlace string    `json:"startPlace"`
	EndPlace   string    `json:"endPlace"`
	DistanceKm float64   `json:"distanceKm"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Store persists and lists search records keyed by user.
type Store interface {
	// Append writes a new record. ID and CreatedAt are assigned by the store
	// when zero.
	Append(ctx context.Context, rec Record) error
	// ListFor returns the user's records, most recent first. limit <= 0 means all.
	ListFor(ctx context.Context, userID int64, limit int) ([]Record, error)
	// Get returns one of the user's records.
	Get(ctx context.Context, userID, id int64) (Record, error)
}
