package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned for unknown or expired tokens.
var ErrNotFound = errors.New("session not found")

// DefaultTTL is how long a login token stays valid.
const DefaultTTL = 24 * time.Hour

// Store maps opaque bearer tokens to user ids.
type Store interface {
	Create(ctx context.Context, userID int64) (string, error)
	Resolve(ctx context.Context, token string) (int64, error)
	Delete(ctx context.Context, token string) error
}
