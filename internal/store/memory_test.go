package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/route-weather/internal/auth"
	"github.com/i474232898/route-weather/internal/history"
)

func TestMemoryStore_Users(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)

	id, err := s.InsertUser(ctx, "alice", []byte("hash"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	_, err = s.InsertUser(ctx, "alice", []byte("other"))
	assert.ErrorIs(t, err, auth.ErrUsernameTaken)

	u, err := s.UserByName(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, []byte("hash"), u.PasswordHash)

	_, err = s.UserByName(ctx, "bob")
	assert.ErrorIs(t, err, auth.ErrUserNotFound)
}

func TestMemoryStore_ListMostRecentFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)
	fixed := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	for _, end := range []string{"Osaka", "Kyoto", "Nagoya"} {
		require.NoError(t, s.Append(ctx, history.Record{UserID: 1, StartPlace: "Tokyo", EndPlace: end, DistanceKm: 10}))
	}
	require.NoError(t, s.Append(ctx, history.Record{UserID: 2, StartPlace: "Sapporo", EndPlace: "Otaru"}))

	list, err := s.ListFor(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Nagoya", list[0].EndPlace)
	assert.Equal(t, "Osaka", list[2].EndPlace)
	assert.Equal(t, fixed, list[0].CreatedAt)

	limited, err := s.ListFor(ctx, 1, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	empty, err := s.ListFor(ctx, 99, 0)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryStore_Retention(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(2)

	for _, end := range []string{"A", "B", "C"} {
		require.NoError(t, s.Append(ctx, history.Record{UserID: 1, StartPlace: "X", EndPlace: end}))
	}

	list, err := s.ListFor(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "C", list[0].EndPlace)
	assert.Equal(t, "B", list[1].EndPlace)
}

func TestMemoryStore_Get(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)
	require.NoError(t, s.Append(ctx, history.Record{UserID: 1, StartPlace: "Tokyo", EndPlace: "Osaka"}))

	rec, err := s.Get(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, "Osaka", rec.EndPlace)

	_, err = s.Get(ctx, 2, 1)
	assert.ErrorIs(t, err, history.ErrNotFound, "records are scoped to their owner")
}
