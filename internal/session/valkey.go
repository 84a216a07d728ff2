package session

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/valkey-io/valkey-go"
)

// ValkeyStore keeps sessions in Valkey (Redis-compatible) with a server-side TTL.
type ValkeyStore struct {
	client valkey.Client
	ttl    time.Duration
	prefix string
}

// NewValkeyStore connects to addr. ttl <= 0 uses DefaultTTL.
func NewValkeyStore(addr string, ttl time.Duration) (*ValkeyStore, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ValkeyStore{client: client, ttl: ttl, prefix: "routeweather:session:"}, nil
}

func (s *ValkeyStore) Create(ctx context.Context, userID int64) (string, error) {
	token := uuid.NewString()
	cmd := s.client.Do(ctx,
		s.client.B().Set().Key(s.prefix+token).Value(strconv.FormatInt(userID, 10)).Ex(s.ttl).Build(),
	)
	if err := cmd.Error(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return token, nil
}

func (s *ValkeyStore) Resolve(ctx context.Context, token string) (int64, error) {
	id, err := s.client.Do(ctx, s.client.B().Get().Key(s.prefix+token).Build()).AsInt64()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("resolve session: %w", err)
	}
	return id, nil
}

func (s *ValkeyStore) Delete(ctx context.Context, token string) error {
	return s.client.Do(ctx, s.client.B().Del().Key(s.prefix+token).Build()).Error()
}

// Ping checks connectivity.
func (s *ValkeyStore) Ping(ctx context.Context) error {
	return s.client.Do(ctx, s.client.B().Ping().Build()).Error()
}

// Close releases the client.
func (s *ValkeyStore) Close() {
	s.client.Close()
}
