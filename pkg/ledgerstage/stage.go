package ledgerstage

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/kassabot/raffle-backend/internal/models"
)

// Store stages uploaded ledger files in Redis between upload and wizard
// commit. Entries expire after the TTL so abandoned uploads clean
// themselves up.
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewStore creates a Store around an existing Redis client
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{
		client: client,
		prefix: "ledgerstage:",
		ttl:    ttl,
	}
}

// Connect dials Redis and verifies the connection
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// Put stages raw file bytes under a fresh key and returns the key
func (s *Store) Put(ctx context.Context, data []byte) (string, error) {
	key := uuid.NewString()
	if err := s.client.Set(ctx, s.prefix+key, data, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("stage ledger: %w", err)
	}
	return key, nil
}

// Get retrieves staged bytes; an expired or unknown key is models.ErrNotFound
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err == redis.Nil {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch staged ledger: %w", err)
	}
	return data, nil
}

// Delete removes a staged file after commit or cancellation
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}
