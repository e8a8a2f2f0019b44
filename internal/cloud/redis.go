package cloud

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisOptions configures a RedisStore
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// RedisStore keeps each identity's document in a hash at users:<identity>
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects and pings the server
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}
	return &RedisStore{client: client}, nil
}

func documentKey(identity string) string {
	return "users:" + identity
}

func (s *RedisStore) Fetch(ctx context.Context, identity string) (*Snapshot, error) {
	fields, err := s.client.HGetAll(ctx, documentKey(identity)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch document: %w", err)
	}
	stamp, ok := fields[FieldUpdatedAt]
	if !ok {
		return nil, nil
	}
	updatedAt, err := parseTime(stamp)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", FieldUpdatedAt, stamp, err)
	}
	snap := &Snapshot{UpdatedAt: updatedAt}
	if v, ok := fields[FieldEngineBlob]; ok {
		snap.Engine = []byte(v)
	}
	if v, ok := fields[FieldSessionBlob]; ok {
		snap.Session = []byte(v)
	}
	return snap, nil
}

func (s *RedisStore) Push(ctx context.Context, identity string, snap Snapshot) error {
	values := map[string]interface{}{FieldUpdatedAt: formatTime(snap.UpdatedAt)}
	if snap.Engine != nil {
		values[FieldEngineBlob] = snap.Engine
	}
	if snap.Session != nil {
		values[FieldSessionBlob] = snap.Session
	}
	if err := s.client.HSet(ctx, documentKey(identity), values).Err(); err != nil {
		return fmt.Errorf("failed to push document: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, identity string) error {
	if err := s.client.HDel(ctx, documentKey(identity), progressFields...).Err(); err != nil {
		return fmt.Errorf("failed to clear document: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
