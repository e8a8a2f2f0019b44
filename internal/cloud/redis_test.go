package cloud

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

// Runs against a live server when NOVEL_TEST_REDIS_ADDR is set
func TestRedisStore_Live(t *testing.T) {
	addr := os.Getenv("NOVEL_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("NOVEL_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	store, err := NewRedisStore(ctx, RedisOptions{Addr: addr})
	if err != nil {
		t.Fatalf("NewRedisStore() error = %v", err)
	}
	defer func() { _ = store.Close() }()

	identity := "test-" + uuid.NewString()
	defer store.client.Del(ctx, documentKey(identity))

	if snap, err := store.Fetch(ctx, identity); err != nil || snap != nil {
		t.Fatalf("Fetch(missing) = %+v, %v", snap, err)
	}
	store.client.HSet(ctx, documentKey(identity), "displayName", "Ada")

	at := time.Date(2025, 5, 14, 9, 30, 0, 0, time.UTC)
	if err := store.Push(ctx, identity, Snapshot{UpdatedAt: at, Engine: []byte("e"), Session: []byte("s")}); err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	snap, err := store.Fetch(ctx, identity)
	if err != nil || !snap.UpdatedAt.Equal(at) || string(snap.Engine) != "e" || string(snap.Session) != "s" {
		t.Fatalf("Fetch() = %+v, %v", snap, err)
	}

	if err := store.Clear(ctx, identity); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if snap, _ := store.Fetch(ctx, identity); snap != nil {
		t.Error("progress survived Clear")
	}
	if name, _ := store.client.HGet(ctx, documentKey(identity), "displayName").Result(); name != "Ada" {
		t.Errorf("unrelated field = %q", name)
	}
}

func TestNewRedisStore_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if _, err := NewRedisStore(ctx, RedisOptions{Addr: "127.0.0.1:1"}); err == nil {
		t.Error("NewRedisStore() error = nil for unreachable server")
	}
}
