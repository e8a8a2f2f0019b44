// Package cloud reconciles local progress with a remote document store.
package cloud

import (
	"context"
	"fmt"
	"time"

	"github.com/iksnae/novel-session/internal"
)

// Remote document fields
const (
	FieldUpdatedAt   = "updatedAt"
	FieldEngineBlob  = "engineBlob"
	FieldSessionBlob = "sessionBlob"
)

// progressFields are the fields Clear removes; anything else in the
// document is left alone
var progressFields = []string{FieldUpdatedAt, FieldEngineBlob, FieldSessionBlob}

// Snapshot is the progress part of a remote document
type Snapshot struct {
	UpdatedAt time.Time
	Engine    []byte
	Session   []byte
}

// RemoteStore holds one document per identity
type RemoteStore interface {
	// Fetch returns the progress snapshot, or nil when the identity has
	// none
	Fetch(ctx context.Context, identity string) (*Snapshot, error)
	// Push merges the snapshot into the document. Nil blobs leave the
	// stored field untouched.
	Push(ctx context.Context, identity string, snap Snapshot) error
	// Clear deletes the progress fields without deleting the document
	Clear(ctx context.Context, identity string) error
	Close() error
}

// OpenRemote opens the backend named in cfg. It returns nil for the none
// backend.
func OpenRemote(ctx context.Context, cfg *internal.Config) (RemoteStore, error) {
	switch cfg.RemoteBackend {
	case internal.BackendNone, "":
		return nil, nil
	case internal.BackendRedis:
		store, err := NewRedisStore(ctx, RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	case internal.BackendSQLite:
		store, err := OpenSQLiteStore(ctx, cfg.RemoteSQLite)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown remote backend %q", cfg.RemoteBackend)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
