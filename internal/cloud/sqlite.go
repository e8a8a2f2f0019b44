package cloud

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

const documentsSchema = `
CREATE TABLE IF NOT EXISTS documents (
	identity TEXT NOT NULL,
	field    TEXT NOT NULL,
	value    BLOB,
	PRIMARY KEY (identity, field)
)`

// SQLiteStore keeps documents as one row per (identity, field), so a push
// only touches the fields it names
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens or creates the database at path
func OpenSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create remote directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	store, err := NewSQLiteStore(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLiteStore wraps an open database and ensures the schema exists
func NewSQLiteStore(ctx context.Context, db *sql.DB) (*SQLiteStore, error) {
	if _, err := db.ExecContext(ctx, documentsSchema); err != nil {
		return nil, fmt.Errorf("failed to create documents table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Fetch(ctx context.Context, identity string) (*Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT field, value FROM documents WHERE identity = ?", identity)
	if err != nil {
		return nil, fmt.Errorf("failed to query document: %w", err)
	}
	defer func() { _ = rows.Close() }()

	fields := make(map[string][]byte)
	for rows.Next() {
		var field string
		var value []byte
		if err := rows.Scan(&field, &value); err != nil {
			return nil, fmt.Errorf("failed to scan document field: %w", err)
		}
		fields[field] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating document: %w", err)
	}

	stamp, ok := fields[FieldUpdatedAt]
	if !ok {
		return nil, nil
	}
	updatedAt, err := parseTime(string(stamp))
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", FieldUpdatedAt, stamp, err)
	}
	return &Snapshot{
		UpdatedAt: updatedAt,
		Engine:    fields[FieldEngineBlob],
		Session:   fields[FieldSessionBlob],
	}, nil
}

func (s *SQLiteStore) Push(ctx context.Context, identity string, snap Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin push: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	upsert := `INSERT INTO documents (identity, field, value) VALUES (?, ?, ?)
		ON CONFLICT (identity, field) DO UPDATE SET value = excluded.value`
	values := [][2]interface{}{{FieldUpdatedAt, []byte(formatTime(snap.UpdatedAt))}}
	if snap.Engine != nil {
		values = append(values, [2]interface{}{FieldEngineBlob, snap.Engine})
	}
	if snap.Session != nil {
		values = append(values, [2]interface{}{FieldSessionBlob, snap.Session})
	}
	for _, v := range values {
		if _, err := tx.ExecContext(ctx, upsert, identity, v[0], v[1]); err != nil {
			return fmt.Errorf("failed to write %s: %w", v[0], err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit push: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context, identity string) error {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(progressFields)), ",")
	args := []interface{}{identity}
	for _, f := range progressFields {
		args = append(args, f)
	}
	query := fmt.Sprintf("DELETE FROM documents WHERE identity = ? AND field IN (%s)", placeholders)
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to clear document: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
