package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const saveSlot = "default"

// SQLiteRepo keeps the save blob in a one-row sqlite table. A keyed
// slot column leaves room for multiple profiles without a schema
// change.
type SQLiteRepo struct {
	db *sql.DB
}

func NewSQLiteRepo(path string) (*SQLiteRepo, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open save db: %w", err)
	}
	// The game loop is the only writer.
	db.SetMaxOpenConns(1)

	const schema = `
		CREATE TABLE IF NOT EXISTS saves (
			slot       TEXT PRIMARY KEY,
			blob       BLOB NOT NULL,
			updated_at INTEGER NOT NULL
		)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init save db: %w", err)
	}
	return &SQLiteRepo{db: db}, nil
}

func (r *SQLiteRepo) Load(ctx context.Context) ([]byte, bool, error) {
	var stored []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT blob FROM saves WHERE slot = ?`, saveSlot).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read save row: %w", err)
	}
	blob, err := decompressBlob(stored)
	if err != nil {
		return nil, false, err
	}
	return blob, true, nil
}

func (r *SQLiteRepo) Save(ctx context.Context, blob []byte) error {
	stored, err := compressBlob(blob)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO saves (slot, blob, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (slot) DO UPDATE SET blob = excluded.blob, updated_at = excluded.updated_at`,
		saveSlot, stored, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("write save row: %w", err)
	}
	return nil
}

func (r *SQLiteRepo) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM saves WHERE slot = ?`, saveSlot); err != nil {
		return fmt.Errorf("clear save row: %w", err)
	}
	return nil
}

func (r *SQLiteRepo) Close() error { return r.db.Close() }
