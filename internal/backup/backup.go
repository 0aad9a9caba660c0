// Package backup mirrors the anti-cheat subset of the save to a remote
// Postgres table. Every call is best-effort: the game never blocks on
// the network and never fails a save because the backup was down.
package backup

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/Dark2017/magic-shop-mini-game/internal/state"
)

type PostgresBackup struct {
	db     *sql.DB
	logger *log.Logger
}

// NewPostgres connects with the pgx stdlib driver. dsn comes from the
// BACKUP_DSN environment variable; callers skip construction when it is
// unset.
func NewPostgres(dsn string) (*PostgresBackup, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open backup db: %w", err)
	}
	db.SetMaxOpenConns(2)

	b := &PostgresBackup{
		db:     db,
		logger: log.New(log.Writer(), "backup: ", log.LstdFlags),
	}
	return b, nil
}

// EnsureSchema creates the backup table if missing. Called once at
// startup; a failure only disables the mirror.
func (b *PostgresBackup) EnsureSchema(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS player_backups (
			player_id         TEXT PRIMARY KEY,
			level             INTEGER NOT NULL,
			gold              INTEGER NOT NULL,
			gems              INTEGER NOT NULL,
			shop_level        INTEGER NOT NULL,
			total_gold_earned BIGINT  NOT NULL,
			save_time         BIGINT  NOT NULL
		)`
	if _, err := b.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure backup schema: %w", err)
	}
	return nil
}

// Push upserts the critical record keyed by player id.
func (b *PostgresBackup) Push(ctx context.Context, rec state.CriticalFields) error {
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO player_backups
			(player_id, level, gold, gems, shop_level, total_gold_earned, save_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (player_id) DO UPDATE SET
			level             = EXCLUDED.level,
			gold              = EXCLUDED.gold,
			gems              = EXCLUDED.gems,
			shop_level        = EXCLUDED.shop_level,
			total_gold_earned = EXCLUDED.total_gold_earned,
			save_time         = EXCLUDED.save_time`,
		rec.PlayerID, rec.Level, rec.Gold, rec.Gems, rec.ShopLevel, rec.TotalGoldEarned, rec.SaveTime)
	if err != nil {
		return fmt.Errorf("push backup: %w", err)
	}
	return nil
}

func (b *PostgresBackup) Close() error { return b.db.Close() }
