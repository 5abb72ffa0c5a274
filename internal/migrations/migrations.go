package migrations

import (
	"context"
	"fmt"
	"kiosk/storage"
	"log/slog"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"
)

type Migration struct {
	ID    string
	UpSQL string
}

var allMigrations = []Migration{
	{
		ID: "20250101120000_create_channels_table",
		UpSQL: `
		CREATE TABLE channels(
		id BIGSERIAL PRIMARY KEY,
		feed_url TEXT NOT NULL,
		title TEXT NOT NULL,
		link TEXT NOT NULL,
		description TEXT NOT NULL,
		image TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (feed_url, title, link)
		);`,
	},
	{
		ID: "20250101120100_create_items_table",
		UpSQL: `
		CREATE TABLE items(
		id BIGSERIAL PRIMARY KEY,
		channel_id BIGINT NOT NULL REFERENCES channels(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		link TEXT NOT NULL,
		description TEXT NOT NULL,
		enclosure_url TEXT NOT NULL,
		enclosure_length BIGINT NOT NULL DEFAULT 0,
		enclosure_type TEXT NOT NULL,
		pub_date_ms BIGINT NOT NULL DEFAULT 0,
		UNIQUE (channel_id, title, link, pub_date_ms)
		);`,
	},
	{
		ID:    "20250101120200_index_items_pub_date",
		UpSQL: `CREATE INDEX items_pub_date_ms_idx ON items (pub_date_ms DESC);`,
	},
}

// Pending возвращает миграции, которых нет среди примененных, в порядке ID.
func Pending(applied map[string]bool) []Migration {
	sorted := slices.Clone(allMigrations)
	slices.SortFunc(sorted, func(a, b Migration) int { return strings.Compare(a.ID, b.ID) })
	return slices.DeleteFunc(sorted, func(m Migration) bool { return applied[m.ID] })
}

// Apply применяет все необходимые миграции к базе данных одной транзакцией.
func Apply(ctx context.Context, log *slog.Logger, pool storage.DBPool) (err error) {
	log = log.With(slog.String("component", "migrations"))
	log.Info("Starting database migrations check...")
	_, err = pool.Exec(ctx, `
	CREATE TABLE IF NOT EXISTS schema_migrations (
	id TEXT PRIMARY KEY
	);
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}
	rows, err := pool.Query(ctx, "SELECT id FROM schema_migrations")
	if err != nil {
		return fmt.Errorf("failed to query applied migrations: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return fmt.Errorf("failed to scan migration id: %w", err)
	}
	applied := make(map[string]bool, len(ids))
	for _, id := range ids {
		applied[id] = true
	}

	pending := Pending(applied)
	if len(pending) == 0 {
		log.Info("Database is up to date, no new migrations found.")
		return nil
	}
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(context.Background()); rollbackErr != nil {
				log.Error("Failed to rollback migrations", slog.Any("error", rollbackErr))
			}
		}
	}()
	for _, m := range pending {
		log.Info("Applying migration", slog.String("id", m.ID))
		if _, err = tx.Exec(ctx, m.UpSQL); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", m.ID, err)
		}
		if _, err = tx.Exec(ctx, "INSERT INTO schema_migrations (id) VALUES ($1)", m.ID); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", m.ID, err)
		}
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit migrations transaction: %w", err)
	}
	log.Info("Database migrations applied successfully", slog.Int("count", len(pending)))
	return nil
}
