package storage

import (
	"context"
	"fmt"
	"kiosk/internal/domain"
	"log/slog"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jackc/pgx/v5"
)

const (
	upsertChannelQuery = `
	INSERT INTO channels (feed_url, title, link, description, image, updated_at)
	VALUES ($1, $2, $3, $4, $5, NOW())
	ON CONFLICT (feed_url, title, link) DO UPDATE
	SET description = EXCLUDED.description, image = EXCLUDED.image, updated_at = NOW()
	RETURNING id;
	`
	insertItemQuery = `
	INSERT INTO items (channel_id, title, link, description, enclosure_url, enclosure_length, enclosure_type, pub_date_ms)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (channel_id, title, link, pub_date_ms) DO NOTHING;
	`
)

type PostgresArchive struct {
	pool         DBPool
	log          *slog.Logger
	defaultLimit int
}

func NewPostgresArchive(pool DBPool, defaultLimit int, log *slog.Logger) *PostgresArchive {
	log = log.With(slog.String("component", "storage"))
	log.Info("Initializing Postgres feed archive")
	return &PostgresArchive{
		pool:         pool,
		log:          log,
		defaultLimit: defaultLimit,
	}
}

func (db *PostgresArchive) Close() {
	db.log.Info("Closing database connection pool")
	db.pool.Close()
}

// SaveChannels сохраняет каналы ленты одной транзакцией.
// Канал обновляется по (feed_url, title, link), уже сохраненные записи пропускаются.
// Возвращает количество переданных записей.
func (db *PostgresArchive) SaveChannels(ctx context.Context, feedURL string, channels []domain.Channel) (saved int, err error) {
	const op = "storage.postgres.SaveChannels"
	log := db.log.With(slog.String("op", op), slog.String("url", feedURL))
	if len(channels) == 0 {
		return 0, nil
	}
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		log.Error("Failed to begin transaction", slog.Any("error", err))
		return 0, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(context.Background()); rollbackErr != nil {
				log.Error("Failed to rollback transaction", slog.Any("error", rollbackErr))
			}
		}
	}()

	for _, ch := range channels {
		var channelID int64
		err = tx.QueryRow(ctx, upsertChannelQuery, feedURL, ch.Title, ch.Link, ch.Description, ch.Image).Scan(&channelID)
		if err != nil {
			log.Error("Failed to upsert channel", slog.String("channel", ch.Title), slog.Any("error", err))
			return 0, fmt.Errorf("%s: failed to upsert channel %q: %w", op, ch.Title, err)
		}
		for _, item := range ch.Items {
			_, err = tx.Exec(ctx, insertItemQuery,
				channelID,
				item.Title,
				item.Link,
				item.Description,
				item.Enclosure.URL,
				item.Enclosure.Length,
				item.Enclosure.Type,
				item.PubDate,
			)
			if err != nil {
				log.Error("Failed to insert item", slog.String("item", item.Title), slog.Any("error", err))
				return 0, fmt.Errorf("%s: failed to insert item %q: %w", op, item.Title, err)
			}
			saved++
		}
	}
	if err = tx.Commit(ctx); err != nil {
		log.Error("Failed to commit transaction", slog.Any("error", err))
		return 0, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}
	log.Debug("Channels saved", slog.Int("channels", len(channels)), slog.Int("items", saved))
	return saved, nil
}

// ListItems возвращает записи архива, новые первыми.
func (db *PostgresArchive) ListItems(ctx context.Context, filter domain.ItemFilter) ([]domain.ArchivedItem, error) {
	const op = "storage.postgres.ListItems"
	limit := filter.Limit
	if limit <= 0 {
		limit = db.defaultLimit
	}
	log := db.log.With(slog.String("op", op), slog.Int("limit", limit))

	query, args := buildListItemsQuery(limit, filter.ChannelLink)
	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		log.Error("Database query failed", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}
	defer rows.Close()
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ArchivedItem, error) {
		var item domain.ArchivedItem
		err := row.Scan(
			&item.Title,
			&item.Link,
			&item.Description,
			&item.Enclosure.URL,
			&item.Enclosure.Length,
			&item.Enclosure.Type,
			&item.PubDate,
			&item.ChannelTitle,
			&item.ChannelLink,
		)
		return item, err
	})
	if err != nil {
		log.Error("Failed to collect rows", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to scan row: %w", op, err)
	}
	log.Debug("Archived items retrieved", slog.Int("count", len(items)))
	return items, nil
}

func buildListItemsQuery(limit int, channelLink string) (string, []any) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(
		"i.title", "i.link", "i.description",
		"i.enclosure_url", "i.enclosure_length", "i.enclosure_type",
		"i.pub_date_ms", "c.title", "c.link",
	).From("items i").Join("channels c", "c.id = i.channel_id")
	if channelLink != "" {
		sb.Where(sb.Equal("c.link", channelLink))
	}
	sb.OrderBy("i.pub_date_ms").Desc().Limit(limit)
	return sb.Build()
}
