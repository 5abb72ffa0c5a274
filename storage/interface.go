package storage

import (
	"context"
	"kiosk/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Storage определяет общий интерфейс архива лент.
// Объединяет методы для сохранения каналов и чтения записей, а также закрытия соединения.
type Storage interface {
	SaveChannels(ctx context.Context, feedURL string, channels []domain.Channel) (int, error)
	ListItems(ctx context.Context, filter domain.ItemFilter) ([]domain.ArchivedItem, error)
	Close()
}

// DBPool - подмножество методов *pgxpool.Pool, которое использует архив.
// Ему удовлетворяют и пул pgx, и pgxmock.
type DBPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}
