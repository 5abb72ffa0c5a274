package usecase

import (
	"context"
	"kiosk/internal/domain"
)

// ChannelsGateway определяет источник каналов ленты.
// Поток каналов закрывается первым, затем в поток ошибок приходит не более одной ошибки.
type ChannelsGateway interface {
	LoadChannel(ctx context.Context, url string) (<-chan domain.Channel, <-chan error)
}

// LoadFeedOutput - граница вывода сценария загрузки.
// За один вызов Execute вызывается ровно один из методов и ровно один раз.
type LoadFeedOutput interface {
	OnLoaded(response domain.LoadFeedResponse)
	OnFailed(err *domain.FeedLoadError)
}

// FeedLoader загружает ленту синхронно.
type FeedLoader interface {
	Load(ctx context.Context, request domain.LoadFeedRequest) (domain.LoadFeedResponse, error)
}

// ArchiveStorage определяет интерфейс для сохранения загруженных каналов в архив.
// Возвращает количество переданных записей и ошибку в случае неудачи.
type ArchiveStorage interface {
	SaveChannels(ctx context.Context, feedURL string, channels []domain.Channel) (int, error)
}

// ItemsStorage определяет интерфейс для чтения архива.
// Используется для предоставления данных через API.
type ItemsStorage interface {
	ListItems(ctx context.Context, filter domain.ItemFilter) ([]domain.ArchivedItem, error)
}
