package usecase

import (
	"context"
	"fmt"
	"kiosk/internal/domain"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/lo"
)

// ArchiveFeedUseCase загружает ленту и сохраняет ее каналы в архив.
// Архив только пополняется: сценарий загрузки его никогда не читает.
type ArchiveFeedUseCase struct {
	loader    FeedLoader
	storage   ArchiveStorage
	log       *slog.Logger
	feedNames map[string]string
}

// NewArchiveFeedUseCase создает новый экземпляр UseCase для архивации лент.
// Принимает зависимости: сценарий загрузки, хранилище, логгер и маппинг URL на имена.
func NewArchiveFeedUseCase(
	loader FeedLoader,
	storage ArchiveStorage,
	log *slog.Logger,
	feedNames map[string]string,
) *ArchiveFeedUseCase {
	return &ArchiveFeedUseCase{
		loader:    loader,
		storage:   storage,
		log:       log,
		feedNames: feedNames,
	}
}

// ProcessFeed выполняет полный цикл: загрузка ленты и сохранение каналов.
// Логирует этапы с тегом stage и возвращает ошибку первого неудачного этапа.
func (uc *ArchiveFeedUseCase) ProcessFeed(ctx context.Context, url string) error {
	start := time.Now()
	feedName := uc.extractFeedName(url)
	log := uc.log.With(
		slog.String("component", "feed-archiver"),
		slog.String("feed", feedName),
		slog.String("url", url),
	)

	log.Info("Archiving feed started")

	response, err := uc.loader.Load(ctx, domain.LoadFeedRequest{URL: url})
	if err != nil {
		log.Error("Feed load failed",
			slog.String("stage", "load"),
			slog.String("class", domain.FailureClass(err)),
			slog.Any("error", err),
		)
		return fmt.Errorf("load failed for %s: %w", feedName, err)
	}

	items := lo.SumBy(response.Channels, func(ch domain.Channel) int { return len(ch.Items) })
	log.Debug("Feed loaded",
		slog.String("stage", "load"),
		slog.Int("channels", len(response.Channels)),
		slog.Int("items", items),
	)

	savedCount, err := uc.storage.SaveChannels(ctx, url, response.Channels)
	if err != nil {
		log.Error("Feed save failed",
			slog.String("stage", "save"),
			slog.Any("error", err),
		)
		return fmt.Errorf("save failed for %s: %w", feedName, err)
	}

	log.Info("Feed archived",
		slog.Int("items_found", items),
		slog.Int("items_saved", savedCount),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

// extractFeedName извлекает читаемое имя ленты из URL.
// Использует предопределенный маппинг или домен из URL как запасной вариант.
func (uc *ArchiveFeedUseCase) extractFeedName(url string) string {
	if name, ok := uc.feedNames[url]; ok {
		return name
	}
	parts := strings.Split(url, "/")
	if len(parts) >= 3 && parts[2] != "" {
		return strings.TrimPrefix(parts[2], "www.")
	}
	return "Unknown"
}
