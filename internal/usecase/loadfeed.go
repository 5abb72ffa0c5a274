package usecase

import (
	"context"
	"errors"
	"fmt"
	"kiosk/internal/domain"
	"kiosk/internal/metrics"
	"log/slog"
	"time"

	"github.com/samber/lo"
)

var errStreamClosed = errors.New("gateway returned no streams")

// LoadFeedUseCase реализует сценарий загрузки ленты по URL.
// Состояния: Idle -> Running -> Succeeded | Failed. Повторов и таймаутов на этом уровне нет.
type LoadFeedUseCase struct {
	gateway ChannelsGateway
	log     *slog.Logger
}

// NewLoadFeedUseCase создает сценарий загрузки с явно переданным шлюзом.
func NewLoadFeedUseCase(gateway ChannelsGateway, log *slog.Logger) *LoadFeedUseCase {
	return &LoadFeedUseCase{
		gateway: gateway,
		log:     log.With(slog.String("component", "load-feed")),
	}
}

// Execute запускает загрузку в отдельной горутине и сразу возвращает канал завершения.
// Канал закрывается после того, как в out был вызван ровно один из методов:
// OnLoaded со всеми каналами по порядку либо OnFailed с запрошенным URL и причиной.
// Частично полученные каналы при ошибке отбрасываются.
func (uc *LoadFeedUseCase) Execute(ctx context.Context, request domain.LoadFeedRequest, out LoadFeedOutput) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		response, loadErr := uc.run(ctx, request)
		if loadErr != nil {
			out.OnFailed(loadErr)
			return
		}
		out.OnLoaded(response)
	}()
	return done
}

// Load - синхронный вариант Execute. Ошибка всегда имеет тип *domain.FeedLoadError.
func (uc *LoadFeedUseCase) Load(ctx context.Context, request domain.LoadFeedRequest) (domain.LoadFeedResponse, error) {
	response, loadErr := uc.run(ctx, request)
	if loadErr != nil {
		return domain.LoadFeedResponse{}, loadErr
	}
	return response, nil
}

func (uc *LoadFeedUseCase) run(ctx context.Context, request domain.LoadFeedRequest) (domain.LoadFeedResponse, *domain.FeedLoadError) {
	start := time.Now()
	log := uc.log.With(slog.String("url", request.URL))
	log.Info("Feed load started")

	channels, err := uc.drain(ctx, request.URL)
	duration := time.Since(start)
	if err != nil {
		class := domain.FailureClass(err)
		metrics.RecordLoadFailure(class, duration.Seconds())
		log.Error("Feed load failed",
			slog.String("class", class),
			slog.Any("error", err),
			slog.Duration("duration", duration),
		)
		return domain.LoadFeedResponse{}, &domain.FeedLoadError{URL: request.URL, Cause: err}
	}

	items := lo.SumBy(channels, func(ch domain.Channel) int { return len(ch.Items) })
	metrics.RecordLoadSuccess(len(channels), items, duration.Seconds())
	log.Info("Feed load completed",
		slog.Int("channels", len(channels)),
		slog.Int("items", items),
		slog.Duration("duration", duration),
	)
	return domain.LoadFeedResponse{Channels: channels}, nil
}

// drain вычитывает поток каналов до конца, затем поток ошибок.
// Отмена контекста, даже если шлюз ее не заметил, считается сбоем транспорта.
func (uc *LoadFeedUseCase) drain(ctx context.Context, url string) ([]domain.Channel, error) {
	if uc.gateway == nil {
		return nil, fmt.Errorf("no channels gateway configured for %s", url)
	}
	stream, errs := uc.gateway.LoadChannel(ctx, url)
	if stream == nil || errs == nil {
		return nil, fmt.Errorf("%w: %s", errStreamClosed, url)
	}
	channels := make([]domain.Channel, 0)
	for ch := range stream {
		channels = append(channels, ch)
	}
	if err := <-errs; err != nil {
		return nil, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrTransport, ctxErr)
	}
	return channels, nil
}
