package gateway

import (
	"context"
	"fmt"
	"io"
	"kiosk/internal/adapter/mapper"
	"kiosk/internal/adapter/parser"
	"kiosk/internal/domain"
	"log/slog"
)

// Fetcher загружает тело документа ленты.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
}

// Parser разбирает документ ленты в сырые каналы.
type Parser interface {
	Parse(ctx context.Context, reader io.Reader) ([]parser.RawChannel, error)
}

// ChannelsGateway соединяет загрузку, разбор и преобразование в один поток каналов.
type ChannelsGateway struct {
	fetcher Fetcher
	parser  Parser
	log     *slog.Logger
}

func NewChannelsGateway(fetcher Fetcher, parser Parser, log *slog.Logger) *ChannelsGateway {
	return &ChannelsGateway{
		fetcher: fetcher,
		parser:  parser,
		log:     log.With(slog.String("component", "gateway")),
	}
}

// LoadChannel запускает загрузку ленты в отдельной горутине и сразу возвращает два потока.
// Каналы отправляются в порядке документа, после чего поток каналов закрывается.
// Затем в поток ошибок отправляется не более одной ошибки, и он тоже закрывается.
// Любая ошибка (включая панику) означает провал всей операции.
func (g *ChannelsGateway) LoadChannel(ctx context.Context, url string) (<-chan domain.Channel, <-chan error) {
	channels := make(chan domain.Channel)
	errs := make(chan error, 1)
	go func() {
		err := g.stream(ctx, url, channels)
		close(channels)
		if err != nil {
			errs <- err
		}
		close(errs)
	}()
	return channels, errs
}

func (g *ChannelsGateway) stream(ctx context.Context, url string, out chan<- domain.Channel) (err error) {
	log := g.log.With(slog.String("url", url))
	defer func() {
		if r := recover(); r != nil {
			log.Error("Panic while loading feed", slog.Any("panic", r))
			err = fmt.Errorf("panic while loading %s: %v", url, r)
		}
	}()

	result, err := g.load(ctx, url)
	if err != nil {
		return err
	}
	for _, ch := range result {
		select {
		case out <- ch:
		case <-ctx.Done():
			log.Warn("Consumer gone, stopping stream", slog.Any("error", ctx.Err()))
			return fmt.Errorf("%w: %w", domain.ErrTransport, ctx.Err())
		}
	}
	log.Debug("Feed streamed", slog.Int("channels", len(result)))
	return nil
}

func (g *ChannelsGateway) load(ctx context.Context, url string) ([]domain.Channel, error) {
	body, err := g.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	raws, err := g.parser.Parse(ctx, body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrTransport, ctx.Err())
		}
		return nil, err
	}
	channels, err := mapper.ToDomainAll(raws)
	if err != nil {
		log := g.log.With(slog.String("url", url))
		log.Error("Feed mapping failed", slog.Any("error", err))
		return nil, err
	}
	return channels, nil
}
