package fetcher

import (
	"context"
	"fmt"
	"io"
	"kiosk/internal/domain"
	"log/slog"
	"net/http"
	"time"
)

const acceptHeader = "application/rss+xml, application/xml;q=0.9, text/xml;q=0.8, */*;q=0.5"

// Options задает параметры HTTP-клиента загрузчика.
type Options struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
}

// HTTPFetcher загружает документы лент по HTTP.
// Любой сбой (сеть, таймаут, отмена, статус вне 2xx, превышение размера тела)
// оборачивает domain.ErrTransport.
type HTTPFetcher struct {
	client       *http.Client
	userAgent    string
	maxBodyBytes int64
	log          *slog.Logger
}

// NewHTTPFetcher создает загрузчик с собственным HTTP-клиентом.
// Клиент разделяется между параллельными загрузками.
func NewHTTPFetcher(opts Options, log *slog.Logger) *HTTPFetcher {
	return &HTTPFetcher{
		client:       &http.Client{Timeout: opts.Timeout},
		userAgent:    opts.UserAgent,
		maxBodyBytes: opts.MaxBodyBytes,
		log:          log.With(slog.String("component", "fetcher")),
	}
}

// Fetch выполняет один GET-запрос по указанному URL.
// Возвращает тело ответа, которое должно быть закрыто после использования.
// Чтение тела сверх MaxBodyBytes завершается ошибкой domain.ErrTransport.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	log := f.log.With(slog.String("url", url))
	log.Debug("Fetching URL")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		log.Error("Failed to create HTTP request", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to create request for url %s: %w", domain.ErrTransport, url, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", acceptHeader)
	resp, err := f.client.Do(req)
	if err != nil {
		log.Error("HTTP request failed", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to fetch url %s: %w", domain.ErrTransport, url, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		log.Error("Unexpected status code", slog.Int("status_code", resp.StatusCode))
		return nil, fmt.Errorf("%w: unexpected status code: %d for url %s", domain.ErrTransport, resp.StatusCode, url)
	}
	log.Debug("Successfully fetched URL", slog.Int("status_code", resp.StatusCode))
	if f.maxBodyBytes <= 0 {
		return resp.Body, nil
	}
	return &cappedBody{body: resp.Body, remaining: f.maxBodyBytes, limit: f.maxBodyBytes, url: url}, nil
}

// cappedBody отдает не больше limit байт и сообщает об ошибке, если тело длиннее.
type cappedBody struct {
	body      io.ReadCloser
	remaining int64
	limit     int64
	url       string
}

func (c *cappedBody) Read(p []byte) (int, error) {
	if c.remaining < 0 {
		return 0, c.tooLarge()
	}
	// читаем на байт больше лимита, чтобы отличить ровно limit от превышения
	if int64(len(p)) > c.remaining+1 {
		p = p[:c.remaining+1]
	}
	n, err := c.body.Read(p)
	c.remaining -= int64(n)
	if c.remaining < 0 {
		return n + int(c.remaining), c.tooLarge()
	}
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("%w: failed to read body of %s: %w", domain.ErrTransport, c.url, err)
	}
	return n, err
}

func (c *cappedBody) Close() error {
	return c.body.Close()
}

func (c *cappedBody) tooLarge() error {
	return fmt.Errorf("%w: response body of %s exceeds %d bytes", domain.ErrTransport, c.url, c.limit)
}
