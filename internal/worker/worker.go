package worker

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

const feedTimeout = 30 * time.Second

// FeedProcessor определяет интерфейс для обработки отдельной ленты.
// Используется для внедрения зависимости в воркер.
type FeedProcessor interface {
	ProcessFeed(ctx context.Context, url string) error
}

// CycleStats - итог одного цикла обработки.
type CycleStats struct {
	Successful int64
	Errors     int64
}

// Worker реализует фоновый воркер для периодической архивации лент.
// Управляет расписанием, ограничивает число параллельных загрузок и ведет счетчики.
type Worker struct {
	processor   FeedProcessor
	urls        []string
	interval    time.Duration
	concurrency int
	log         *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped chan struct{}
}

// New создает нового воркера для обработки лент.
// Принимает процессор, список URL, интервал, предел параллелизма и логгер.
func New(processor FeedProcessor, urls []string, interval time.Duration, concurrency int, log *slog.Logger) *Worker {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Worker{
		processor:   processor,
		urls:        urls,
		interval:    interval,
		concurrency: concurrency,
		log:         log.With(slog.String("component", "worker")),
	}
}

// Start запускает воркер в отдельной горутине. Повторный вызов ничего не делает.
func (w *Worker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.stopped = make(chan struct{})
	go w.run(ctx, w.stopped)
}

// Stop отменяет текущий цикл и ждет завершения воркера. Повторный вызов ничего не делает.
func (w *Worker) Stop() {
	w.mu.Lock()
	cancel, stopped := w.cancel, w.stopped
	w.cancel, w.stopped = nil, nil
	w.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-stopped
}

func (w *Worker) run(ctx context.Context, stopped chan<- struct{}) {
	defer close(stopped)
	w.log.Info("Feed archiving worker started",
		slog.String("interval", w.interval.String()),
		slog.Int("feed_count", len(w.urls)),
		slog.Int("concurrency", w.concurrency),
	)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	w.ProcessAll(ctx)
	for {
		select {
		case <-ticker.C:
			w.ProcessAll(ctx)
		case <-ctx.Done():
			w.log.Info("Worker stopping")
			return
		}
	}
}

// ProcessAll обрабатывает все ленты не более чем в concurrency горутинах.
// Ошибка одной ленты не прерывает обработку остальных.
func (w *Worker) ProcessAll(ctx context.Context) CycleStats {
	start := time.Now()
	w.log.Info("Feed processing cycle started", slog.Int("feed_to_process", len(w.urls)))
	var successCount, errorCount atomic.Int64
	g := new(errgroup.Group)
	g.SetLimit(w.concurrency)
	for _, url := range w.urls {
		if ctx.Err() != nil {
			break
		}
		url := url
		g.Go(func() error {
			opCtx, opCancel := context.WithTimeout(ctx, feedTimeout)
			defer opCancel()
			if err := w.processor.ProcessFeed(opCtx, url); err != nil {
				errorCount.Add(1)
				w.log.Error("Feed processing failed",
					slog.String("url", url),
					slog.Any("error", err),
				)
				return nil
			}
			successCount.Add(1)
			return nil
		})
	}
	_ = g.Wait()
	stats := CycleStats{Successful: successCount.Load(), Errors: errorCount.Load()}
	w.log.Info("Feed processing cycle completed",
		slog.Int64("successful", stats.Successful),
		slog.Int64("errors", stats.Errors),
		slog.Int("total", len(w.urls)),
		slog.Duration("duration", time.Since(start)),
	)
	return stats
}

// GetURLs возвращает список URL, которые обрабатывает воркер.
func (w *Worker) GetURLs() []string { return w.urls }

// GetInterval возвращает интервал обработки лент.
func (w *Worker) GetInterval() time.Duration { return w.interval }
