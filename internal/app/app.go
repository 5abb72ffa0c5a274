package app

import (
	"context"
	"errors"
	"fmt"
	"kiosk/internal/adapter/fetcher"
	"kiosk/internal/adapter/parser"
	"kiosk/internal/config"
	"kiosk/internal/gateway"
	"kiosk/internal/logger"
	"kiosk/internal/migrations"
	server "kiosk/internal/transport/http"
	"kiosk/internal/usecase"
	"kiosk/internal/worker"
	"kiosk/storage"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// App представляет основное приложение Kiosk.
// Координирует работу HTTP-сервера, воркера архивации, базы данных и логирования.
type App struct {
	config       *config.Config
	logger       *slog.Logger
	closeLogs    func()
	server       *http.Server
	worker       *worker.Worker
	archive      storage.Storage
	stopChan     chan os.Signal
	wg           sync.WaitGroup
	shutdownOnce sync.Once
}

// NewLoadFeedUseCase собирает цепочку загрузки: fetcher -> parser -> gateway -> use case.
func NewLoadFeedUseCase(cfg *config.Config, log *slog.Logger) *usecase.LoadFeedUseCase {
	httpFetcher := fetcher.NewHTTPFetcher(fetcher.Options{
		Timeout:      cfg.FetchTimeout(),
		UserAgent:    cfg.Fetcher.UserAgent,
		MaxBodyBytes: cfg.Fetcher.MaxBodyBytes,
	}, log)
	xmlParser := parser.NewXMLParser(log)
	channels := gateway.NewChannelsGateway(httpFetcher, xmlParser, log)
	return usecase.NewLoadFeedUseCase(channels, log)
}

// Connect открывает пул соединений с PostgreSQL и проверяет его.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return pool, nil
}

// New создает и инициализирует приложение.
// Настраивает логгер, подключается к базе данных, применяет миграции и связывает компоненты.
func New(cfg *config.Config) (*App, error) {
	appLogger, closeLogs, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logger: %w", err)
	}
	slog.SetDefault(appLogger)
	ctx := context.Background()
	dbPool, err := Connect(ctx, cfg.Database)
	if err != nil {
		closeLogs()
		return nil, err
	}
	if err := migrations.Apply(ctx, appLogger, dbPool); err != nil {
		dbPool.Close()
		closeLogs()
		return nil, fmt.Errorf("migrations failed: %w", err)
	}
	return newApp(cfg, appLogger, closeLogs, dbPool), nil
}

func newApp(cfg *config.Config, appLogger *slog.Logger, closeLogs func(), pool storage.DBPool) *App {
	feedNames := make(map[string]string)
	urls := make([]string, 0, len(cfg.App.FeedURLs))
	for _, feed := range cfg.App.FeedURLs {
		feedNames[feed.URL] = feed.Name
		urls = append(urls, feed.URL)
	}
	archive := storage.NewPostgresArchive(pool, cfg.App.DefaultItemsLimit, appLogger)
	loadFeed := NewLoadFeedUseCase(cfg, appLogger)
	archiveFeed := usecase.NewArchiveFeedUseCase(loadFeed, archive, appLogger, feedNames)
	listItems := usecase.NewListItemsUseCase(archive)

	handler := server.NewHandler(appLogger, loadFeed, listItems, cfg.Location(), cfg.App.DefaultItemsLimit)
	router := server.NewServer(appLogger, handler, server.RateLimit{
		RPS:   cfg.Server.RateLimitRPS,
		Burst: cfg.Server.RateLimitBurst,
	})
	feedWorker := worker.New(archiveFeed, urls, cfg.Interval(), cfg.App.WorkerConcurrency, appLogger)

	return &App{
		config:    cfg,
		logger:    appLogger,
		closeLogs: closeLogs,
		server: &http.Server{
			Addr:              cfg.Server.Address,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		worker:   feedWorker,
		archive:  archive,
		stopChan: make(chan os.Signal, 1),
	}
}

// Run запускает воркер и HTTP-сервер и блокируется до сигнала завершения.
func (a *App) Run() error {
	a.logger.Info("Starting Kiosk",
		slog.String("component", "app"),
		slog.Int("feed_count", len(a.worker.GetURLs())),
		slog.String("processing_interval", a.worker.GetInterval().String()),
	)
	listener, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		a.Shutdown()
		return fmt.Errorf("failed to create listener: %w", err)
	}
	a.worker.Start()
	a.logger.Info("HTTP server ready",
		slog.String("component", "server"),
		slog.String("address", listener.Addr().String()),
	)
	serverErr := make(chan error, 1)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("HTTP server failed", slog.String("component", "server"), slog.Any("error", err))
			serverErr <- err
		}
	}()
	signal.Notify(a.stopChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(a.stopChan)
	var runErr error
	select {
	case sig := <-a.stopChan:
		a.logger.Info("Shutdown signal received",
			slog.String("component", "app"),
			slog.String("signal", sig.String()),
		)
	case runErr = <-serverErr:
	}
	a.Shutdown()
	return runErr
}

// Shutdown выполняет graceful shutdown: останавливает воркер, сервер и закрывает пул.
// Повторные вызовы ничего не делают.
func (a *App) Shutdown() {
	a.shutdownOnce.Do(func() {
		a.logger.Info("Starting graceful shutdown", slog.String("component", "app"))
		a.worker.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("HTTP server shutdown failed", slog.Any("error", err))
		}
		a.wg.Wait()
		a.archive.Close()
		a.logger.Info("Application stopped gracefully", slog.String("component", "app"))
		if a.closeLogs != nil {
			a.closeLogs()
		}
	})
}
