package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"kiosk/internal/app"
	"kiosk/internal/config"
	"kiosk/internal/domain"
	"kiosk/internal/logger"
	"kiosk/internal/migrations"
	"kiosk/internal/presenter"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
)

func rootApp() *cli.App {
	return &cli.App{
		Name:  "kiosk",
		Usage: "Fetch and normalize RSS feeds",
		Description: `Kiosk loads RSS documents over HTTP, normalizes their channels and items
		and serves them through a JSON API. A background worker archives the
		configured feeds in PostgreSQL.

		The config path can be set via environment variable:

		--config => KIOSK_CONFIG=config.yaml
		`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Path to config file (.json, .yaml, .yml or .toml)",
				EnvVars: []string{"KIOSK_CONFIG"},
				Value:   "config.json",
			},
		},
		Commands: []*cli.Command{
			loadCmd(),
			serveCmd(),
			migrateCmd(),
		},
		Action: func(ctx *cli.Context) error {
			return cli.ShowAppHelp(ctx)
		},
	}
}

func loadCmd() *cli.Command {
	return &cli.Command{
		Name:      "load",
		Usage:     "Load a single feed and print it as JSON",
		ArgsUsage: "<url>",
		Action: func(ctx *cli.Context) error {
			if ctx.NArg() != 1 {
				return cli.Exit("load expects exactly one feed url", 2)
			}
			cfg, err := loadConfig(ctx, false)
			if err != nil {
				return err
			}
			if err := cfg.ValidateFetcher(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			log, closeLogs, err := commandLogger(cfg.Logger)
			if err != nil {
				return fmt.Errorf("failed to setup logger: %w", err)
			}
			defer closeLogs()

			sigCtx, stop := signal.NotifyContext(ctx.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runLoad(sigCtx, cfg, log, ctx.Args().First(), ctx.App.Writer)
		},
	}
}

// runLoad печатает данные презентера и возвращает ненулевой код выхода при неудаче.
func runLoad(ctx context.Context, cfg *config.Config, log *slog.Logger, url string, out io.Writer) error {
	var data presenter.ChannelsData
	p := presenter.NewChannelsPresenter(cfg.Location(), func(d presenter.ChannelsData) { data = d })
	<-app.NewLoadFeedUseCase(cfg, log).Execute(ctx, domain.LoadFeedRequest{URL: url}, p)

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(presenter.Wrap(data)); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	if msg, failed := data.(presenter.MessageData); failed {
		return cli.Exit(msg.Message, 1)
	}
	return nil
}

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API and the archive worker",
		Action: func(ctx *cli.Context) error {
			cfg, err := loadConfig(ctx, true)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			application, err := app.New(cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			return application.Run()
		},
	}
}

func migrateCmd() *cli.Command {
	return &cli.Command{
		Name:        "migrate",
		Usage:       "Run database migrations",
		Description: `Applies pending migrations to the configured PostgreSQL database and exits.`,
		Action: func(ctx *cli.Context) error {
			cfg, err := loadConfig(ctx, true)
			if err != nil {
				return err
			}
			if err := cfg.ValidateDatabase(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			log, closeLogs, err := logger.New(cfg.Logger)
			if err != nil {
				return fmt.Errorf("failed to setup logger: %w", err)
			}
			defer closeLogs()
			pool, err := app.Connect(ctx.Context, cfg.Database)
			if err != nil {
				return err
			}
			defer pool.Close()
			return migrations.Apply(ctx.Context, log, pool)
		},
	}
}

// commandLogger пишет в stderr, если файл логов не задан: stdout занят JSON-выводом.
func commandLogger(cfg config.LoggerConfig) (*slog.Logger, func(), error) {
	if cfg.File == "" {
		return logger.NewWithWriters(cfg.Level, os.Stderr, os.Stderr), func() {}, nil
	}
	return logger.New(cfg)
}

// loadConfig читает конфигурацию из --config.
// Если файл не указан явно и отсутствует, а required == false, используются значения по умолчанию.
func loadConfig(ctx *cli.Context, required bool) (*config.Config, error) {
	path := ctx.String("config")
	if !required && !ctx.IsSet("config") {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return config.New(), nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("could not load config: %w", err)
	}
	return cfg, nil
}
