package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"bimsight/internal/config"
	"bimsight/internal/feed"
	"bimsight/internal/handler"
	"bimsight/internal/hub"
	"bimsight/internal/loader"
	"bimsight/internal/logging"
	"bimsight/internal/repository/sqlite"
	"bimsight/internal/service"
	"bimsight/internal/watcher"
)

func main() {
	configPath := flag.String("config", "", "config file path (default: search standard locations)")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	modelPath := flag.String("model", "", "reference model path (overrides config)")
	flag.Parse()

	cfg, path, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}
	if *modelPath != "" {
		cfg.Model.Path = *modelPath
	}

	logger, err := logging.NewLogger("bimsight", cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, path, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

func run(cfg *config.Config, cfgPath string, logger *zap.Logger) error {
	if cfgPath == "" {
		cfgPath = "(defaults)"
	}
	logger.Info("starting bimsight server", zap.String("config", cfgPath))
	logger.Info(cfg.Summary())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return errors.Wrap(err, "failed to open database")
	}
	defer repo.Close()
	logger.Info("database opened", zap.String("path", cfg.Database.Path))

	eventBus := service.NewEventBus()

	sseHub := hub.New(logger.Named("hub"))
	go sseHub.Run(ctx)

	eventChan := make(chan service.Event, 100)
	eventBus.Subscribe(eventChan)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventChan:
				sseHub.Broadcast(string(event.Type), event.Payload)
			}
		}
	}()

	source := loader.New(cfg.Model.Path, func(err error) {
		logger.Warn("model file missing, using simulated model", zap.Error(err))
	})

	svc, err := service.NewComplianceService(service.Options{
		Params:   cfg.Engine.Params,
		Keywords: cfg.KeywordTable(),
		Source:   source,
		Repo:     repo,
		EventBus: eventBus,
		Logger:   logger.Named("compliance"),
	})
	if err != nil {
		return err
	}
	if _, err := svc.Reload(ctx); err != nil {
		return errors.Wrap(err, "failed to load reference model")
	}

	if cfg.Model.Watch && cfg.Model.Path != "" {
		w := watcher.New(cfg.Model.Path, func(ctx context.Context) error {
			_, err := svc.Reload(ctx)
			return err
		}, logger.Named("watcher")).WithDebounce(cfg.Model.Debounce.Duration())
		if err := w.Start(ctx); err != nil {
			logger.Warn("model watch disabled", zap.Error(err))
		}
	}

	var runner *feed.Runner
	if cfg.Feed.Path != "" {
		replay, err := feed.OpenReplay(cfg.Feed.Path, feed.ReplayOptions{
			Loop:          cfg.Feed.Loop,
			MinConfidence: cfg.Feed.MinConfidence,
		})
		if err != nil {
			return err
		}
		feedLogger := logger.Named("feed")
		runner = feed.NewRunner(replay,
			feed.ServiceSink(svc, cfg.Feed.Session, cfg.Feed.Capture, feedLogger),
			cfg.Feed.Interval.Duration(), feedLogger)
		if err := runner.Start(ctx); err != nil {
			return err
		}
	}

	mux := http.NewServeMux()
	handler.NewComplianceHandler(svc, logger.Named("api")).Register(mux)
	mux.Handle("GET /events", sseHub)

	server := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: handler.Chain(mux,
			handler.Recover(logger),
			handler.CORS,
			handler.Logger(logger.Named("http")),
		),
		ReadTimeout:  cfg.Server.ReadTimeout.Duration(),
		WriteTimeout: cfg.Server.WriteTimeout.Duration(),
		IdleTimeout:  cfg.Server.IdleTimeout.Duration(),
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return errors.Wrap(err, "server error")
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	stop()

	if runner != nil {
		runner.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown error", zap.Error(err))
	}

	logger.Info("server stopped")
	return nil
}
