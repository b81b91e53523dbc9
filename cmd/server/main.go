package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DoyleJ11/card-battle-backend/internal/config"
	"github.com/DoyleJ11/card-battle-backend/internal/engine"
	"github.com/DoyleJ11/card-battle-backend/internal/evolution"
	"github.com/DoyleJ11/card-battle-backend/internal/httpapi"
	"github.com/DoyleJ11/card-battle-backend/internal/hub"
	"github.com/DoyleJ11/card-battle-backend/internal/logging"
	"github.com/DoyleJ11/card-battle-backend/internal/service"
	"github.com/DoyleJ11/card-battle-backend/internal/storage"
	"github.com/DoyleJ11/card-battle-backend/internal/storage/objectstore"
	"github.com/DoyleJ11/card-battle-backend/internal/storage/postgres"
	"github.com/DoyleJ11/card-battle-backend/internal/storage/sqlite"
	"github.com/DoyleJ11/card-battle-backend/internal/tournament"
	"github.com/jonboulle/clockwork"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *zap.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, kv.Close()) }()

	evo, err := evolution.NewStore(ctx, kv, logger.Named("evolution"))
	if err != nil {
		return err
	}
	clock := clockwork.NewRealClock()
	tours, err := tournament.NewManager(ctx, kv, tournament.Options{
		Clock:  clock,
		Logger: logger.Named("tournament"),
	})
	if err != nil {
		return err
	}

	eng := engine.New(engine.Config{
		Evolution: evo,
		Delays:    cfg.Delays(),
		Logger:    logger.Named("engine"),
	})
	h := hub.NewHub(ctx, hub.Config{Engine: eng, Clock: clock, Logger: logger.Named("hub")})
	defer h.Shutdown()

	reaper, err := h.StartReaper(cfg.RoomReapInterval, cfg.RoomIdleTTL)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, reaper.Shutdown()) }()

	svc := service.New(service.Config{
		Hub:         h,
		Evolution:   evo,
		Tournaments: tours,
		Rules:       cfg.Rules(),
		Logger:      logger.Named("service"),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.SetupRoutes(svc, h, logger.Named("http")),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.HTTPAddr), zap.String("store", string(cfg.StoreBackend)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openStore(ctx context.Context, cfg config.Config) (storage.KV, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		return storage.NewMemory(), nil
	case config.BackendSQLite:
		return sqlite.Open(cfg.SQLitePath)
	case config.BackendPostgres:
		return postgres.Open(cfg.DatabaseURL)
	case config.BackendS3:
		return objectstore.Open(ctx, objectstore.Options{
			Bucket:          cfg.S3.Bucket,
			Prefix:          cfg.S3.Prefix,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
