package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ewilliams-labs/moodqueue/backend/internal/adapters/badgerstore"
	"github.com/ewilliams-labs/moodqueue/backend/internal/adapters/filestore"
	"github.com/ewilliams-labs/moodqueue/backend/internal/adapters/rest"
	"github.com/ewilliams-labs/moodqueue/backend/internal/adapters/spotify"
	"github.com/ewilliams-labs/moodqueue/backend/internal/adapters/sqlite"
	"github.com/ewilliams-labs/moodqueue/backend/internal/config"
	"github.com/ewilliams-labs/moodqueue/backend/internal/core/ports"
	"github.com/ewilliams-labs/moodqueue/backend/internal/core/services"
	"github.com/ewilliams-labs/moodqueue/backend/internal/logging"
	"github.com/ewilliams-labs/moodqueue/backend/internal/supervisor"
	"github.com/ewilliams-labs/moodqueue/backend/internal/worker"
)

func main() {
	if err := run(); err != nil {
		logging.Error().Err(err).Msg("moodqueue exited with error")
		os.Exit(1)
	}
}

func run() error {
	// 1. Configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Driven adapters
	repo, err := openRepository(cfg.Storage)
	if err != nil {
		return err
	}
	logging.Info().Str("driver", cfg.Storage.Driver).Str("path", cfg.Storage.Path).Msg("ledger backend opened")

	store := services.NewLedgerStore(repo, services.LedgerStoreConfig{
		Timeout:          cfg.Storage.Timeout,
		FailureThreshold: cfg.Storage.Breaker.FailureThreshold,
		OpenTimeout:      cfg.Storage.Breaker.OpenTimeout,
	})
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("closing ledger store")
		}
	}()

	if n, err := store.CountStored(ctx); err != nil {
		logging.Warn().Err(err).Msg("could not count stored ledgers")
	} else {
		logging.Info().Int("ledgers", n).Msg("stored ledgers counted")
	}

	pool := worker.NewPool(store, worker.Config{
		Workers:     cfg.Storage.Retry.Workers,
		QueueSize:   cfg.Storage.Retry.QueueSize,
		Delay:       cfg.Storage.Retry.Delay,
		Timeout:     cfg.Storage.Timeout,
		MaxAttempts: cfg.Storage.Retry.MaxAttempts,
	})
	store.SetRetryQueue(pool)

	var catalog ports.CatalogProvider
	if cfg.Spotify.Enabled() {
		catalog = spotify.NewClientCredentials(ctx, spotify.Config{
			ClientID:          cfg.Spotify.ClientID,
			ClientSecret:      cfg.Spotify.ClientSecret,
			TokenURL:          cfg.Spotify.TokenURL,
			BaseURL:           cfg.Spotify.BaseURL,
			Market:            cfg.Spotify.Market,
			MaxRetries:        cfg.Spotify.MaxRetries,
			RetryBackoff:      cfg.Spotify.RetryBackoff,
			RequestsPerSecond: cfg.Spotify.RequestsPerSecond,
			Timeout:           cfg.Spotify.Timeout,
		})
	} else {
		logging.Warn().Msg("spotify credentials not set, /playlist disabled")
	}

	// 3. Core
	seed := cfg.Recommend.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	svc := services.NewRecommender(store, catalog, rand.New(rand.NewPCG(seed, seed)))

	// 4. Driving adapter
	handler := rest.NewHandler(svc, rest.Config{
		RateLimitRequests: cfg.HTTP.RateLimitRequests,
		RateLimitWindow:   cfg.HTTP.RateLimitWindow,
		RateLimitDisabled: cfg.HTTP.RateLimitDisabled,
		CORSOrigins:       cfg.HTTP.CORSOrigins,
	})
	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	// 5. Supervise
	tree := supervisor.NewTree(supervisor.TreeConfig{ShutdownTimeout: cfg.Server.ShutdownTimeout})
	tree.AddStorageService(supervisor.NewPoolService(pool))
	if cfg.Storage.FlushInterval > 0 {
		tree.AddStorageService(supervisor.NewFlushService(store, cfg.Storage.FlushInterval, cfg.Storage.Timeout))
	}
	tree.AddAPIService(supervisor.NewHTTPServerService(srv, cfg.Server.ShutdownTimeout))

	logging.Info().Str("addr", srv.Addr).Msg("moodqueue API listening")

	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor: %w", err)
	}
	logging.Info().Msg("moodqueue stopped")
	return nil
}

func openRepository(cfg config.StorageConfig) (ports.LedgerRepository, error) {
	switch cfg.Driver {
	case config.DriverFile:
		repo, err := filestore.NewAdapter(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open file store: %w", err)
		}
		return repo, nil
	case config.DriverBadger:
		repo, err := badgerstore.NewAdapter(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open badger store: %w", err)
		}
		return repo, nil
	case config.DriverSQLite:
		repo, err := sqlite.NewAdapter(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
