package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/dmarquez/catalogkeeper/internal/catalog"
	"github.com/dmarquez/catalogkeeper/internal/gateway"
	"github.com/dmarquez/catalogkeeper/internal/session"
	"github.com/dmarquez/catalogkeeper/internal/storage"
	"github.com/dmarquez/catalogkeeper/pkg/config"
	"github.com/dmarquez/catalogkeeper/pkg/logger"
)

const usage = `catalogkeeper — manage the product catalog from the terminal

Usage:
  catalogkeeper register   [-username U] [-email E] [-display-name N]
  catalogkeeper login      [-username U]
  catalogkeeper logout
  catalogkeeper whoami
  catalogkeeper products list
  catalogkeeper products add     [-title T] [-brand B] [-category C] [-price P] [-stock N] [-description D]
  catalogkeeper products update  <id> [field flags as for add]
  catalogkeeper products delete  <id>
`

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "catalogkeeper"})

	if err := godotenv.Load(); err != nil {
		logg.Debug(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "catalogkeeper",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	kv, closeStorage, err := openStorage(ctx, cfg)
	if err != nil {
		logg.Error(ctx, "failed to open storage", err)
		os.Exit(1)
	}
	defer closeStorage()

	gw, err := gateway.NewClient(cfg.Gateway, logg)
	if err != nil {
		logg.Error(ctx, "failed to create gateway client", err)
		os.Exit(1)
	}

	sessions, err := session.NewStore(ctx, session.StoreParams{
		Storage:        kv,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create session store", err)
		os.Exit(1)
	}

	products, err := catalog.NewStore(catalog.StoreParams{
		Gateway: gw,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create catalog store", err)
		os.Exit(1)
	}

	app := &app{
		sessions: sessions,
		products: products,
		logger:   logg,
		stdout:   os.Stdout,
		stderr:   os.Stderr,
	}

	if err := app.run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", renderError(err))
		os.Exit(1)
	}
}

// openStorage selects the persistence backend. The returned closer is a
// no-op for backends without a connection to release.
func openStorage(ctx context.Context, cfg *config.Config) (storage.Store, func(), error) {
	switch cfg.Storage.Backend {
	case config.StorageBackendFile:
		kv, err := storage.NewFileStore(cfg.Storage.Dir)
		if err != nil {
			return nil, nil, err
		}
		return kv, func() {}, nil
	case config.StorageBackendRedis:
		kv, err := storage.NewRedisStore(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return kv, func() { _ = kv.Close() }, nil
	case config.StorageBackendMemory:
		return storage.NewMemoryStore(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
