package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/dukerupert/notesync/internal/cache"
	"github.com/dukerupert/notesync/internal/category"
	"github.com/dukerupert/notesync/internal/config"
	"github.com/dukerupert/notesync/internal/database"
	"github.com/dukerupert/notesync/internal/identity"
	"github.com/dukerupert/notesync/internal/remote"
	"github.com/dukerupert/notesync/internal/store"
	notesync "github.com/dukerupert/notesync/internal/sync"
)

// app holds every component built from the configuration.
type app struct {
	db       *sql.DB
	cache    *cache.Cache
	registry *category.Registry
	identity *identity.Manager
	engine   *notesync.Engine
	device   string
}

func openApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	noteStore := store.NewNoteStore(db)
	settingsStore := store.NewSettingsStore(db)

	device, err := resolveDevice(settingsStore, cfg.Device)
	if err != nil {
		db.Close()
		return nil, err
	}

	c := cache.New(noteStore, logger.With("component", "cache"))
	reg := category.NewRegistry(store.NewCategoryStore(db), noteStore, logger.With("component", "category"))

	provider := identity.NewLocalProvider(store.NewAccountStore(db), settingsStore, identity.DefaultParams)
	ids := identity.NewManager(provider, logger.With("component", "identity"))

	rs := newRemote(cfg.Remote, ids, logger.With("component", "remote"))
	engine := notesync.New(c, reg, rs, ids, device, logger.With("component", "sync"))

	if _, err := ids.Restore(ctx); err != nil {
		logger.Warn("restore identity", "error", err)
	}
	if _, err := engine.EnsureAuthenticated(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sign in: %w", err)
	}

	return &app{
		db:       db,
		cache:    c,
		registry: reg,
		identity: ids,
		engine:   engine,
		device:   device,
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

func newRemote(cfg config.Remote, ids remote.IdentitySource, logger *slog.Logger) remote.Store {
	switch cfg.Kind {
	case config.RemoteS3:
		logger.Info("using s3 remote", "bucket", cfg.S3.Bucket, "endpoint", cfg.S3.Endpoint)
		return remote.NewS3Store(cfg.S3, ids, logger)
	case config.RemoteMemory:
		logger.Info("using in-memory remote")
		return remote.NewMemory(ids, logger)
	default:
		logger.Info("no remote configured, notes stay local")
		return remote.Offline{}
	}
}

// resolveDevice picks the origin device name. A configured name is stored
// and used; otherwise the stored name, then the hostname.
func resolveDevice(settings *store.SettingsStore, configured string) (string, error) {
	if configured != "" {
		if err := settings.Set(store.SettingDeviceID, configured); err != nil {
			return "", fmt.Errorf("store device name: %w", err)
		}
		return configured, nil
	}

	stored, ok, err := settings.Lookup(store.SettingDeviceID)
	if err != nil {
		return "", fmt.Errorf("read device name: %w", err)
	}
	if ok && stored != "" {
		return stored, nil
	}

	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown"
	}
	if err := settings.Set(store.SettingDeviceID, host); err != nil {
		return "", fmt.Errorf("store device name: %w", err)
	}
	return host, nil
}
