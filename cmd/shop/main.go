package main

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"WatchShop/internal/catalog"
	"WatchShop/internal/config"
	"WatchShop/internal/shop"
	"WatchShop/pkg/kit"
)

const restoreTimeout = 15 * time.Second

func main() {
	service := "shop"
	cfg := config.LoadShop()

	log := kit.NewLogger(service, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	snaps, closeSnaps, err := openSnapshots(cfg, log)
	if err != nil {
		log.Fatal("open snapshot backend failed", zap.Error(err), zap.String("backend", cfg.SnapshotBackend))
	}
	defer closeSnaps()

	durable := &catalog.Durable{
		Store:     catalog.NewStore(),
		Snapshots: snaps,
		Log:       log,
	}

	ctx, cancel := context.WithTimeout(context.Background(), restoreTimeout)
	err = durable.Restore(ctx)
	cancel()
	if err != nil {
		log.Fatal("restore catalog failed", zap.Error(err))
	}

	s := &shop.Server{
		Catalog:   durable.Store,
		Snapshots: snaps,
		Log:       log,
	}

	h := shop.NewHandler(s, shop.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       prometheus.NewRegistry(),
		MetricsEnabled: true,
		MetricsToken:   cfg.MetricsToken,
	})

	serveErr := kit.RunHTTPServer(":"+cfg.Port, h, log, cfg.ShutdownTimeout)

	// The server has drained, so no purchase is in flight while saving.
	ctx, cancel = context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := durable.Save(ctx); err != nil {
		log.Error("save catalog failed", zap.Error(err))
	}

	if serveErr != nil {
		log.Fatal("http server stopped", zap.Error(serveErr))
	}
}

func openSnapshots(cfg config.Shop, log *zap.Logger) (catalog.SnapshotStore, func(), error) {
	switch cfg.SnapshotBackend {
	case config.SnapshotFile:
		log.Info("snapshot backend: file", zap.String("path", cfg.SnapshotPath))
		return catalog.NewFileSnapshotStore(cfg.SnapshotPath), func() {}, nil

	case config.SnapshotPostgres:
		ctx, cancel := context.WithTimeout(context.Background(), restoreTimeout)
		defer cancel()

		db, err := kit.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		ps := catalog.NewPostgresSnapshotStore(db)
		if err := ps.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		log.Info("snapshot backend: postgres")
		return ps, func() { _ = db.Close() }, nil

	case config.SnapshotRedis:
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(opt)
		log.Info("snapshot backend: redis", zap.String("key", cfg.SnapshotKey))
		return catalog.NewRedisSnapshotStore(rdb, cfg.SnapshotKey), func() { _ = rdb.Close() }, nil

	case config.SnapshotNone:
		log.Warn("snapshot backend: none, catalog will not survive restarts")
		return catalog.NewMemSnapshotStore(), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown snapshot backend %q", cfg.SnapshotBackend)
	}
}
