package main

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"WatchShop/internal/auth"
	"WatchShop/internal/config"
	"WatchShop/pkg/kit"
)

func main() {
	service := "auth"
	cfg := config.LoadAuth()

	log := kit.NewLogger(service, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	var store auth.UserStore = auth.NewMemStore()
	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		db, err := kit.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			cancel()
			log.Fatal("connect postgres failed", zap.Error(err))
		}
		defer func() { _ = db.Close() }()

		ps := auth.NewPostgresStore(db)
		err = ps.EnsureSchema(ctx)
		cancel()
		if err != nil {
			log.Fatal("ensure users schema failed", zap.Error(err))
		}
		store = ps
	} else {
		log.Warn("DATABASE_URL not set, users are kept in memory")
	}

	s := &auth.Server{
		Log:      log,
		Store:    store,
		JWT:      auth.NewTokenMaker(cfg.JWTSecret),
		TokenTTL: cfg.TokenTTL,
		Admins:   auth.AdminSet(cfg.AdminEmails),
	}

	h := auth.NewHandler(s, auth.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       prometheus.NewRegistry(),
		MetricsEnabled: true,
		MetricsToken:   cfg.MetricsToken,
	})

	if err := kit.RunHTTPServer(":"+cfg.Port, h, log, cfg.ShutdownTimeout); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}
