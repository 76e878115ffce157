package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"WatchShop/internal/config"
	"WatchShop/internal/gateway"
	"WatchShop/pkg/kit"
)

func main() {
	service := "gateway"
	cfg := config.LoadGateway()

	log := kit.NewLogger(service, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	if len(cfg.JWTSecret) < 32 {
		log.Fatal("JWT_SECRET is required and must be at least 32 chars")
	}

	h, err := gateway.NewHandler(gateway.Deps{
		JWTSecret: cfg.JWTSecret,
		AuthURL:   cfg.AuthURL,
		ShopURL:   cfg.ShopURL,
	}, gateway.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       prometheus.NewRegistry(),
		MetricsEnabled: true,
		MetricsToken:   cfg.MetricsToken,
	})
	if err != nil {
		log.Fatal("init gateway handler failed", zap.Error(err))
	}

	if err := kit.RunHTTPServer(":"+cfg.Port, h, log, cfg.ShutdownTimeout); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}
