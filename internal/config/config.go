// Package config loads runtime configuration for the shop, auth and gateway
// binaries from environment variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	SnapshotFile     = "file"
	SnapshotPostgres = "postgres"
	SnapshotRedis    = "redis"
	SnapshotNone     = "none"
)

// Common holds the knobs every binary shares.
type Common struct {
	Port            string
	LogLevel        string
	MetricsToken    string
	ShutdownTimeout time.Duration
}

type Shop struct {
	Common

	SnapshotBackend string
	SnapshotPath    string
	SnapshotKey     string
	DatabaseURL     string
	RedisURL        string
}

type Auth struct {
	Common

	JWTSecret   string
	TokenTTL    time.Duration
	DatabaseURL string
	AdminEmails []string
}

type Gateway struct {
	Common

	JWTSecret string
	AuthURL   string
	ShopURL   string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func durenvs(key string, defSec int) time.Duration {
	return time.Duration(atoienv(key, defSec)) * time.Second
}

func listenv(key string) []string {
	var out []string
	for _, p := range strings.Split(getenv(key, ""), ",") {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func loadCommon(defPort string) Common {
	return Common{
		Port:            getenv("PORT", defPort),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		MetricsToken:    os.Getenv("METRICS_TOKEN"),
		ShutdownTimeout: durenvs("SHUTDOWN_TIMEOUT", 10),
	}
}

// LoadShop defaults to a file snapshot unless DATABASE_URL or REDIS_URL
// point at a shared backend.
func LoadShop() Shop {
	def := SnapshotFile
	switch {
	case os.Getenv("DATABASE_URL") != "":
		def = SnapshotPostgres
	case os.Getenv("REDIS_URL") != "":
		def = SnapshotRedis
	}

	return Shop{
		Common:          loadCommon("8082"),
		SnapshotBackend: strings.ToLower(getenv("SNAPSHOT_BACKEND", def)),
		SnapshotPath:    getenv("SNAPSHOT_PATH", "data/catalog.json"),
		SnapshotKey:     getenv("SNAPSHOT_KEY", "watchshop:catalog:snapshot"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
	}
}

func LoadAuth() Auth {
	return Auth{
		Common:      loadCommon("8081"),
		JWTSecret:   getenv("JWT_SECRET", "dev-secret"),
		TokenTTL:    time.Duration(atoienv("TOKEN_TTL_MIN", 15)) * time.Minute,
		DatabaseURL: os.Getenv("DATABASE_URL"),
		AdminEmails: listenv("ADMIN_EMAILS"),
	}
}

func LoadGateway() Gateway {
	return Gateway{
		Common:    loadCommon("8080"),
		JWTSecret: os.Getenv("JWT_SECRET"),
		AuthURL:   getenv("AUTH_URL", "http://auth:8081"),
		ShopURL:   getenv("SHOP_URL", "http://shop:8082"),
	}
}
