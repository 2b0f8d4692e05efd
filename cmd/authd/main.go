package main

import (
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"PawMart/internal/identity"
	"PawMart/pkg/kit"
)

func main() {
	service := "authd"
	env := getenv("APP_ENV", "prod")

	log := kit.NewLogger(service, env)
	defer func() { _ = log.Sync() }()

	port := getenv("PORT", "8081")
	secret := getenv("JWT_SECRET", "dev-secret-change-me")

	s := &identity.Server{
		Log:   log,
		Store: identity.NewMemStore(),
		JWT:   identity.NewTokenMaker(secret),
	}

	h := identity.NewHandler(s, identity.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       prometheus.NewRegistry(),
		MetricsEnabled: os.Getenv("METRICS_ENABLED") == "true",
		MetricsToken:   os.Getenv("METRICS_TOKEN"),
	})

	if err := kit.RunHTTPServer(":"+port, h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
