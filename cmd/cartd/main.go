package main

import (
	"context"
	"database/sql"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	_ "github.com/jackc/pgx/v5/stdlib"

	"PawMart/internal/cartapi"
	"PawMart/internal/identity"
	"PawMart/pkg/kit"
)

func main() {
	service := "cartd"
	env := getenv("APP_ENV", "prod")

	log := kit.NewLogger(service, env)
	defer func() { _ = log.Sync() }()

	port := getenv("PORT", "8084")

	store, err := buildStore(os.Getenv("CART_DB_URL"), log)
	if err != nil {
		log.Fatal("store init failed", zap.Error(err))
	}

	var jwt *identity.TokenMaker
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		jwt = identity.NewTokenMaker(secret)
	}

	s := &cartapi.Server{
		Store: store,
		Log:   log,
		JWT:   jwt,
	}

	h := cartapi.NewHandler(s, cartapi.HTTPDeps{
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

func buildStore(dbURL string, log *zap.Logger) (cartapi.Store, error) {
	if dbURL == "" {
		log.Info("no CART_DB_URL, using in-memory store")
		return cartapi.NewMemStore(), nil
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		return nil, err
	}

	pg := cartapi.NewPostgresStore(db)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pg.EnsureSchema(ctx); err != nil {
		return nil, err
	}

	return pg, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
