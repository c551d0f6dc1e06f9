// Package main runs the forecasting API server: dataset upload, model
// catalog, prediction, comparison with a WebSocket progress stream, and
// Prometheus metrics.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"market-forecast-lab/internal/forecast"
	"market-forecast-lab/internal/server"
	"market-forecast-lab/internal/storage"
	chstore "market-forecast-lab/internal/storage/clickhouse"
	"market-forecast-lab/internal/storage/memory"
	"market-forecast-lab/internal/storage/migrations"
	pgstore "market-forecast-lab/internal/storage/postgres"
)

func main() {
	loadEnvFile()

	// Parse flags (env vars as defaults)
	host := flag.String("host", envOr("HOST", "0.0.0.0"), "Listen host")
	port := flag.Int("port", envIntOr("PORT", 8080), "Listen port")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string (empty for in-memory)")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string (empty for in-memory)")
	seed := flag.Int64("seed", 0, "Fixed random seed for the noise-injecting models (0 for time-based)")
	logJSON := flag.Bool("log-json", false, "JSON log output instead of console")
	logLevel := flag.String("log-level", envOr("LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")
	flag.Parse()

	logger := newLogger(*logJSON, *logLevel)

	if (*postgresDSN == "") != (*clickhouseDSN == "") {
		logger.Fatal().Msg("--postgres-dsn and --clickhouse-dsn must be set together (or both empty for in-memory storage)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("create stores")
	}
	defer cleanup()

	var regOpts []forecast.Option
	if *seed != 0 {
		regOpts = append(regOpts, forecast.WithSeed(*seed))
	}

	srv := server.New(server.Options{
		Registry:    forecast.NewRegistry(regOpts...),
		Datasets:    stores.datasets,
		Runs:        stores.runs,
		Evaluations: stores.evals,
		Host:        *host,
		Port:        *port,
		Logger:      logger,
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server failed")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}
}

// appStores bundles the three store interfaces the server needs.
type appStores struct {
	datasets storage.DatasetStore
	runs     storage.ForecastRunStore
	evals    storage.EvaluationStore
}

// createStores wires either the in-memory backends or Postgres plus
// ClickHouse, applying embedded migrations for the latter.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, logger zerolog.Logger) (*appStores, func(), error) {
	if postgresDSN == "" {
		logger.Info().Msg("using in-memory storage")
		stores := &appStores{
			datasets: memory.NewDatasetStore(),
			runs:     memory.NewForecastRunStore(),
			evals:    memory.NewEvaluationStore(),
		}
		return stores, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	chConn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}

	logger.Info().Msg("connected to postgres and clickhouse")
	stores := &appStores{
		datasets: pgstore.NewDatasetStore(pool),
		runs:     chstore.NewForecastRunStore(chConn),
		evals:    pgstore.NewEvaluationStore(pool),
	}
	cleanup := func() {
		chConn.Close()
		pool.Close()
	}
	return stores, cleanup, nil
}

func newLogger(jsonOut bool, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	if jsonOut {
		return zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).Level(lvl).With().Timestamp().Logger()
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
