// Package main is the batch comparison CLI: run the full model panel over
// a dataset with backtests and write a ranked report (Markdown + CSV).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"

	"market-forecast-lab/internal/compare"
	"market-forecast-lab/internal/dataset"
	"market-forecast-lab/internal/forecast"
	"market-forecast-lab/internal/reporting"
)

func main() {
	input := flag.String("input", "", "Dataset file (.csv or .json)")
	target := flag.String("target", "close", "Target column")
	horizon := flag.Int("horizon", 7, "Days to predict (1-30)")
	window := flag.Int("window", 30, "Working window: last N rows fed to the models (<0 for all)")
	backtestWindow := flag.Int("backtest-window", 7, "Held-out tail length for backtesting")
	outputDir := flag.String("output-dir", "output", "Directory for the generated report files")
	seed := flag.Int64("seed", 0, "Fixed random seed for the noise-injecting models (0 for time-based)")
	verbose := flag.Bool("verbose", false, "Per-model progress logging")
	flag.Parse()

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	if *input == "" {
		logger.Fatal().Msg("--input is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("cancelling comparison")
		cancel()
	}()

	f, err := os.Open(*input)
	if err != nil {
		logger.Fatal().Err(err).Msg("open dataset")
	}
	defer f.Close()

	d, err := dataset.Parse(f, filepath.Base(*input))
	if err != nil {
		logger.Fatal().Err(err).Msg("parse dataset")
	}
	logger.Info().Str("dataset", d.Name).Int("rows", len(d.Rows)).Msg("dataset loaded")

	var regOpts []forecast.Option
	if *seed != 0 {
		regOpts = append(regOpts, forecast.WithSeed(*seed))
	}
	registry := forecast.NewRegistry(regOpts...)

	runner := compare.New(compare.Options{
		Registry:       registry,
		Horizon:        *horizon,
		BacktestWindow: *backtestWindow,
		Window:         *window,
		Logger:         logger,
		OnModel: func(p compare.Progress) {
			logger.Info().
				Str("model", p.ModelID).
				Int("score", p.Evaluation.Score).
				Msgf("evaluated %d/%d", p.Index, p.Total)
		},
	})

	cmp, err := runner.Run(ctx, d.Rows, *target)
	if err != nil {
		logger.Fatal().Err(err).Msg("comparison failed")
	}

	report := reporting.FromComparison(cmp, registry, reporting.Options{
		DatasetName:    d.Name,
		RowCount:       len(d.Rows),
		BacktestWindow: *backtestWindow,
	})

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		logger.Fatal().Err(err).Msg("create output directory")
	}

	mdPath := filepath.Join(*outputDir, "comparison.md")
	if err := os.WriteFile(mdPath, []byte(reporting.RenderMarkdown(report)), 0o644); err != nil {
		logger.Fatal().Err(err).Msg("write markdown report")
	}
	csvPath := filepath.Join(*outputDir, "comparison.csv")
	if err := os.WriteFile(csvPath, []byte(reporting.RenderCSV(report.Rows)), 0o644); err != nil {
		logger.Fatal().Err(err).Msg("write csv report")
	}

	logger.Info().Str("markdown", mdPath).Str("csv", csvPath).Msg("reports written")
	if best, ok := report.Best(); ok {
		fmt.Printf("Best model: %s (score %d)\n", best.DisplayName, best.Score)
	}
}
