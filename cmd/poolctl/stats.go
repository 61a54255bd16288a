package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nftPool/internal/aggregate"
	"nftPool/internal/config"
	"nftPool/internal/storage"
	"nftPool/internal/storage/postgres"
)

func runStats(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadStats(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Input == "" {
		return fmt.Errorf("input file is required")
	}
	windowSeconds, err := cfg.WindowSeconds()
	if err != nil {
		return err
	}
	from, err := config.ParseTimestamp(cfg.From)
	if err != nil {
		return fmt.Errorf("invalid from: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sink aggregate.Sink
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.Migrate(ctx); err != nil {
			return err
		}
		sink = store
	}

	logger.Info("stats start",
		zap.String("in", cfg.Input),
		zap.Uint64("window_seconds", windowSeconds),
		zap.Uint64("from", from),
		zap.Bool("postgres", sink != nil),
	)

	agg := aggregate.NewAggregator(aggregate.Config{
		WindowSeconds: windowSeconds,
		BatchSize:     cfg.BatchSize,
		From:          from,
	}, sink, logger)
	metrics, err := agg.Run(ctx, cfg.Input)
	if err != nil {
		return err
	}
	return printJSON(metrics)
}

func runImport(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadStats(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.PGDSN == "" {
		return fmt.Errorf("pg dsn is required")
	}
	records, err := storage.ReadSwaps(cfg.Input)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer store.Close()
	if err := store.Migrate(ctx); err != nil {
		return err
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 1000
	}
	for start := 0; start < len(records); start += batchSize {
		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}
		if err := store.PutSwaps(ctx, records[start:end]); err != nil {
			return fmt.Errorf("import swaps %d-%d: %w", start, end, err)
		}
		logger.Debug("swap batch imported", zap.Int("from", start), zap.Int("to", end))
	}

	logger.Info("swap import done", zap.String("in", cfg.Input), zap.Int("records", len(records)))
	return nil
}
