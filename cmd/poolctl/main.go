package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	root := &cobra.Command{
		Use:          "poolctl",
		Short:        "Bonding-curve NFT pool tooling",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-file", "", "optional rotated log file (stderr when empty)")

	quoteCmd := &cobra.Command{
		Use:       "quote [buy|sell]",
		Short:     "Price a trade against the configured pool without executing it",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"buy", "sell"},
		RunE:      runQuote,
	}
	quoteCmd.Flags().Uint64("count", 0, "number of items (buy, or sell without ids)")
	quoteCmd.Flags().StringSlice("ids", nil, "item ids (comma-separated)")
	addPoolFlags(quoteCmd)
	root.AddCommand(quoteCmd)

	swapCmd := &cobra.Command{
		Use:       "swap [buy|sell]",
		Short:     "Execute a trade against the configured pool and persist the result",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"buy", "sell"},
		RunE:      runSwap,
	}
	swapCmd.Flags().Uint64("count", 0, "number of items to buy when no ids are given")
	swapCmd.Flags().StringSlice("ids", nil, "item ids (comma-separated)")
	swapCmd.Flags().String("max-input", "", "maximum amount paid on a buy (decimal)")
	swapCmd.Flags().String("min-output", "", "minimum amount received on a sell (decimal)")
	swapCmd.Flags().String("recipient", "", "recipient address recorded on the settlement")
	addPoolFlags(swapCmd)
	root.AddCommand(swapCmd)

	root.AddCommand(newFilterCmd())

	royaltyCmd := &cobra.Command{
		Use:   "royalty",
		Short: "Look up ERC-2981 royalty recipients for item ids",
		RunE:  runRoyalty,
	}
	royaltyCmd.Flags().String("rpc", "", "RPC URL")
	royaltyCmd.Flags().String("collection", "", "collection contract address")
	royaltyCmd.Flags().StringSlice("ids", nil, "item ids (comma-separated)")
	royaltyCmd.Flags().Int("cache-size", 4096, "recipient cache size")
	royaltyCmd.Flags().Int("concurrency", 8, "parallel royaltyInfo calls")
	royaltyCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	royaltyCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	root.AddCommand(royaltyCmd)

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Aggregate the swap ledger into per-pool window metrics",
		RunE:  runStats,
	}
	statsCmd.Flags().String("in", "./data/swaps.jsonl", "input swap ledger JSONL")
	statsCmd.Flags().String("window", "1h", "aggregation window (e.g. 1m, 5m, 1h)")
	statsCmd.Flags().String("pg-dsn", "", "Postgres DSN; metrics are upserted when set")
	statsCmd.Flags().Int("batch-size", 1000, "batch size for DB writes")
	statsCmd.Flags().String("from", "", "only swaps at or after this time (unix seconds or RFC3339)")
	root.AddCommand(statsCmd)

	importCmd := &cobra.Command{
		Use:   "import-swaps",
		Short: "Load the JSONL swap ledger into Postgres",
		RunE:  runImport,
	}
	importCmd.Flags().String("in", "./data/swaps.jsonl", "input swap ledger JSONL")
	importCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	importCmd.Flags().Int("batch-size", 1000, "batch size for DB writes")
	root.AddCommand(importCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addPoolFlags(cmd *cobra.Command) {
	cmd.Flags().String("state-dir", "./data/pools", "directory of pool snapshots")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN; replaces the state dir when set")
	cmd.Flags().String("swap-log", "./data/swaps.jsonl", "JSONL swap ledger")
	cmd.Flags().String("rpc", "", "RPC URL for ERC-2981 royalty lookups")
	cmd.Flags().String("collection", "", "collection address for ERC-2981 royalty lookups")
}

func newLogger(level, file string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if file == "" {
		return cfg.Build()
	}

	writer := zapcore.AddSync(&lumberjack.Logger{
		Filename:   file,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     28,
		Compress:   true,
	})
	core := zapcore.NewCore(zapcore.NewJSONEncoder(cfg.EncoderConfig), writer, cfg.Level)
	return zap.New(core, zap.AddCaller()), nil
}
