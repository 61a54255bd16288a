package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"nftPool/internal/config"
	"nftPool/internal/pool"
)

func runQuote(cmd *cobra.Command, args []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer logger.Sync()

	rawIDs, _ := cmd.Flags().GetStringSlice("ids")
	items, err := config.ParseIDs(rawIDs)
	if err != nil {
		return err
	}
	count, _ := cmd.Flags().GetUint64("count")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, err := openPool(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer env.Close()

	var q pool.Quote
	switch {
	case args[0] == "buy":
		q, err = env.pool.BuyQuote(ctx, count)
	case len(items) > 0:
		q, err = env.pool.SellQuoteForItems(ctx, items)
	default:
		q, err = env.pool.SellQuote(ctx, count)
	}
	if printErr := printJSON(newQuoteView(q, err)); printErr != nil {
		return printErr
	}
	return err
}
