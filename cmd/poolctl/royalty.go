package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nftPool/internal/chain"
	"nftPool/internal/config"
	"nftPool/internal/royalty"
)

type recipientView struct {
	Item      string `json:"item"`
	Recipient string `json:"recipient,omitempty"`
}

func runRoyalty(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadRoyalty(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	collection, err := config.ParseAddress(cfg.Collection)
	if err != nil {
		return fmt.Errorf("collection: %w", err)
	}
	items, err := config.ParseIDs(cfg.IDs)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return fmt.Errorf("id list is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer client.Close()

	chainID, err := client.GetChainID(ctx)
	if err != nil {
		return fmt.Errorf("chain id: %w", err)
	}

	src, err := royalty.NewERC2981Source(royalty.ERC2981Config{
		Collection:   collection,
		CacheSize:    cfg.CacheSize,
		Concurrency:  cfg.Concurrency,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}, client, logger)
	if err != nil {
		return err
	}

	logger.Info("royalty lookup start",
		zap.String("rpc", cfg.RPCURL),
		zap.String("chain_id", chainID.String()),
		zap.String("collection", collection.Hex()),
		zap.Int("ids", len(items)),
	)

	recipients, err := src.Recipients(ctx, items)
	if err != nil {
		return err
	}
	out := make([]recipientView, len(items))
	for i, item := range items {
		out[i] = recipientView{Item: item.Dec()}
		if recipients[i] != nil {
			out[i].Recipient = recipients[i].Hex()
		}
	}
	return printJSON(out)
}
