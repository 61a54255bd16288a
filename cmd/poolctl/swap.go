package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nftPool/internal/config"
	"nftPool/internal/filter"
	"nftPool/internal/fixedpoint"
	"nftPool/internal/pool"
)

func runSwap(cmd *cobra.Command, args []string) error {
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
	maxInput, err := optionalAmount(cmd, "max-input")
	if err != nil {
		return err
	}
	minOutput, err := optionalAmount(cmd, "min-output")
	if err != nil {
		return err
	}
	var recipient common.Address
	if raw, _ := cmd.Flags().GetString("recipient"); raw != "" {
		if recipient, err = config.ParseAddress(raw); err != nil {
			return fmt.Errorf("recipient: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, err := openPool(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer env.Close()

	var s pool.Settlement
	if args[0] == "buy" {
		s, err = env.pool.SwapForItems(ctx, pool.SwapForItemsRequest{
			IDs:       items,
			Count:     count,
			MaxInput:  maxInput,
			Recipient: recipient,
		})
	} else {
		req := pool.SwapForAssetRequest{IDs: items, MinOutput: minOutput, Recipient: recipient}
		if req.Proof, req.Flags, err = proveSale(env.pool.Config().Filter, items); err != nil {
			return err
		}
		s, err = env.pool.SwapForAsset(ctx, req)
	}

	if err == nil {
		if err = env.save(ctx); err == nil {
			logger.Info("pool saved", zap.String("pool", env.pool.Address().Hex()))
		}
	}

	view := newQuoteView(s.Quote, err)
	view.Recipient = s.Recipient.Hex()
	if printErr := printJSON(view); printErr != nil {
		return printErr
	}
	return err
}

// proveSale builds the multiproof for items from the encoded id set stored
// with the filter. Unfiltered pools need no proof.
func proveSale(f filter.Filter, items []*uint256.Int) ([]common.Hash, []bool, error) {
	if !f.Enabled() {
		return nil, nil, nil
	}
	if len(f.Encoded) == 0 {
		return nil, nil, fmt.Errorf("pool filter has no encoded id set to prove against")
	}
	set, err := filter.Decode(f.Encoded)
	if err != nil {
		return nil, nil, err
	}
	tree, err := filter.NewTree(set)
	if err != nil {
		return nil, nil, err
	}
	if tree.Root() != f.Root {
		return nil, nil, fmt.Errorf("encoded id set does not match filter root %s", f.Root.Hex())
	}
	mp, err := tree.MultiProof(items)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", pool.ErrNFTsNotAccepted, err)
	}
	return mp.Proof, mp.Flags, nil
}

func optionalAmount(cmd *cobra.Command, name string) (*uint256.Int, error) {
	raw, _ := cmd.Flags().GetString(name)
	if raw == "" {
		return nil, nil
	}
	v, err := fixedpoint.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}
