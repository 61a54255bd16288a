package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"nftPool/internal/chain"
	"nftPool/internal/config"
	"nftPool/internal/fees"
	"nftPool/internal/fixedpoint"
	"nftPool/internal/pool"
	"nftPool/internal/royalty"
	"nftPool/internal/storage"
	"nftPool/internal/storage/postgres"
)

// poolEnv is a pool restored from its snapshot store with every sink wired.
// Committed swaps wait in ledger until the snapshot has been saved.
type poolEnv struct {
	pool    *pool.Pool
	store   storage.SnapshotStore
	ledger  *storage.Deferred
	logger  *zap.Logger
	closers []func()
}

func openPool(ctx context.Context, cfg config.Config, logger *zap.Logger) (*poolEnv, error) {
	env := &poolEnv{logger: logger}
	ok := false
	defer func() {
		if !ok {
			env.Close()
		}
	}()

	sinks := []storage.SwapSink{storage.NewLogSink(logger)}
	if cfg.SwapLog != "" {
		sinks = append(sinks, storage.NewJsonlStorage(cfg.SwapLog))
	}
	if cfg.PGDSN != "" {
		pg, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		env.closers = append(env.closers, pg.Close)
		if err := pg.Migrate(ctx); err != nil {
			return nil, err
		}
		env.store = pg
		sinks = append(sinks, pg)
	} else {
		env.store = storage.NewFileStore(cfg.StateDir)
	}

	protocolFee, err := fixedpoint.Parse(cfg.ProtocolFee)
	if err != nil {
		return nil, fmt.Errorf("protocol fee: %w", err)
	}
	carryFee, err := fixedpoint.Parse(cfg.CarryFee)
	if err != nil {
		return nil, fmt.Errorf("carry fee: %w", err)
	}
	registry, err := fees.NewRegistry(protocolFee, carryFee)
	if err != nil {
		return nil, err
	}

	var royalties royalty.Source
	if cfg.RPCURL != "" && cfg.Collection != "" {
		collection, err := config.ParseAddress(cfg.Collection)
		if err != nil {
			return nil, fmt.Errorf("collection: %w", err)
		}
		client, err := chain.NewClient(ctx, cfg.RPCURL)
		if err != nil {
			return nil, fmt.Errorf("connect rpc: %w", err)
		}
		env.closers = append(env.closers, client.Close)
		royalties, err = royalty.NewERC2981Source(royalty.ERC2981Config{Collection: collection}, client, logger)
		if err != nil {
			return nil, err
		}
	}

	poolCfg, err := loadPoolConfig(ctx, env.store, cfg.Pool, logger)
	if err != nil {
		return nil, err
	}

	env.ledger = storage.NewDeferred(storage.NewNotifier(sinks...))
	p, err := pool.New(poolCfg, pool.Deps{
		Protocol:  registry,
		Royalties: royalties,
		Notifier:  env.ledger,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}
	env.pool = p
	ok = true
	return env, nil
}

// loadPoolConfig prefers the stored snapshot and falls back to the
// definition in the config file for a pool that has never traded.
func loadPoolConfig(ctx context.Context, store storage.SnapshotStore, def config.PoolDef, logger *zap.Logger) (pool.Config, error) {
	address, err := config.ParseAddress(def.Address)
	if err != nil {
		return pool.Config{}, fmt.Errorf("pool address: %w", err)
	}
	snap, err := store.LoadPool(ctx, strings.ToLower(address.Hex()))
	switch {
	case err == nil:
		logger.Debug("pool restored", zap.String("pool", snap.Address), zap.String("updated_at", snap.UpdatedAt))
		return storage.ConfigFromSnapshot(snap)
	case errors.Is(err, storage.ErrNotFound):
		logger.Debug("pool built from config", zap.String("pool", address.Hex()))
		return def.Build()
	default:
		return pool.Config{}, fmt.Errorf("load pool: %w", err)
	}
}

// save writes the pool snapshot and then releases queued swaps to the
// ledger. A ledger failure is logged; the snapshot is already durable.
func (e *poolEnv) save(ctx context.Context) error {
	snap, err := storage.SnapshotFromConfig(e.pool.Config())
	if err != nil {
		return err
	}
	if err := e.store.SavePool(ctx, snap); err != nil {
		return fmt.Errorf("save pool: %w", err)
	}
	if err := e.ledger.Flush(ctx); err != nil {
		e.logger.Warn("swap ledger write failed", zap.Error(err))
	}
	return nil
}

func (e *poolEnv) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
}
