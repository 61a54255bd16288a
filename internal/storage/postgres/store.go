package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"nftPool/internal/model"
	"nftPool/internal/storage"
)

// Store provides Postgres persistence for pool snapshots and the swap ledger.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS pools (
	pool_address      TEXT PRIMARY KEY,
	owner             TEXT NOT NULL,
	mode              TEXT NOT NULL,
	curve             TEXT NOT NULL,
	spot_price        NUMERIC(78,0) NOT NULL,
	delta             NUMERIC(78,0) NOT NULL,
	curve_props       TEXT NOT NULL DEFAULT '',
	curve_state       TEXT NOT NULL DEFAULT '',
	trade_fee         NUMERIC(78,0) NOT NULL,
	royalty_numerator NUMERIC(78,0) NOT NULL,
	royalty_fallback  TEXT NOT NULL DEFAULT '',
	filter_root       TEXT NOT NULL,
	filter_encoded    TEXT NOT NULL DEFAULT '',
	items             TEXT[] NOT NULL,
	reserve           NUMERIC(78,0) NOT NULL,
	destroyed         BOOLEAN NOT NULL DEFAULT false,
	created_at        TIMESTAMPTZ NOT NULL,
	updated_at        TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS pool_swaps (
	id            BIGSERIAL PRIMARY KEY,
	pool_address  TEXT NOT NULL,
	mode          TEXT NOT NULL,
	recipient     TEXT NOT NULL,
	direction     TEXT NOT NULL,
	items         TEXT[] NOT NULL,
	unit_prices   TEXT[] NOT NULL,
	raw_total     NUMERIC(78,0) NOT NULL,
	principal     NUMERIC(78,0) NOT NULL,
	trade_fee     NUMERIC(78,0) NOT NULL,
	protocol_fee  NUMERIC(78,0) NOT NULL,
	royalty_total NUMERIC(78,0) NOT NULL,
	amount        NUMERIC(78,0) NOT NULL,
	spot_price    NUMERIC(78,0) NOT NULL,
	royalties     JSONB NOT NULL,
	executed_at   TIMESTAMPTZ NOT NULL
);
ALTER TABLE pool_swaps ADD COLUMN IF NOT EXISTS mode TEXT NOT NULL DEFAULT '';
CREATE INDEX IF NOT EXISTS pool_swaps_pool_idx ON pool_swaps (pool_address, executed_at);
CREATE TABLE IF NOT EXISTS pool_window_metrics (
	pool_address        TEXT NOT NULL,
	window_size_seconds BIGINT NOT NULL,
	window_start_ts     TIMESTAMPTZ NOT NULL,
	window_end_ts       TIMESTAMPTZ NOT NULL,
	swap_count          BIGINT NOT NULL,
	buy_count           BIGINT NOT NULL,
	sell_count          BIGINT NOT NULL,
	item_count          BIGINT NOT NULL,
	volume              NUMERIC(78,0) NOT NULL,
	trade_fees          NUMERIC(78,0) NOT NULL,
	protocol_fees       NUMERIC(78,0) NOT NULL,
	royalties           NUMERIC(78,0) NOT NULL,
	close_spot          NUMERIC(78,0) NOT NULL,
	created_at          TIMESTAMPTZ NOT NULL,
	updated_at          TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (pool_address, window_size_seconds, window_start_ts)
);
`

// Migrate creates the tables the store writes to.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// SavePool inserts or updates a pool snapshot.
func (s *Store) SavePool(ctx context.Context, snap model.PoolSnapshot) error {
	if snap.Address == "" {
		return fmt.Errorf("snapshot address is required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO pools (
			pool_address, owner, mode, curve, spot_price, delta, curve_props, curve_state,
			trade_fee, royalty_numerator, royalty_fallback, filter_root, filter_encoded,
			items, reserve, destroyed, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,now(),now())
		ON CONFLICT (pool_address)
		DO UPDATE SET
			owner = EXCLUDED.owner,
			mode = EXCLUDED.mode,
			curve = EXCLUDED.curve,
			spot_price = EXCLUDED.spot_price,
			delta = EXCLUDED.delta,
			curve_props = EXCLUDED.curve_props,
			curve_state = EXCLUDED.curve_state,
			trade_fee = EXCLUDED.trade_fee,
			royalty_numerator = EXCLUDED.royalty_numerator,
			royalty_fallback = EXCLUDED.royalty_fallback,
			filter_root = EXCLUDED.filter_root,
			filter_encoded = EXCLUDED.filter_encoded,
			items = EXCLUDED.items,
			reserve = EXCLUDED.reserve,
			destroyed = EXCLUDED.destroyed,
			updated_at = now()
	`,
		strings.ToLower(snap.Address),
		snap.Owner,
		snap.Mode,
		snap.Curve,
		snap.SpotPrice,
		snap.Delta,
		snap.CurveProps,
		snap.CurveState,
		snap.TradeFee,
		snap.RoyaltyNumerator,
		snap.RoyaltyFallback,
		snap.FilterRoot,
		snap.FilterEncoded,
		nonNil(snap.Items),
		snap.Reserve,
		snap.Destroyed,
	)
	return err
}

// LoadPool returns the stored snapshot for address.
func (s *Store) LoadPool(ctx context.Context, address string) (model.PoolSnapshot, error) {
	var (
		snap      model.PoolSnapshot
		updatedAt time.Time
	)
	row := s.pool.QueryRow(ctx, `
		SELECT pool_address, owner, mode, curve, spot_price::text, delta::text, curve_props, curve_state,
			trade_fee::text, royalty_numerator::text, royalty_fallback, filter_root, filter_encoded,
			items, reserve::text, destroyed, updated_at
		FROM pools WHERE pool_address = $1
	`, strings.ToLower(address))
	err := row.Scan(
		&snap.Address,
		&snap.Owner,
		&snap.Mode,
		&snap.Curve,
		&snap.SpotPrice,
		&snap.Delta,
		&snap.CurveProps,
		&snap.CurveState,
		&snap.TradeFee,
		&snap.RoyaltyNumerator,
		&snap.RoyaltyFallback,
		&snap.FilterRoot,
		&snap.FilterEncoded,
		&snap.Items,
		&snap.Reserve,
		&snap.Destroyed,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.PoolSnapshot{}, fmt.Errorf("%w: %s", storage.ErrNotFound, address)
		}
		return model.PoolSnapshot{}, err
	}
	snap.UpdatedAt = updatedAt.UTC().Format(time.RFC3339Nano)
	return snap, nil
}

// PutSwap appends a committed swap to the ledger.
func (s *Store) PutSwap(ctx context.Context, record model.SwapRecord) error {
	royalties, err := json.Marshal(nonNilRoyalties(record.Royalties))
	if err != nil {
		return fmt.Errorf("marshal royalties: %w", err)
	}
	executedAt, err := time.Parse(time.RFC3339Nano, record.ExecutedAt)
	if err != nil {
		return fmt.Errorf("parse executed_at: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO pool_swaps (
			pool_address, mode, recipient, direction, items, unit_prices, raw_total, principal,
			trade_fee, protocol_fee, royalty_total, amount, spot_price, royalties, executed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`,
		record.Pool,
		record.Mode,
		record.Recipient,
		record.Direction,
		nonNil(record.Items),
		nonNil(record.UnitPrices),
		record.RawTotal,
		record.Principal,
		record.TradeFee,
		record.ProtocolFee,
		record.RoyaltyTotal,
		record.Amount,
		record.SpotPrice,
		royalties,
		executedAt,
	)
	return err
}

// PutSwaps appends records in one batch.
func (s *Store) PutSwaps(ctx context.Context, records []model.SwapRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, record := range records {
		royalties, err := json.Marshal(nonNilRoyalties(record.Royalties))
		if err != nil {
			return fmt.Errorf("marshal royalties: %w", err)
		}
		executedAt, err := time.Parse(time.RFC3339Nano, record.ExecutedAt)
		if err != nil {
			return fmt.Errorf("parse executed_at: %w", err)
		}
		batch.Queue(`
			INSERT INTO pool_swaps (
				pool_address, mode, recipient, direction, items, unit_prices, raw_total, principal,
				trade_fee, protocol_fee, royalty_total, amount, spot_price, royalties, executed_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		`,
			record.Pool,
			record.Mode,
			record.Recipient,
			record.Direction,
			nonNil(record.Items),
			nonNil(record.UnitPrices),
			record.RawTotal,
			record.Principal,
			record.TradeFee,
			record.ProtocolFee,
			record.RoyaltyTotal,
			record.Amount,
			record.SpotPrice,
			royalties,
			executedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// UpsertWindowMetrics inserts or updates window metrics.
func (s *Store) UpsertWindowMetrics(ctx context.Context, metrics []model.PoolWindowMetrics) error {
	if len(metrics) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, m := range metrics {
		batch.Queue(`
			INSERT INTO pool_window_metrics (
				pool_address, window_size_seconds, window_start_ts, window_end_ts,
				swap_count, buy_count, sell_count, item_count, volume, trade_fees,
				protocol_fees, royalties, close_spot, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,now(),now())
			ON CONFLICT (pool_address, window_size_seconds, window_start_ts)
			DO UPDATE SET
				window_end_ts = EXCLUDED.window_end_ts,
				swap_count = EXCLUDED.swap_count,
				buy_count = EXCLUDED.buy_count,
				sell_count = EXCLUDED.sell_count,
				item_count = EXCLUDED.item_count,
				volume = EXCLUDED.volume,
				trade_fees = EXCLUDED.trade_fees,
				protocol_fees = EXCLUDED.protocol_fees,
				royalties = EXCLUDED.royalties,
				close_spot = EXCLUDED.close_spot,
				updated_at = now()
		`,
			m.PoolAddress,
			m.WindowSizeSecs,
			m.WindowStart,
			m.WindowEnd,
			int64(m.SwapCount),
			int64(m.BuyCount),
			int64(m.SellCount),
			int64(m.ItemCount),
			m.Volume,
			m.TradeFees,
			m.ProtocolFees,
			m.Royalties,
			orZero(m.CloseSpot),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range metrics {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func orZero(value string) string {
	if value == "" {
		return "0"
	}
	return value
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func nonNilRoyalties(values []model.RoyaltyRecord) []model.RoyaltyRecord {
	if values == nil {
		return []model.RoyaltyRecord{}
	}
	return values
}

var (
	_ storage.SnapshotStore = (*Store)(nil)
	_ storage.SwapSink      = (*Store)(nil)
)
