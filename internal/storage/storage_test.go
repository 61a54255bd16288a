package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"nftPool/internal/curve"
	"nftPool/internal/fees"
	"nftPool/internal/filter"
	"nftPool/internal/fixedpoint"
	"nftPool/internal/model"
	"nftPool/internal/pool"
	"nftPool/internal/royalty"
)

func ids(values ...uint64) []*uint256.Int {
	out := make([]*uint256.Int, len(values))
	for i, v := range values {
		out[i] = uint256.NewInt(v)
	}
	return out
}

func sigmoidConfig(t *testing.T) pool.Config {
	t.Helper()
	tree, err := filter.NewTree(ids(1, 2, 3))
	require.NoError(t, err)
	f, err := tree.Filter()
	require.NoError(t, err)

	fallback := common.HexToAddress("0x00000000000000000000000000000000000000c2")
	return pool.Config{
		Address: common.HexToAddress("0x00000000000000000000000000000000000000bb"),
		Owner:   common.HexToAddress("0x00000000000000000000000000000000000000aa"),
		Mode:    fees.ModeTrade,
		State: curve.PriceState{
			Kind:      curve.KindSigmoid,
			SpotPrice: fixedpoint.FromUint64(3),
			Delta:     uint256.NewInt(1024),
			Sigmoid: &curve.SigmoidParams{
				PMin:   fixedpoint.FromUint64(1),
				DeltaP: fixedpoint.FromUint64(4),
				Index:  -7,
			},
		},
		TradeFee: uint256.NewInt(5e16),
		Royalty:  royalty.Config{Numerator: uint256.NewInt(1e17), Fallback: &fallback},
		Filter:   f,
		Items:    ids(3, 1),
		Reserve:  fixedpoint.FromUint64(10),
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	cfg := sigmoidConfig(t)
	snap, err := SnapshotFromConfig(cfg)
	require.NoError(t, err)
	require.Equal(t, "trade", snap.Mode)
	require.Equal(t, "sigmoid", snap.Curve)
	require.NotEmpty(t, snap.CurveProps)
	require.NotEmpty(t, snap.FilterEncoded)
	require.Equal(t, []string{"3", "1"}, snap.Items)

	back, err := ConfigFromSnapshot(snap)
	require.NoError(t, err)
	require.True(t, cfg.State.Equal(back.State))
	back.State = cfg.State
	require.Equal(t, cfg, back)
}

func TestSnapshotLinearHasNoCurveBlobs(t *testing.T) {
	cfg := pool.Config{
		Mode:  fees.ModeNFT,
		State: curve.PriceState{Kind: curve.KindLinear, SpotPrice: uint256.NewInt(100), Delta: uint256.NewInt(10)},
		Items: ids(1),
	}
	snap, err := SnapshotFromConfig(cfg)
	require.NoError(t, err)
	require.Empty(t, snap.CurveProps)
	require.Empty(t, snap.CurveState)
	require.Empty(t, snap.RoyaltyFallback)

	back, err := ConfigFromSnapshot(snap)
	require.NoError(t, err)
	require.True(t, cfg.State.Equal(back.State))
	require.Nil(t, back.Royalty.Fallback)
	require.Equal(t, uint256.NewInt(0), back.Reserve)
}

func TestConfigFromSnapshotRejectsGarbage(t *testing.T) {
	base, err := SnapshotFromConfig(sigmoidConfig(t))
	require.NoError(t, err)

	cases := map[string]func(s *model.PoolSnapshot){
		"mode":     func(s *model.PoolSnapshot) { s.Mode = "lend" },
		"curve":    func(s *model.PoolSnapshot) { s.Curve = "cubic" },
		"spot":     func(s *model.PoolSnapshot) { s.SpotPrice = "-1" },
		"props":    func(s *model.PoolSnapshot) { s.CurveProps = "0x12" },
		"hex":      func(s *model.PoolSnapshot) { s.FilterEncoded = "zz" },
		"item":     func(s *model.PoolSnapshot) { s.Items = []string{"one"} },
		"fallback": func(s *model.PoolSnapshot) { s.RoyaltyFallback = "0x1234" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			snap := base
			snap.Items = append([]string(nil), base.Items...)
			mutate(&snap)
			_, err := ConfigFromSnapshot(snap)
			require.Error(t, err)
		})
	}
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "pools"))

	_, err := store.LoadPool(ctx, "0xbb")
	require.ErrorIs(t, err, ErrNotFound)

	snap, err := SnapshotFromConfig(sigmoidConfig(t))
	require.NoError(t, err)
	require.NoError(t, store.SavePool(ctx, snap))

	snap.Reserve = "1"
	require.NoError(t, store.SavePool(ctx, snap))

	loaded, err := store.LoadPool(ctx, common.HexToAddress(snap.Address).Hex())
	require.NoError(t, err)
	require.Equal(t, snap, loaded)

	require.Error(t, store.SavePool(ctx, model.PoolSnapshot{}))
}

func newLinearPool(t *testing.T, notifier pool.Notifier) *pool.Pool {
	t.Helper()
	reg, err := fees.NewRegistry(uint256.NewInt(0), uint256.NewInt(0))
	require.NoError(t, err)
	p, err := pool.New(pool.Config{
		Mode:  fees.ModeNFT,
		State: curve.PriceState{Kind: curve.KindLinear, SpotPrice: uint256.NewInt(100), Delta: uint256.NewInt(10)},
		Items: ids(1, 2, 3),
	}, pool.Deps{Protocol: reg, Notifier: notifier})
	require.NoError(t, err)
	return p
}

type failingSink struct{}

func (failingSink) PutSwap(context.Context, model.SwapRecord) error {
	return errors.New("disk full")
}

func TestNotifierWritesEverySink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "swaps.jsonl")
	core, logs := observer.New(zap.InfoLevel)

	notifier := NewNotifier(failingSink{}, NewJsonlStorage(path), NewLogSink(zap.New(core)))
	p := newLinearPool(t, notifier)

	s, err := p.SwapForItems(context.Background(), pool.SwapForItemsRequest{Count: 2})
	require.NoError(t, err)
	_, err = p.SwapForItems(context.Background(), pool.SwapForItemsRequest{IDs: ids(3)})
	require.NoError(t, err)

	err = notifier.Notify(context.Background(), s)
	require.ErrorContains(t, err, "disk full")

	records, err := ReadSwaps(path)
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, "buy", records[0].Direction)
	require.Equal(t, "nft", records[0].Mode)
	require.Equal(t, []string{"1", "2"}, records[0].Items)
	require.Equal(t, []string{"100", "110"}, records[0].UnitPrices)
	require.Equal(t, "210", records[0].Amount)
	require.Equal(t, "120", records[0].SpotPrice)
	require.Equal(t, "120", records[1].RawTotal)
	require.Len(t, records[0].Royalties, 2)
	require.True(t, records[0].Royalties[0].ToPool)

	require.Equal(t, 3, logs.FilterMessage("swap").Len())
}

func TestSwapRecordTimestamp(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	record := SwapRecordFromSettlement(pool.Settlement{
		Quote:    pool.Quote{Direction: curve.Sell},
		Mode:     fees.ModeTrade,
		Executed: at,
	})
	require.Equal(t, "sell", record.Direction)
	require.Equal(t, "trade", record.Mode)

	data, err := json.Marshal(record)
	require.NoError(t, err)
	require.Contains(t, string(data), `"mode":"trade"`)
	require.Equal(t, "2024-01-02T03:04:05Z", record.ExecutedAt)
	require.Equal(t, "0", record.Amount)
	require.Nil(t, record.Items)
}

func TestDeferredHoldsSwapsUntilFlush(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "swaps.jsonl")
	deferred := NewDeferred(NewNotifier(NewJsonlStorage(path)))
	p := newLinearPool(t, deferred)

	_, err := p.SwapForItems(ctx, pool.SwapForItemsRequest{Count: 1})
	require.NoError(t, err)
	_, err = p.SwapForItems(ctx, pool.SwapForItemsRequest{Count: 1})
	require.NoError(t, err)
	require.Equal(t, 2, deferred.Pending())
	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))

	require.NoError(t, deferred.Flush(ctx))
	require.Equal(t, 0, deferred.Pending())
	records, err := ReadSwaps(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "100", records[0].Amount)
	require.Equal(t, "110", records[1].Amount)

	require.NoError(t, deferred.Flush(ctx))
	records, err = ReadSwaps(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
}

func TestDeferredFlushReportsSinkErrors(t *testing.T) {
	ctx := context.Background()
	deferred := NewDeferred(NewNotifier(failingSink{}))
	p := newLinearPool(t, deferred)

	_, err := p.SwapForItems(ctx, pool.SwapForItemsRequest{Count: 1})
	require.NoError(t, err)
	require.ErrorContains(t, deferred.Flush(ctx), "disk full")
	require.Equal(t, 0, deferred.Pending())
}
