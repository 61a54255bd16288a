package aggregate

import (
	"fmt"
	"time"

	"github.com/holiman/uint256"

	"nftPool/internal/fixedpoint"
	"nftPool/internal/model"
)

// Accumulator holds aggregate values for a pool window.
type Accumulator struct {
	PoolAddress  string
	WindowStart  uint64
	WindowEnd    uint64
	SwapCount    uint64
	BuyCount     uint64
	SellCount    uint64
	ItemCount    uint64
	Volume       *uint256.Int
	TradeFees    *uint256.Int
	ProtocolFees *uint256.Int
	Royalties    *uint256.Int
	CloseSpot    string
	LastTS       uint64
}

func NewAccumulator(pool string, windowStart, windowEnd uint64) *Accumulator {
	return &Accumulator{
		PoolAddress:  pool,
		WindowStart:  windowStart,
		WindowEnd:    windowEnd,
		Volume:       fixedpoint.Zero(),
		TradeFees:    fixedpoint.Zero(),
		ProtocolFees: fixedpoint.Zero(),
		Royalties:    fixedpoint.Zero(),
	}
}

// AddSwap folds one ledger record executed at ts into the window.
func (a *Accumulator) AddSwap(record model.SwapRecord, ts uint64) error {
	if record.Direction != "buy" && record.Direction != "sell" {
		return fmt.Errorf("unknown direction %q", record.Direction)
	}

	fields := []struct {
		target *uint256.Int
		value  string
		name   string
	}{
		{a.Volume, record.RawTotal, "raw_total"},
		{a.TradeFees, record.TradeFee, "trade_fee"},
		{a.ProtocolFees, record.ProtocolFee, "protocol_fee"},
		{a.Royalties, record.RoyaltyTotal, "royalty_total"},
	}
	sums := make([]*uint256.Int, len(fields))
	for i, f := range fields {
		v, err := parseAmount(f.value)
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		if sums[i], err = fixedpoint.Add(f.target, v); err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
	}
	for i, f := range fields {
		f.target.Set(sums[i])
	}

	if record.Direction == "buy" {
		a.BuyCount++
	} else {
		a.SellCount++
	}

	a.SwapCount++
	a.ItemCount += uint64(len(record.UnitPrices))
	if ts >= a.LastTS {
		a.LastTS = ts
		a.CloseSpot = record.SpotPrice
	}
	return nil
}

// Metrics renders the window for storage.
func (a *Accumulator) Metrics() model.PoolWindowMetrics {
	return model.PoolWindowMetrics{
		PoolAddress:    a.PoolAddress,
		WindowSizeSecs: int64(a.WindowEnd - a.WindowStart),
		WindowStart:    time.Unix(int64(a.WindowStart), 0).UTC(),
		WindowEnd:      time.Unix(int64(a.WindowEnd), 0).UTC(),
		SwapCount:      a.SwapCount,
		BuyCount:       a.BuyCount,
		SellCount:      a.SellCount,
		ItemCount:      a.ItemCount,
		Volume:         a.Volume.Dec(),
		TradeFees:      a.TradeFees.Dec(),
		ProtocolFees:   a.ProtocolFees.Dec(),
		Royalties:      a.Royalties.Dec(),
		CloseSpot:      a.CloseSpot,
	}
}

func parseAmount(value string) (*uint256.Int, error) {
	if value == "" {
		return fixedpoint.Zero(), nil
	}
	v, err := uint256.FromDecimal(value)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	return v, nil
}

func windowStart(ts, windowSeconds uint64) uint64 {
	return ts - ts%windowSeconds
}
