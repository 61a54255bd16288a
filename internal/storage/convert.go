package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"

	"nftPool/internal/curve"
	"nftPool/internal/fees"
	"nftPool/internal/filter"
	"nftPool/internal/model"
	"nftPool/internal/pool"
	"nftPool/internal/royalty"
)

// SnapshotFromConfig flattens a pool configuration into its storage form.
func SnapshotFromConfig(cfg pool.Config) (model.PoolSnapshot, error) {
	props, err := curve.EncodeProps(cfg.State)
	if err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("encode curve props: %w", err)
	}
	state, err := curve.EncodeState(cfg.State)
	if err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("encode curve state: %w", err)
	}

	snap := model.PoolSnapshot{
		Address:          strings.ToLower(cfg.Address.Hex()),
		Owner:            strings.ToLower(cfg.Owner.Hex()),
		Mode:             cfg.Mode.String(),
		Curve:            cfg.State.Kind.String(),
		SpotPrice:        dec(cfg.State.SpotPrice),
		Delta:            dec(cfg.State.Delta),
		TradeFee:         dec(cfg.TradeFee),
		RoyaltyNumerator: dec(cfg.Royalty.Numerator),
		FilterRoot:       cfg.Filter.Root.Hex(),
		Items:            decs(cfg.Items),
		Reserve:          dec(cfg.Reserve),
		Destroyed:        cfg.Destroyed,
		UpdatedAt:        time.Now().UTC().Format(time.RFC3339Nano),
	}
	if len(props) > 0 {
		snap.CurveProps = hexutil.Encode(props)
	}
	if len(state) > 0 {
		snap.CurveState = hexutil.Encode(state)
	}
	if cfg.Royalty.Fallback != nil {
		snap.RoyaltyFallback = strings.ToLower(cfg.Royalty.Fallback.Hex())
	}
	if len(cfg.Filter.Encoded) > 0 {
		snap.FilterEncoded = hexutil.Encode(cfg.Filter.Encoded)
	}
	return snap, nil
}

// ConfigFromSnapshot rebuilds a pool configuration from storage.
func ConfigFromSnapshot(snap model.PoolSnapshot) (pool.Config, error) {
	mode, err := fees.ParseMode(snap.Mode)
	if err != nil {
		return pool.Config{}, err
	}
	kind, err := curve.ParseKind(snap.Curve)
	if err != nil {
		return pool.Config{}, err
	}

	spot, err := parseUint(snap.SpotPrice, "spot_price")
	if err != nil {
		return pool.Config{}, err
	}
	delta, err := parseUint(snap.Delta, "delta")
	if err != nil {
		return pool.Config{}, err
	}
	props, err := decodeHex(snap.CurveProps, "curve_props")
	if err != nil {
		return pool.Config{}, err
	}
	state, err := decodeHex(snap.CurveState, "curve_state")
	if err != nil {
		return pool.Config{}, err
	}
	priceState, err := curve.Decode(kind, spot, delta, props, state)
	if err != nil {
		return pool.Config{}, fmt.Errorf("decode curve: %w", err)
	}

	tradeFee, err := parseUint(snap.TradeFee, "trade_fee")
	if err != nil {
		return pool.Config{}, err
	}
	numerator, err := parseUint(snap.RoyaltyNumerator, "royalty_numerator")
	if err != nil {
		return pool.Config{}, err
	}
	reserve, err := parseUint(snap.Reserve, "reserve")
	if err != nil {
		return pool.Config{}, err
	}
	encoded, err := decodeHex(snap.FilterEncoded, "filter_encoded")
	if err != nil {
		return pool.Config{}, err
	}

	items := make([]*uint256.Int, 0, len(snap.Items))
	for _, raw := range snap.Items {
		id, err := parseUint(raw, "items")
		if err != nil {
			return pool.Config{}, err
		}
		items = append(items, id)
	}

	cfg := pool.Config{
		Address:   common.HexToAddress(snap.Address),
		Owner:     common.HexToAddress(snap.Owner),
		Mode:      mode,
		State:     priceState,
		TradeFee:  tradeFee,
		Royalty:   royalty.Config{Numerator: numerator},
		Filter:    filter.Filter{Root: common.HexToHash(snap.FilterRoot), Encoded: encoded},
		Items:     items,
		Reserve:   reserve,
		Destroyed: snap.Destroyed,
	}
	if snap.RoyaltyFallback != "" {
		if !common.IsHexAddress(snap.RoyaltyFallback) {
			return pool.Config{}, fmt.Errorf("invalid royalty_fallback: %s", snap.RoyaltyFallback)
		}
		fallback := common.HexToAddress(snap.RoyaltyFallback)
		cfg.Royalty.Fallback = &fallback
	}
	return cfg, nil
}

// SwapRecordFromSettlement flattens a committed swap for the ledger.
func SwapRecordFromSettlement(s pool.Settlement) model.SwapRecord {
	record := model.SwapRecord{
		Pool:         strings.ToLower(s.Pool.Hex()),
		Mode:         s.Mode.String(),
		Recipient:    strings.ToLower(s.Recipient.Hex()),
		Direction:    s.Direction.String(),
		Items:        decs(s.Items),
		UnitPrices:   decs(s.UnitPrices),
		RawTotal:     dec(s.RawTotal),
		Principal:    dec(s.Principal),
		TradeFee:     dec(s.TradeFee),
		ProtocolFee:  dec(s.ProtocolFee),
		RoyaltyTotal: dec(s.RoyaltyTotal),
		Amount:       dec(s.Amount),
		SpotPrice:    dec(s.NewState.SpotPrice),
		ExecutedAt:   s.Executed.UTC().Format(time.RFC3339Nano),
	}
	for _, r := range s.Royalties {
		rr := model.RoyaltyRecord{
			Recipient: strings.ToLower(r.Recipient.Hex()),
			Amount:    dec(r.Amount),
			ToPool:    r.ToPool,
		}
		if r.Item != nil {
			rr.Item = r.Item.Dec()
		}
		record.Royalties = append(record.Royalties, rr)
	}
	return record
}

func dec(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}

func decs(values []*uint256.Int) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = dec(v)
	}
	return out
}

func parseUint(raw, field string) (*uint256.Int, error) {
	if raw == "" {
		return uint256.NewInt(0), nil
	}
	v, err := uint256.FromDecimal(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", field, raw, err)
	}
	return v, nil
}

func decodeHex(raw, field string) ([]byte, error) {
	if raw == "" {
		return nil, nil
	}
	b, err := hexutil.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", field, err)
	}
	return b, nil
}
