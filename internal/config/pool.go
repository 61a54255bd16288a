package config

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"nftPool/internal/curve"
	"nftPool/internal/fees"
	"nftPool/internal/filter"
	"nftPool/internal/fixedpoint"
	"nftPool/internal/pool"
	"nftPool/internal/royalty"
)

// PoolDef describes a pool in human units. Prices, fee rates and the
// exponential delta are decimals scaled to 18 places; the sigmoid delta is
// a plain integer steepness.
type PoolDef struct {
	Address          string
	Owner            string
	Mode             string
	Curve            string
	SpotPrice        string
	Delta            string
	PMin             string
	DeltaP           string
	Index            int64
	TradeFee         string
	RoyaltyNumerator string
	RoyaltyFallback  string
	FilterIDs        []string
	Items            []string
	Reserve          string
}

// Build converts the definition into a pool configuration.
func (d PoolDef) Build() (pool.Config, error) {
	address, err := ParseAddress(d.Address)
	if err != nil {
		return pool.Config{}, fmt.Errorf("pool address: %w", err)
	}
	owner, err := ParseAddress(d.Owner)
	if err != nil {
		return pool.Config{}, fmt.Errorf("pool owner: %w", err)
	}
	mode, err := fees.ParseMode(d.Mode)
	if err != nil {
		return pool.Config{}, err
	}
	state, err := d.priceState()
	if err != nil {
		return pool.Config{}, err
	}

	tradeFee, err := parseAmount(d.TradeFee, "trade-fee")
	if err != nil {
		return pool.Config{}, err
	}
	numerator, err := parseAmount(d.RoyaltyNumerator, "royalty-numerator")
	if err != nil {
		return pool.Config{}, err
	}
	reserve, err := parseAmount(d.Reserve, "reserve")
	if err != nil {
		return pool.Config{}, err
	}
	items, err := ParseIDs(d.Items)
	if err != nil {
		return pool.Config{}, fmt.Errorf("pool items: %w", err)
	}

	cfg := pool.Config{
		Address:  address,
		Owner:    owner,
		Mode:     mode,
		State:    state,
		TradeFee: tradeFee,
		Royalty:  royalty.Config{Numerator: numerator},
		Items:    items,
		Reserve:  reserve,
	}

	if strings.TrimSpace(d.RoyaltyFallback) != "" {
		fallback, err := ParseAddress(d.RoyaltyFallback)
		if err != nil {
			return pool.Config{}, fmt.Errorf("royalty fallback: %w", err)
		}
		cfg.Royalty.Fallback = &fallback
	}

	if len(d.FilterIDs) > 0 {
		ids, err := ParseIDs(d.FilterIDs)
		if err != nil {
			return pool.Config{}, fmt.Errorf("filter ids: %w", err)
		}
		tree, err := filter.NewTree(ids)
		if err != nil {
			return pool.Config{}, err
		}
		if cfg.Filter, err = tree.Filter(); err != nil {
			return pool.Config{}, err
		}
	}
	return cfg, nil
}

func (d PoolDef) priceState() (curve.PriceState, error) {
	kind, err := curve.ParseKind(d.Curve)
	if err != nil {
		return curve.PriceState{}, err
	}
	if kind != curve.KindSigmoid {
		spot, err := parseAmount(d.SpotPrice, "spot-price")
		if err != nil {
			return curve.PriceState{}, err
		}
		delta, err := parseAmount(d.Delta, "delta")
		if err != nil {
			return curve.PriceState{}, err
		}
		return curve.PriceState{Kind: kind, SpotPrice: spot, Delta: delta}, nil
	}

	delta, err := uint256.FromDecimal(strings.TrimSpace(d.Delta))
	if err != nil {
		return curve.PriceState{}, fmt.Errorf("invalid delta %q: %w", d.Delta, err)
	}
	pMin, err := parseAmount(d.PMin, "p-min")
	if err != nil {
		return curve.PriceState{}, err
	}
	deltaP, err := parseAmount(d.DeltaP, "delta-p")
	if err != nil {
		return curve.PriceState{}, err
	}
	return curve.PriceState{
		Kind:    kind,
		Delta:   delta,
		Sigmoid: &curve.SigmoidParams{PMin: pMin, DeltaP: deltaP, Index: d.Index},
	}, nil
}

func parseAmount(input, field string) (*uint256.Int, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return fixedpoint.Zero(), nil
	}
	v, err := fixedpoint.Parse(input)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return v, nil
}

// ParseAddress converts one hex address into common.Address.
func ParseAddress(input string) (common.Address, error) {
	input = strings.TrimSpace(input)
	if !common.IsHexAddress(input) {
		return common.Address{}, fmt.Errorf("invalid address: %q", input)
	}
	return common.HexToAddress(input), nil
}

// ParseIDs converts decimal or 0x-prefixed hex item ids.
func ParseIDs(inputs []string) ([]*uint256.Int, error) {
	ids := make([]*uint256.Int, 0, len(inputs))
	for _, input := range inputs {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		var (
			id  *uint256.Int
			err error
		)
		if strings.HasPrefix(input, "0x") || strings.HasPrefix(input, "0X") {
			id, err = uint256.FromHex(input)
		} else {
			id, err = uint256.FromDecimal(input)
		}
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", input, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
