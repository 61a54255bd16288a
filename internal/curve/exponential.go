package curve

import (
	"github.com/holiman/uint256"

	"nftPool/internal/fixedpoint"
)

// Exponential multiplies the spot price by Delta per unit bought and divides
// it per unit sold. Delta is a WAD multiplier strictly above 1.
type Exponential struct{}

func (Exponential) Kind() Kind { return KindExponential }

func (Exponential) Validate(state PriceState) error {
	if state.SpotPrice == nil || state.Delta == nil {
		return invalid("exponential: spot price and delta are required")
	}
	if state.SpotPrice.IsZero() {
		return invalid("exponential: spot price must be positive")
	}
	if !state.Delta.Gt(fixedpoint.One()) {
		return invalid("exponential: delta must exceed 1.0")
	}
	return nil
}

// Project walks the spot price one unit at a time. Buys round each step up
// and sells round each step down, so a buy of n followed by a sell of n
// lands back on the starting spot.
func (Exponential) Project(state PriceState, numItems uint64, dir Direction) (Result, error) {
	if dir == Buy {
		growth, err := fixedpoint.Pow(state.Delta, numItems)
		if err != nil {
			return Result{}, overflow(err)
		}
		if _, err := fixedpoint.MulWadDown(state.SpotPrice, growth); err != nil {
			return Result{}, overflow(err)
		}
	}

	prices := make([]*uint256.Int, 0, numItems)
	spot := new(uint256.Int).Set(state.SpotPrice)
	var err error
	for i := uint64(0); i < numItems; i++ {
		switch dir {
		case Buy:
			spot, err = fixedpoint.MulWadUp(spot, state.Delta)
		case Sell:
			spot, err = fixedpoint.DivWadDown(spot, state.Delta)
		}
		if err != nil {
			return Result{}, overflow(err)
		}
		prices = append(prices, spot)
	}
	if spot.IsZero() {
		return Result{}, ErrInsufficientLiquidity
	}

	total, err := sum(prices)
	if err != nil {
		return Result{}, err
	}

	next := state.Clone()
	next.SpotPrice = new(uint256.Int).Set(spot)
	return Result{NewState: next, RawTotal: total, UnitPrices: prices}, nil
}
