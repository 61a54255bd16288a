package curve

import (
	"github.com/holiman/uint256"

	"nftPool/internal/fixedpoint"
)

// Linear moves the spot price by Delta per unit traded.
type Linear struct{}

func (Linear) Kind() Kind { return KindLinear }

func (Linear) Validate(state PriceState) error {
	if state.SpotPrice == nil || state.Delta == nil {
		return invalid("linear: spot price and delta are required")
	}
	if state.SpotPrice.IsZero() {
		return invalid("linear: spot price must be positive")
	}
	if state.Delta.IsZero() {
		return invalid("linear: delta must be positive")
	}
	return nil
}

// Project prices a buy at s, s+δ, ..., s+(n-1)δ and a sell at s-δ, ..., s-nδ,
// so a buy followed by an equal sell returns the pool to its starting spot.
// A sell must leave the spot above zero.
func (Linear) Project(state PriceState, numItems uint64, dir Direction) (Result, error) {
	n := uint256.NewInt(numItems)
	step, err := fixedpoint.Mul(state.Delta, n)
	if err != nil {
		if dir == Sell {
			return Result{}, ErrInsufficientLiquidity
		}
		return Result{}, overflow(err)
	}

	var newSpot *uint256.Int
	prices := make([]*uint256.Int, 0, numItems)
	price := new(uint256.Int).Set(state.SpotPrice)

	switch dir {
	case Buy:
		if newSpot, err = fixedpoint.Add(state.SpotPrice, step); err != nil {
			return Result{}, overflow(err)
		}
		for i := uint64(0); i < numItems; i++ {
			prices = append(prices, new(uint256.Int).Set(price))
			price.Add(price, state.Delta)
		}
	case Sell:
		if !state.SpotPrice.Gt(step) {
			return Result{}, ErrInsufficientLiquidity
		}
		newSpot = new(uint256.Int).Sub(state.SpotPrice, step)
		for i := uint64(0); i < numItems; i++ {
			price.Sub(price, state.Delta)
			prices = append(prices, new(uint256.Int).Set(price))
		}
	}

	total, err := sum(prices)
	if err != nil {
		return Result{}, err
	}

	next := state.Clone()
	next.SpotPrice = newSpot
	return Result{NewState: next, RawTotal: total, UnitPrices: prices}, nil
}
