package curve

import (
	"math"

	"github.com/holiman/uint256"

	"nftPool/internal/fixedpoint"
)

// SigmoidKScale normalises Delta into the sigmoid steepness: k = Delta/1024.
const SigmoidKScale = 1024

var maxSigmoidDeltaP = new(uint256.Int).Lsh(uint256.NewInt(1), 128)

// Sigmoid prices unit i at PMin + DeltaP / (1 + 2^(-k*i)), where i counts
// units from the reference index kept in the state.
type Sigmoid struct{}

func (Sigmoid) Kind() Kind { return KindSigmoid }

func (Sigmoid) Validate(state PriceState) error {
	if state.Delta == nil || state.Delta.IsZero() {
		return invalid("sigmoid: delta must be positive")
	}
	if !state.Delta.IsUint64() {
		return invalid("sigmoid: delta too large")
	}
	p := state.Sigmoid
	if p == nil || p.PMin == nil || p.DeltaP == nil {
		return invalid("sigmoid: pMin and deltaP are required")
	}
	if p.DeltaP.Gt(maxSigmoidDeltaP) {
		return invalid("sigmoid: deltaP exceeds 2^128")
	}
	if _, err := fixedpoint.Add(p.PMin, p.DeltaP); err != nil {
		return invalid("sigmoid: pMin + deltaP overflows")
	}
	return nil
}

// Project prices a buy at indices idx..idx+n-1 (rounded up) and a sell at
// idx-1..idx-n (rounded down), then moves the index by n.
func (s Sigmoid) Project(state PriceState, numItems uint64, dir Direction) (Result, error) {
	idx := state.Sigmoid.Index
	if numItems > math.MaxInt64 {
		return Result{}, ErrOverflow
	}
	n := int64(numItems)

	var newIdx int64
	switch dir {
	case Buy:
		if idx > math.MaxInt64-n {
			return Result{}, ErrOverflow
		}
		newIdx = idx + n
	case Sell:
		if idx < math.MinInt64+n {
			return Result{}, ErrOverflow
		}
		newIdx = idx - n
	}

	prices := make([]*uint256.Int, 0, numItems)
	for j := int64(0); j < n; j++ {
		var (
			price *uint256.Int
			err   error
		)
		if dir == Buy {
			price, err = sigmoidPrice(state, idx+j, true)
		} else {
			price, err = sigmoidPrice(state, idx-1-j, false)
		}
		if err != nil {
			return Result{}, err
		}
		prices = append(prices, price)
	}

	total, err := sum(prices)
	if err != nil {
		return Result{}, err
	}

	spot, err := sigmoidPrice(state, newIdx, true)
	if err != nil {
		return Result{}, err
	}

	next := state.Clone()
	next.Sigmoid.Index = newIdx
	next.SpotPrice = spot
	return Result{NewState: next, RawTotal: total, UnitPrices: prices}, nil
}

// SpotAt returns the buy price of the unit at index i.
func (Sigmoid) SpotAt(state PriceState, i int64) (*uint256.Int, error) {
	return sigmoidPrice(state, i, true)
}

func sigmoidPrice(state PriceState, i int64, roundUp bool) (*uint256.Int, error) {
	p := state.Sigmoid
	term, err := sigmoidTerm(p.DeltaP, state.Delta, i, roundUp)
	if err != nil {
		return nil, err
	}
	price, err := fixedpoint.Add(p.PMin, term)
	if err != nil {
		return nil, overflow(err)
	}
	return price, nil
}

// sigmoidTerm returns deltaP / (1 + 2^(-k*i)).
func sigmoidTerm(deltaP, delta *uint256.Int, i int64, roundUp bool) (*uint256.Int, error) {
	one := fixedpoint.One()
	if i == 0 {
		return divide(deltaP, one, new(uint256.Int).Add(one, one), roundUp)
	}

	steps, err := fixedpoint.Mul(delta, uint256.NewInt(absInt64(i)))
	if err != nil {
		return nil, overflow(err)
	}
	x, err := fixedpoint.MulDivDown(steps, one, uint256.NewInt(SigmoidKScale))
	if err != nil {
		return nil, overflow(err)
	}

	pow, err := fixedpoint.Exp2(x)
	if err != nil {
		// 2^x dwarfs every other operand; the fraction saturates.
		if i > 0 {
			if roundUp || deltaP.IsZero() {
				return new(uint256.Int).Set(deltaP), nil
			}
			return new(uint256.Int).Sub(deltaP, uint256.NewInt(1)), nil
		}
		if roundUp && !deltaP.IsZero() {
			return uint256.NewInt(1), nil
		}
		return fixedpoint.Zero(), nil
	}

	denom := new(uint256.Int).Add(pow, one)
	if i > 0 {
		// deltaP / (1 + 2^-x) == deltaP * 2^x / (2^x + 1)
		return divide(deltaP, pow, denom, roundUp)
	}
	return divide(deltaP, one, denom, roundUp)
}

func divide(x, y, d *uint256.Int, roundUp bool) (*uint256.Int, error) {
	var (
		z   *uint256.Int
		err error
	)
	if roundUp {
		z, err = fixedpoint.MulDivUp(x, y, d)
	} else {
		z, err = fixedpoint.MulDivDown(x, y, d)
	}
	if err != nil {
		return nil, overflow(err)
	}
	return z, nil
}

func absInt64(v int64) uint64 {
	if v >= 0 {
		return uint64(v)
	}
	return uint64(-(v + 1)) + 1
}
