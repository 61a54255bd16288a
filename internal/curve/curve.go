// Package curve implements the bonding curves that price pool trades.
package curve

import (
	"errors"
	"fmt"
	"strings"

	"github.com/holiman/uint256"

	"nftPool/internal/fixedpoint"
)

var (
	ErrInsufficientLiquidity = errors.New("curve: insufficient liquidity")
	ErrOverflow              = errors.New("curve: overflow")
	ErrInvalidState          = errors.New("curve: invalid price state")
	ErrUnknownKind           = errors.New("curve: unknown kind")
)

// Kind tags the curve a pool prices with.
type Kind uint8

const (
	KindLinear Kind = iota + 1
	KindExponential
	KindSigmoid
)

func (k Kind) String() string {
	switch k {
	case KindLinear:
		return "linear"
	case KindExponential:
		return "exponential"
	case KindSigmoid:
		return "sigmoid"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ParseKind maps a curve name to its Kind.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "linear":
		return KindLinear, nil
	case "exponential", "exp":
		return KindExponential, nil
	case "sigmoid":
		return KindSigmoid, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, name)
	}
}

// Direction is the side of a trade from the counterparty's point of view.
type Direction uint8

const (
	// Buy means the counterparty takes items out of the pool.
	Buy Direction = iota + 1
	// Sell means the counterparty puts items into the pool.
	Sell
)

func (d Direction) String() string {
	switch d {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return fmt.Sprintf("direction(%d)", uint8(d))
	}
}

// SigmoidParams carries the sigmoid bounds and the current reference index.
type SigmoidParams struct {
	PMin   *uint256.Int
	DeltaP *uint256.Int
	Index  int64
}

func (p *SigmoidParams) clone() *SigmoidParams {
	if p == nil {
		return nil
	}
	return &SigmoidParams{
		PMin:   cloneInt(p.PMin),
		DeltaP: cloneInt(p.DeltaP),
		Index:  p.Index,
	}
}

// PriceState is the persistent pricing state of a pool. Sigmoid is set only
// for KindSigmoid.
type PriceState struct {
	Kind      Kind
	SpotPrice *uint256.Int
	Delta     *uint256.Int
	Sigmoid   *SigmoidParams
}

// Clone returns a deep copy so callers can mutate the result freely.
func (s PriceState) Clone() PriceState {
	return PriceState{
		Kind:      s.Kind,
		SpotPrice: cloneInt(s.SpotPrice),
		Delta:     cloneInt(s.Delta),
		Sigmoid:   s.Sigmoid.clone(),
	}
}

// Equal reports whether two states price identically.
func (s PriceState) Equal(o PriceState) bool {
	if s.Kind != o.Kind || !intEq(s.SpotPrice, o.SpotPrice) || !intEq(s.Delta, o.Delta) {
		return false
	}
	if s.Sigmoid == nil || o.Sigmoid == nil {
		return s.Sigmoid == nil && o.Sigmoid == nil
	}
	return intEq(s.Sigmoid.PMin, o.Sigmoid.PMin) &&
		intEq(s.Sigmoid.DeltaP, o.Sigmoid.DeltaP) &&
		s.Sigmoid.Index == o.Sigmoid.Index
}

// Result is the outcome of projecting a trade along a curve.
type Result struct {
	NewState   PriceState
	RawTotal   *uint256.Int
	UnitPrices []*uint256.Int
}

// Curve prices trades of numItems sequential units.
type Curve interface {
	Kind() Kind
	Validate(state PriceState) error
	Project(state PriceState, numItems uint64, dir Direction) (Result, error)
}

// ForKind returns the curve implementation for a stored kind tag.
func ForKind(kind Kind) (Curve, error) {
	switch kind {
	case KindLinear:
		return Linear{}, nil
	case KindExponential:
		return Exponential{}, nil
	case KindSigmoid:
		return Sigmoid{}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, uint8(kind))
	}
}

// Project validates state and dispatches to the curve named by state.Kind.
func Project(state PriceState, numItems uint64, dir Direction) (Result, error) {
	c, err := ForKind(state.Kind)
	if err != nil {
		return Result{}, err
	}
	if err := c.Validate(state); err != nil {
		return Result{}, err
	}
	if dir != Buy && dir != Sell {
		return Result{}, fmt.Errorf("curve: unsupported direction %s", dir)
	}
	return c.Project(state, numItems, dir)
}

func overflow(err error) error {
	if errors.Is(err, ErrOverflow) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrOverflow, err)
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}

func cloneInt(v *uint256.Int) *uint256.Int {
	if v == nil {
		return nil
	}
	return new(uint256.Int).Set(v)
}

func intEq(a, b *uint256.Int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Eq(b)
}

func sum(prices []*uint256.Int) (*uint256.Int, error) {
	total := fixedpoint.Zero()
	for _, p := range prices {
		next, err := fixedpoint.Add(total, p)
		if err != nil {
			return nil, overflow(err)
		}
		total = next
	}
	return total, nil
}
