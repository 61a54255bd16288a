package curve

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/holiman/uint256"
)

var (
	propsArgs = abi.Arguments{{Type: mustType("uint256")}, {Type: mustType("uint256")}}
	stateArgs = abi.Arguments{{Type: mustType("int256")}}
)

func mustType(name string) abi.Type {
	t, err := abi.NewType(name, "", nil)
	if err != nil {
		panic(err)
	}
	return t
}

// EncodeProps serialises the immutable curve parameters the way the pool
// contract stores them: abi.encode(uint256 pMin, uint256 deltaP) for sigmoid,
// empty for the other curves.
func EncodeProps(state PriceState) ([]byte, error) {
	if state.Kind != KindSigmoid {
		return nil, nil
	}
	if state.Sigmoid == nil {
		return nil, invalid("sigmoid: missing params")
	}
	return propsArgs.Pack(state.Sigmoid.PMin.ToBig(), state.Sigmoid.DeltaP.ToBig())
}

// EncodeState serialises the mutable curve state: abi.encode(int256 index)
// for sigmoid, empty for the other curves.
func EncodeState(state PriceState) ([]byte, error) {
	if state.Kind != KindSigmoid {
		return nil, nil
	}
	if state.Sigmoid == nil {
		return nil, invalid("sigmoid: missing params")
	}
	return stateArgs.Pack(big.NewInt(state.Sigmoid.Index))
}

// Decode rebuilds a PriceState from its stored fields.
func Decode(kind Kind, spot, delta *uint256.Int, props, state []byte) (PriceState, error) {
	out := PriceState{Kind: kind, SpotPrice: cloneInt(spot), Delta: cloneInt(delta)}
	if kind != KindSigmoid {
		if _, err := ForKind(kind); err != nil {
			return PriceState{}, err
		}
		return out, nil
	}

	propValues, err := propsArgs.Unpack(props)
	if err != nil {
		return PriceState{}, fmt.Errorf("decode sigmoid props: %w", err)
	}
	pMin, err := toUint256(propValues[0])
	if err != nil {
		return PriceState{}, err
	}
	deltaP, err := toUint256(propValues[1])
	if err != nil {
		return PriceState{}, err
	}

	stateValues, err := stateArgs.Unpack(state)
	if err != nil {
		return PriceState{}, fmt.Errorf("decode sigmoid state: %w", err)
	}
	index, ok := stateValues[0].(*big.Int)
	if !ok || !index.IsInt64() {
		return PriceState{}, fmt.Errorf("decode sigmoid state: unexpected index %v", stateValues[0])
	}

	out.Sigmoid = &SigmoidParams{PMin: pMin, DeltaP: deltaP, Index: index.Int64()}
	return out, nil
}

func toUint256(value interface{}) (*uint256.Int, error) {
	b, ok := value.(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected type %T", value)
	}
	z, overflow := uint256.FromBig(b)
	if overflow {
		return nil, ErrOverflow
	}
	return z, nil
}
