package curve

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"nftPool/internal/fixedpoint"
)

func wad(t *testing.T, s string) *uint256.Int {
	t.Helper()
	v, err := fixedpoint.Parse(s)
	require.NoError(t, err)
	return v
}

func linearState(t *testing.T, spot, delta string) PriceState {
	return PriceState{Kind: KindLinear, SpotPrice: wad(t, spot), Delta: wad(t, delta)}
}

func exponentialState(t *testing.T, spot, delta string) PriceState {
	return PriceState{Kind: KindExponential, SpotPrice: wad(t, spot), Delta: wad(t, delta)}
}

func sigmoidState(t *testing.T, delta uint64, pMin, deltaP string, index int64) PriceState {
	state := PriceState{
		Kind:  KindSigmoid,
		Delta: uint256.NewInt(delta),
		Sigmoid: &SigmoidParams{
			PMin:   wad(t, pMin),
			DeltaP: wad(t, deltaP),
			Index:  index,
		},
	}
	spot, err := Sigmoid{}.SpotAt(state, index)
	require.NoError(t, err)
	state.SpotPrice = spot
	return state
}

func TestLinearBuyThree(t *testing.T) {
	res, err := Project(linearState(t, "100", "10"), 3, Buy)
	require.NoError(t, err)
	require.Equal(t, wad(t, "330"), res.RawTotal)
	require.Equal(t, wad(t, "130"), res.NewState.SpotPrice)
	require.Equal(t, []*uint256.Int{wad(t, "100"), wad(t, "110"), wad(t, "120")}, res.UnitPrices)
}

func TestLinearSell(t *testing.T) {
	res, err := Project(linearState(t, "130", "10"), 3, Sell)
	require.NoError(t, err)
	require.Equal(t, wad(t, "330"), res.RawTotal)
	require.Equal(t, wad(t, "100"), res.NewState.SpotPrice)

	_, err = Project(linearState(t, "25", "10"), 3, Sell)
	require.ErrorIs(t, err, ErrInsufficientLiquidity)

	_, err = Project(linearState(t, "30", "10"), 3, Sell)
	require.ErrorIs(t, err, ErrInsufficientLiquidity)

	res, err = Project(linearState(t, "31", "10"), 3, Sell)
	require.NoError(t, err)
	require.Equal(t, wad(t, "1"), res.NewState.SpotPrice)
}

func TestLinearRejectsZeroSpot(t *testing.T) {
	state := PriceState{Kind: KindLinear, SpotPrice: uint256.NewInt(0), Delta: wad(t, "10")}
	require.ErrorIs(t, Linear{}.Validate(state), ErrInvalidState)

	_, err := Project(state, 1, Buy)
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestProjectDoesNotMutateInput(t *testing.T) {
	state := sigmoidState(t, 1024, "1", "2", 0)
	before := state.Clone()
	_, err := Project(state, 4, Buy)
	require.NoError(t, err)
	require.True(t, before.Equal(state))
}

func TestExponentialRoundTrip(t *testing.T) {
	for _, n := range []uint64{1, 2, 5, 17} {
		start := exponentialState(t, "1.37", "1.05")
		bought, err := Project(start, n, Buy)
		require.NoError(t, err)
		sold, err := Project(bought.NewState, n, Sell)
		require.NoError(t, err)

		diff := new(uint256.Int)
		if sold.NewState.SpotPrice.Gt(start.SpotPrice) {
			diff.Sub(sold.NewState.SpotPrice, start.SpotPrice)
		} else {
			diff.Sub(start.SpotPrice, sold.NewState.SpotPrice)
		}
		require.True(t, diff.Cmp(uint256.NewInt(1)) <= 0, "n=%d drift=%s", n, diff.Dec())
	}
}

func TestExponentialBuy(t *testing.T) {
	res, err := Project(exponentialState(t, "1", "1.1"), 2, Buy)
	require.NoError(t, err)
	require.Equal(t, wad(t, "2.31"), res.RawTotal)
	require.Equal(t, wad(t, "1.21"), res.NewState.SpotPrice)

	_, err = Project(exponentialState(t, "1", "1000"), 40, Buy)
	require.ErrorIs(t, err, ErrOverflow)

	_, err = Project(exponentialState(t, "1", "1"), 1, Buy)
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestSigmoidPrices(t *testing.T) {
	state := sigmoidState(t, 1024, "1", "2", 0)
	require.Equal(t, wad(t, "2"), state.SpotPrice)

	res, err := Project(state, 2, Buy)
	require.NoError(t, err)
	require.Equal(t, uint256.MustFromDecimal("4333333333333333334"), res.RawTotal)
	require.Equal(t, int64(2), res.NewState.Sigmoid.Index)

	res, err = Project(state, 1, Sell)
	require.NoError(t, err)
	require.Equal(t, uint256.MustFromDecimal("1666666666666666666"), res.RawTotal)
	require.Equal(t, int64(-1), res.NewState.Sigmoid.Index)
}

func TestSigmoidSaturates(t *testing.T) {
	state := sigmoidState(t, 1024*512, "1", "2", 0)

	high, err := Sigmoid{}.SpotAt(state, 10)
	require.NoError(t, err)
	require.Equal(t, wad(t, "3"), high)

	res, err := Project(state, 3, Sell)
	require.NoError(t, err)
	require.Equal(t, wad(t, "3"), res.RawTotal)
}

func TestMultiItemEqualsSequentialSingles(t *testing.T) {
	cases := map[string]PriceState{
		"linear":      linearState(t, "3.5", "0.25"),
		"exponential": exponentialState(t, "0.8", "1.07"),
		"sigmoid":     sigmoidState(t, 300, "0.5", "4", -3),
	}
	for name, start := range cases {
		for _, dir := range []Direction{Buy, Sell} {
			const n = 6
			batch, err := Project(start, n, dir)
			require.NoError(t, err, name)

			state := start
			total := fixedpoint.Zero()
			for i := 0; i < n; i++ {
				single, err := Project(state, 1, dir)
				require.NoError(t, err, name)
				total, err = fixedpoint.Add(total, single.RawTotal)
				require.NoError(t, err)
				state = single.NewState
			}

			require.Equal(t, batch.RawTotal, total, "%s %s", name, dir)
			require.True(t, batch.NewState.Equal(state), "%s %s", name, dir)
		}
	}
}

func TestCodecRoundTrip(t *testing.T) {
	state := sigmoidState(t, 2048, "0.1", "9", -42)
	props, err := EncodeProps(state)
	require.NoError(t, err)
	require.Len(t, props, 64)
	raw, err := EncodeState(state)
	require.NoError(t, err)

	decoded, err := Decode(KindSigmoid, state.SpotPrice, state.Delta, props, raw)
	require.NoError(t, err)
	require.True(t, decoded.Equal(state))

	props, err = EncodeProps(linearState(t, "1", "1"))
	require.NoError(t, err)
	require.Empty(t, props)
}

func TestParseKind(t *testing.T) {
	kind, err := ParseKind("Exponential")
	require.NoError(t, err)
	require.Equal(t, KindExponential, kind)

	_, err = ParseKind("xyk")
	require.ErrorIs(t, err, ErrUnknownKind)
}
