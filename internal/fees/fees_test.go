package fees

import (
	"sync"
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

func requireConserved(t *testing.T, raw *uint256.Int, b Breakdown) {
	t.Helper()
	total := new(uint256.Int).Add(b.Principal, b.TradeFee)
	total.Add(total, b.ProtocolFee)
	require.Equal(t, raw, total)
}

func TestSplitTradeMode(t *testing.T) {
	raw := wad(t, "1000")
	b, err := Split(raw, ModeTrade, Rates{
		TradeFee:    wad(t, "0.05"),
		ProtocolFee: wad(t, "0.2"),
		CarryFee:    wad(t, "0.1"),
	})
	require.NoError(t, err)
	require.Equal(t, wad(t, "950"), b.Principal)
	require.Equal(t, wad(t, "45"), b.TradeFee)
	require.Equal(t, wad(t, "5"), b.ProtocolFee)
	requireConserved(t, raw, b)
}

func TestSplitTokenAndNFTModes(t *testing.T) {
	raw := wad(t, "1000")
	for _, mode := range []Mode{ModeToken, ModeNFT} {
		b, err := Split(raw, mode, Rates{
			TradeFee:    wad(t, "0.5"),
			ProtocolFee: wad(t, "0.005"),
			CarryFee:    wad(t, "0.9"),
		})
		require.NoError(t, err)
		require.True(t, b.TradeFee.IsZero(), mode.String())
		require.Equal(t, wad(t, "5"), b.ProtocolFee, mode.String())
		require.Equal(t, wad(t, "995"), b.Principal, mode.String())
	}
}

func TestSplitConservesOddAmounts(t *testing.T) {
	rates := Rates{
		TradeFee:    uint256.NewInt(333_333_333_333_333_333),
		ProtocolFee: uint256.NewInt(7),
		CarryFee:    uint256.NewInt(123_456_789_012_345_678),
	}
	for _, raw := range []uint64{0, 1, 2, 3, 999, 1_000_000_007, 123_456_789_123_456_789} {
		for _, mode := range []Mode{ModeToken, ModeNFT, ModeTrade} {
			b, err := Split(uint256.NewInt(raw), mode, rates)
			require.NoError(t, err)
			requireConserved(t, uint256.NewInt(raw), b)
		}
	}
}

func TestSplitUnknownMode(t *testing.T) {
	_, err := Split(wad(t, "1"), Mode(9), Rates{})
	require.Error(t, err)
}

func TestValidateTradeFee(t *testing.T) {
	require.NoError(t, ValidateTradeFee(wad(t, "0.99")))
	require.ErrorIs(t, ValidateTradeFee(wad(t, "1")), ErrInvalidRate)
}

func TestRegistrySnapshotIsCopy(t *testing.T) {
	reg, err := NewRegistry(wad(t, "0.005"), wad(t, "0.1"))
	require.NoError(t, err)

	snap := reg.Snapshot()
	snap.ProtocolFee.SetUint64(42)
	require.Equal(t, wad(t, "0.005"), reg.Snapshot().ProtocolFee)

	require.ErrorIs(t, reg.Set(wad(t, "1"), wad(t, "0.1")), ErrInvalidRate)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = reg.Snapshot()
		}()
	}
	require.NoError(t, reg.Set(wad(t, "0.01"), wad(t, "0.2")))
	wg.Wait()
	require.Equal(t, wad(t, "0.2"), reg.Snapshot().CarryFee)
}
