package royalty

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"nftPool/internal/fixedpoint"
)

var (
	testPool     = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testCreator  = common.HexToAddress("0x2222222222222222222222222222222222222222")
	testFallback = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

type countingSource struct {
	calls int
	inner Source
}

func (c *countingSource) Recipients(ctx context.Context, items []*uint256.Int) ([]*common.Address, error) {
	c.calls++
	return c.inner.Recipients(ctx, items)
}

func wad(t *testing.T, s string) *uint256.Int {
	t.Helper()
	v, err := fixedpoint.Parse(s)
	require.NoError(t, err)
	return v
}

func TestResolveFallbackChain(t *testing.T) {
	items := []*uint256.Int{uint256.NewInt(1), uint256.NewInt(2), uint256.NewInt(3)}
	prices := []*uint256.Int{wad(t, "10"), wad(t, "20"), wad(t, "30")}
	src := StaticSource{*uint256.NewInt(1): testCreator}

	fallback := testFallback
	withFallback, err := Resolve(context.Background(), Request{
		Items:      items,
		UnitPrices: prices,
		Numerator:  wad(t, "0.1"),
		Fallback:   &fallback,
		Pool:       testPool,
	}, src)
	require.NoError(t, err)
	require.Equal(t, testCreator, withFallback[0].Recipient)
	require.Equal(t, testFallback, withFallback[1].Recipient)
	require.Equal(t, testFallback, withFallback[2].Recipient)

	noFallback, err := Resolve(context.Background(), Request{
		Items:      items,
		UnitPrices: prices,
		Numerator:  wad(t, "0.1"),
		Pool:       testPool,
	}, src)
	require.NoError(t, err)
	require.Equal(t, testCreator, noFallback[0].Recipient)
	require.False(t, noFallback[0].ToPool)
	require.Equal(t, testPool, noFallback[2].Recipient)
	require.True(t, noFallback[2].ToPool)

	require.Equal(t, wad(t, "1"), noFallback[0].Amount)
	require.Equal(t, wad(t, "2"), noFallback[1].Amount)
	require.Equal(t, wad(t, "3"), noFallback[2].Amount)
	require.Equal(t, wad(t, "6"), Total(noFallback))
}

func TestResolveMixedBatch(t *testing.T) {
	items := []*uint256.Int{uint256.NewInt(7), uint256.NewInt(8), uint256.NewInt(9)}
	prices := []*uint256.Int{wad(t, "1"), wad(t, "1"), wad(t, "1")}
	fallback := testFallback

	src := sourceFunc(func(_ context.Context, items []*uint256.Int) ([]*common.Address, error) {
		creator := testCreator
		return []*common.Address{&creator, nil, nil}, nil
	})
	payments, err := Resolve(context.Background(), Request{
		Items: items, UnitPrices: prices, Numerator: wad(t, "0.05"), Fallback: &fallback, Pool: testPool,
	}, src)
	require.NoError(t, err)
	require.Equal(t, testCreator, payments[0].Recipient)
	require.Equal(t, testFallback, payments[1].Recipient)

	// Item 9 has neither a recipient nor, in this request, a fallback.
	payments, err = Resolve(context.Background(), Request{
		Items: items, UnitPrices: prices, Numerator: wad(t, "0.05"), Pool: testPool,
	}, src)
	require.NoError(t, err)
	require.Equal(t, testCreator, payments[0].Recipient)
	require.True(t, payments[1].ToPool)
	require.True(t, payments[2].ToPool)
}

func TestResolveZeroNumeratorSkipsLookup(t *testing.T) {
	src := &countingSource{inner: StaticSource{}}
	payments, err := Resolve(context.Background(), Request{
		Items:      []*uint256.Int{uint256.NewInt(1), uint256.NewInt(2)},
		UnitPrices: []*uint256.Int{wad(t, "5"), wad(t, "6")},
		Numerator:  fixedpoint.Zero(),
		Pool:       testPool,
	}, src)
	require.NoError(t, err)
	require.Zero(t, src.calls)
	require.Len(t, payments, 2)
	require.True(t, Total(payments).IsZero())
}

func TestResolveWithoutItems(t *testing.T) {
	src := &countingSource{inner: StaticSource{}}
	fallback := testFallback
	payments, err := Resolve(context.Background(), Request{
		UnitPrices: []*uint256.Int{wad(t, "5"), wad(t, "6")},
		Numerator:  wad(t, "0.5"),
		Fallback:   &fallback,
		Pool:       testPool,
	}, src)
	require.NoError(t, err)
	require.Zero(t, src.calls)
	require.Equal(t, wad(t, "5.5"), Total(payments))
	require.Nil(t, payments[0].Item)
	require.Equal(t, testFallback, payments[1].Recipient)
}

func TestResolveSourceError(t *testing.T) {
	src := sourceFunc(func(context.Context, []*uint256.Int) ([]*common.Address, error) {
		return nil, errors.New("rpc down")
	})
	_, err := Resolve(context.Background(), Request{
		Items:      []*uint256.Int{uint256.NewInt(1)},
		UnitPrices: []*uint256.Int{wad(t, "1")},
		Numerator:  wad(t, "0.1"),
		Pool:       testPool,
	}, src)
	require.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, Config{Numerator: wad(t, "0.1")}.Validate())
	require.ErrorIs(t, Config{Numerator: wad(t, "1")}.Validate(), ErrInvalidNumerator)
}

type sourceFunc func(ctx context.Context, items []*uint256.Int) ([]*common.Address, error)

func (f sourceFunc) Recipients(ctx context.Context, items []*uint256.Int) ([]*common.Address, error) {
	return f(ctx, items)
}

func TestResolveRoundsDown(t *testing.T) {
	payments, err := Resolve(context.Background(), Request{
		UnitPrices: []*uint256.Int{uint256.NewInt(7), uint256.NewInt(1)},
		Numerator:  wad(t, "0.5"),
		Pool:       testPool,
	}, nil)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(3), payments[0].Amount)
	require.True(t, payments[1].Amount.IsZero())
	require.Equal(t, uint256.NewInt(3), Total(payments))
}
