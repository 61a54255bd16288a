package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"nftPool/internal/curve"
	"nftPool/internal/fees"
	"nftPool/internal/fixedpoint"
)

const poolYAML = `
swap-log: ./out/swaps.jsonl
protocol-fee: "0.005"
pool:
  address: "0x00000000000000000000000000000000000000bb"
  owner: "0x00000000000000000000000000000000000000aa"
  mode: trade
  curve: exponential
  spot-price: "1.5"
  delta: "1.1"
  trade-fee: "0.05"
  royalty-numerator: "0.025"
  royalty-fallback: "0x00000000000000000000000000000000000000c2"
  filter-ids: [1, 2, 3, "0x10"]
  items: "1,2"
  reserve: "100"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pool.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadPoolConfig(t *testing.T) {
	t.Setenv("POOL_POOL_SPOT_PRICE", "2")
	cfg, err := Load(writeConfig(t, poolYAML), nil)
	require.NoError(t, err)

	require.Equal(t, "./out/swaps.jsonl", cfg.SwapLog)
	require.Equal(t, "./data/pools", cfg.StateDir)
	require.Equal(t, "0.005", cfg.ProtocolFee)
	require.Equal(t, "2", cfg.Pool.SpotPrice)
	require.Equal(t, []string{"1", "2", "3", "0x10"}, cfg.Pool.FilterIDs)
	require.Equal(t, []string{"1", "2"}, cfg.Pool.Items)

	pc, err := cfg.Pool.Build()
	require.NoError(t, err)
	require.Equal(t, fees.ModeTrade, pc.Mode)
	require.Equal(t, curve.KindExponential, pc.State.Kind)
	require.Equal(t, fixedpoint.FromUint64(2), pc.State.SpotPrice)
	require.Equal(t, uint256.NewInt(1_100_000_000_000_000_000), pc.State.Delta)
	require.Equal(t, uint256.NewInt(50_000_000_000_000_000), pc.TradeFee)
	require.NotNil(t, pc.Royalty.Fallback)
	require.True(t, pc.Filter.Enabled())
	require.Len(t, pc.Items, 2)
	require.Equal(t, fixedpoint.FromUint64(100), pc.Reserve)
}

func TestBuildSigmoidDef(t *testing.T) {
	def := PoolDef{
		Address: "0x00000000000000000000000000000000000000bb",
		Owner:   "0x00000000000000000000000000000000000000aa",
		Mode:    "nft",
		Curve:   "sigmoid",
		Delta:   "2048",
		PMin:    "1",
		DeltaP:  "4",
		Index:   -3,
	}
	pc, err := def.Build()
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(2048), pc.State.Delta)
	require.Equal(t, int64(-3), pc.State.Sigmoid.Index)
	require.Equal(t, fixedpoint.FromUint64(4), pc.State.Sigmoid.DeltaP)
	require.False(t, pc.Filter.Enabled())
	require.Nil(t, pc.Royalty.Fallback)
}

func TestBuildRejectsBadInput(t *testing.T) {
	base := PoolDef{
		Address:   "0x00000000000000000000000000000000000000bb",
		Owner:     "0x00000000000000000000000000000000000000aa",
		Mode:      "token",
		Curve:     "linear",
		SpotPrice: "1",
		Delta:     "0.1",
	}
	_, err := base.Build()
	require.NoError(t, err)

	cases := map[string]func(d *PoolDef){
		"address": func(d *PoolDef) { d.Address = "pool" },
		"mode":    func(d *PoolDef) { d.Mode = "lend" },
		"curve":   func(d *PoolDef) { d.Curve = "cubic" },
		"spot":    func(d *PoolDef) { d.SpotPrice = "-1" },
		"decimals": func(d *PoolDef) {
			d.SpotPrice = "0.0000000000000000001"
		},
		"item":     func(d *PoolDef) { d.Items = []string{"x"} },
		"fallback": func(d *PoolDef) { d.RoyaltyFallback = "0x12" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			def := base
			mutate(&def)
			_, err := def.Build()
			require.Error(t, err)
		})
	}
}

func TestParseIDs(t *testing.T) {
	ids, err := ParseIDs([]string{" 7 ", "", "0xff"})
	require.NoError(t, err)
	require.Equal(t, []*uint256.Int{uint256.NewInt(7), uint256.NewInt(255)}, ids)

	_, err = ParseIDs([]string{"0x"})
	require.Error(t, err)
}

func TestLoadRoyaltyDefaults(t *testing.T) {
	t.Setenv("POOL_COLLECTION", "0x00000000000000000000000000000000000000dd")
	cfg, err := LoadRoyalty(writeConfig(t, "rpc: http://localhost:8545\nids: [1, 2]\n"), nil)
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8545", cfg.RPCURL)
	require.Equal(t, "0x00000000000000000000000000000000000000dd", cfg.Collection)
	require.Equal(t, []string{"1", "2"}, cfg.IDs)
	require.Equal(t, 4096, cfg.CacheSize)
	require.Equal(t, 5, cfg.MaxRetries)
}

func TestStatsWindowAndTimestamp(t *testing.T) {
	cfg := StatsConfig{Window: "5m"}
	secs, err := cfg.WindowSeconds()
	require.NoError(t, err)
	require.Equal(t, uint64(300), secs)

	_, err = StatsConfig{Window: "1500ms"}.WindowSeconds()
	require.Error(t, err)

	ts, err := ParseTimestamp("2024-01-01T00:00:00Z")
	require.NoError(t, err)
	require.Equal(t, uint64(1704067200), ts)

	ts, err = ParseTimestamp("42")
	require.NoError(t, err)
	require.Equal(t, uint64(42), ts)
}
