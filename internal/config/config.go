package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the settings shared by the pool commands.
type Config struct {
	RPCURL      string
	Collection  string
	StateDir    string
	PGDSN       string
	SwapLog     string
	LogLevel    string
	LogFile     string
	ProtocolFee string
	CarryFee    string
	Pool        PoolDef
}

// FilterConfig holds settings for the filter commands.
type FilterConfig struct {
	IDs      []string
	IDsFile  string
	Prove    []string
	Root     string
	Proof    []string
	Flags    []string
	LogLevel string
}

// RoyaltyConfig holds settings for ERC-2981 recipient lookups.
type RoyaltyConfig struct {
	RPCURL       string
	Collection   string
	IDs          []string
	CacheSize    int
	Concurrency  int
	MaxRetries   int
	RetryBackoff time.Duration
	LogLevel     string
	LogFile      string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"state-dir":    "./data/pools",
		"swap-log":     "./data/swaps.jsonl",
		"log-level":    "info",
		"protocol-fee": "0",
		"carry-fee":    "0",
		"pool.mode":    "trade",
		"pool.curve":   "linear",
	})
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		RPCURL:      v.GetString("rpc"),
		Collection:  v.GetString("collection"),
		StateDir:    v.GetString("state-dir"),
		PGDSN:       v.GetString("pg-dsn"),
		SwapLog:     v.GetString("swap-log"),
		LogLevel:    v.GetString("log-level"),
		LogFile:     v.GetString("log-file"),
		ProtocolFee: v.GetString("protocol-fee"),
		CarryFee:    v.GetString("carry-fee"),
		Pool: PoolDef{
			Address:          v.GetString("pool.address"),
			Owner:            v.GetString("pool.owner"),
			Mode:             v.GetString("pool.mode"),
			Curve:            v.GetString("pool.curve"),
			SpotPrice:        v.GetString("pool.spot-price"),
			Delta:            v.GetString("pool.delta"),
			PMin:             v.GetString("pool.p-min"),
			DeltaP:           v.GetString("pool.delta-p"),
			Index:            v.GetInt64("pool.index"),
			TradeFee:         v.GetString("pool.trade-fee"),
			RoyaltyNumerator: v.GetString("pool.royalty-numerator"),
			RoyaltyFallback:  v.GetString("pool.royalty-fallback"),
			FilterIDs:        getStringSlice(v, "pool.filter-ids"),
			Items:            getStringSlice(v, "pool.items"),
			Reserve:          v.GetString("pool.reserve"),
		},
	}
	return cfg, nil
}

// LoadFilter merges config file, environment variables, and flags into FilterConfig.
func LoadFilter(cfgFile string, flags *pflag.FlagSet) (FilterConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"log-level": "info",
	})
	if err != nil {
		return FilterConfig{}, err
	}
	return FilterConfig{
		IDs:      getStringSlice(v, "ids"),
		IDsFile:  v.GetString("ids-file"),
		Prove:    getStringSlice(v, "prove"),
		Root:     v.GetString("root"),
		Proof:    getStringSlice(v, "proof"),
		Flags:    getStringSlice(v, "flags"),
		LogLevel: v.GetString("log-level"),
	}, nil
}

// LoadRoyalty merges config file, environment variables, and flags into RoyaltyConfig.
func LoadRoyalty(cfgFile string, flags *pflag.FlagSet) (RoyaltyConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"cache-size":    4096,
		"concurrency":   8,
		"max-retries":   5,
		"retry-backoff": 500 * time.Millisecond,
		"log-level":     "info",
	})
	if err != nil {
		return RoyaltyConfig{}, err
	}
	return RoyaltyConfig{
		RPCURL:       v.GetString("rpc"),
		Collection:   v.GetString("collection"),
		IDs:          getStringSlice(v, "ids"),
		CacheSize:    v.GetInt("cache-size"),
		Concurrency:  v.GetInt("concurrency"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		LogLevel:     v.GetString("log-level"),
		LogFile:      v.GetString("log-file"),
	}, nil
}

func newViper(cfgFile string, flags *pflag.FlagSet, defaults map[string]interface{}) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("POOL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
