package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// StatsConfig holds configuration for swap ledger aggregation.
type StatsConfig struct {
	Input     string
	Window    string
	PGDSN     string
	BatchSize int
	From      string
	LogLevel  string
	LogFile   string
}

// LoadStats merges config file, environment variables, and flags into StatsConfig.
func LoadStats(cfgFile string, flags *pflag.FlagSet) (StatsConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"in":         "./data/swaps.jsonl",
		"window":     "1h",
		"batch-size": 1000,
		"log-level":  "info",
	})
	if err != nil {
		return StatsConfig{}, err
	}
	return StatsConfig{
		Input:     v.GetString("in"),
		Window:    v.GetString("window"),
		PGDSN:     v.GetString("pg-dsn"),
		BatchSize: v.GetInt("batch-size"),
		From:      v.GetString("from"),
		LogLevel:  v.GetString("log-level"),
		LogFile:   v.GetString("log-file"),
	}, nil
}

// WindowSeconds parses the window as a whole number of seconds.
func (c StatsConfig) WindowSeconds() (uint64, error) {
	d, err := time.ParseDuration(c.Window)
	if err != nil {
		return 0, fmt.Errorf("invalid window %q: %w", c.Window, err)
	}
	if d < time.Second || d%time.Second != 0 {
		return 0, fmt.Errorf("window must be a positive whole number of seconds: %s", c.Window)
	}
	return uint64(d / time.Second), nil
}

// ParseTimestamp parses a timestamp value (unix seconds or RFC3339).
func ParseTimestamp(input string) (uint64, error) {
	if strings.TrimSpace(input) == "" {
		return 0, nil
	}

	if isNumeric(input) {
		val, err := strconv.ParseUint(input, 10, 64)
		if err != nil {
			return 0, err
		}
		return val, nil
	}

	tm, err := time.Parse(time.RFC3339, input)
	if err != nil {
		return 0, err
	}
	return uint64(tm.Unix()), nil
}

func isNumeric(input string) bool {
	for _, r := range input {
		if r < '0' || r > '9' {
			return false
		}
	}
	return input != ""
}
