package aggregate

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"nftPool/internal/model"
)

// Sink receives flushed window metrics.
type Sink interface {
	UpsertWindowMetrics(ctx context.Context, metrics []model.PoolWindowMetrics) error
}

// Config controls aggregation behavior.
type Config struct {
	WindowSeconds uint64
	BatchSize     int
	From          uint64
}

// Aggregator folds a JSONL swap ledger into per-pool window metrics.
type Aggregator struct {
	cfg          Config
	sink         Sink
	logger       *zap.Logger
	accumulators map[string]*Accumulator
}

// NewAggregator builds an aggregator. sink may be nil, in which case metrics
// are only returned from Run.
func NewAggregator(cfg Config, sink Sink, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		cfg:          cfg,
		sink:         sink,
		logger:       logger,
		accumulators: make(map[string]*Accumulator),
	}
}

// Run aggregates every record in inputPath executed at or after cfg.From.
// Records of one pool are expected in execution order, which is how the
// ledger is appended.
func (a *Aggregator) Run(ctx context.Context, inputPath string) ([]model.PoolWindowMetrics, error) {
	if a.cfg.WindowSeconds == 0 {
		return nil, fmt.Errorf("window seconds must be > 0")
	}
	if a.cfg.BatchSize <= 0 {
		a.cfg.BatchSize = 1000
	}

	file, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	var all, batch []model.PoolWindowMetrics
	var total, skipped, failed int

	flush := func(acc *Accumulator) error {
		m := acc.Metrics()
		all = append(all, m)
		batch = append(batch, m)
		if len(batch) >= a.cfg.BatchSize {
			if err := a.write(ctx, batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
		return nil
	}

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		total++

		var record model.SwapRecord
		if err := json.Unmarshal(line, &record); err != nil {
			failed++
			a.logger.Warn("decode swap record", zap.Error(err))
			continue
		}
		executed, err := time.Parse(time.RFC3339Nano, record.ExecutedAt)
		if err != nil {
			failed++
			a.logger.Warn("parse executed_at", zap.Error(err), zap.String("pool", record.Pool))
			continue
		}
		ts := uint64(executed.Unix())
		if ts < a.cfg.From {
			skipped++
			continue
		}

		start := windowStart(ts, a.cfg.WindowSeconds)
		key := strings.ToLower(record.Pool)
		acc := a.accumulators[key]
		if acc != nil && acc.WindowStart != start {
			if err := flush(acc); err != nil {
				return nil, err
			}
			acc = nil
		}
		if acc == nil {
			acc = NewAccumulator(key, start, start+a.cfg.WindowSeconds)
			a.accumulators[key] = acc
		}

		if err := acc.AddSwap(record, ts); err != nil {
			failed++
			a.logger.Warn("aggregate swap", zap.Error(err), zap.String("pool", record.Pool))
			continue
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan input: %w", err)
	}

	keys := make([]string, 0, len(a.accumulators))
	for key := range a.accumulators {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := flush(a.accumulators[key]); err != nil {
			return nil, err
		}
	}
	a.accumulators = make(map[string]*Accumulator)

	if err := a.write(ctx, batch); err != nil {
		return nil, err
	}

	a.logger.Info("aggregate complete",
		zap.Int("total", total),
		zap.Int("windows", len(all)),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
	)
	return all, nil
}

func (a *Aggregator) write(ctx context.Context, batch []model.PoolWindowMetrics) error {
	if a.sink == nil || len(batch) == 0 {
		return nil
	}
	if err := a.sink.UpsertWindowMetrics(ctx, batch); err != nil {
		return fmt.Errorf("write window metrics: %w", err)
	}
	return nil
}
