package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"nftPool/internal/model"
	"nftPool/internal/pool"
)

// Notifier fans committed swaps out to every sink.
type Notifier struct {
	sinks []SwapSink
}

func NewNotifier(sinks ...SwapSink) *Notifier {
	return &Notifier{sinks: sinks}
}

// Notify writes the settlement to every sink. All sinks are attempted even
// when one fails.
func (n *Notifier) Notify(ctx context.Context, s pool.Settlement) error {
	record := SwapRecordFromSettlement(s)
	var errs []error
	for _, sink := range n.sinks {
		if err := sink.PutSwap(ctx, record); err != nil {
			errs = append(errs, fmt.Errorf("swap sink %T: %w", sink, err))
		}
	}
	return errors.Join(errs...)
}

// Deferred holds committed swaps until Flush, so a caller can persist the
// pool snapshot before the ledger records the swap.
type Deferred struct {
	next pool.Notifier

	mu      sync.Mutex
	pending []pool.Settlement
}

func NewDeferred(next pool.Notifier) *Deferred {
	return &Deferred{next: next}
}

// Notify queues s. It never fails.
func (d *Deferred) Notify(_ context.Context, s pool.Settlement) error {
	d.mu.Lock()
	d.pending = append(d.pending, s)
	d.mu.Unlock()
	return nil
}

// Flush forwards every queued settlement in commit order and empties the
// queue, even when some deliveries fail.
func (d *Deferred) Flush(ctx context.Context) error {
	d.mu.Lock()
	pending := d.pending
	d.pending = nil
	d.mu.Unlock()

	var errs []error
	for _, s := range pending {
		if err := d.next.Notify(ctx, s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Pending reports how many settlements are queued.
func (d *Deferred) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// LogSink writes swap records to a zap logger.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) PutSwap(_ context.Context, record model.SwapRecord) error {
	s.logger.Info("swap",
		zap.String("pool", record.Pool),
		zap.String("mode", record.Mode),
		zap.String("direction", record.Direction),
		zap.Strings("items", record.Items),
		zap.String("raw_total", record.RawTotal),
		zap.String("amount", record.Amount),
		zap.String("protocol_fee", record.ProtocolFee),
		zap.String("trade_fee", record.TradeFee),
		zap.String("royalty_total", record.RoyaltyTotal),
		zap.String("spot_price", record.SpotPrice),
	)
	return nil
}
