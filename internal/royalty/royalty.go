// Package royalty computes per-item royalty payments for a trade.
package royalty

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"nftPool/internal/fixedpoint"
)

var ErrInvalidNumerator = errors.New("royalty: numerator must be below 1.0")

// Config is the pool's royalty setting.
type Config struct {
	Numerator *uint256.Int
	Fallback  *common.Address
}

// Validate checks 0 <= numerator < 1.
func (c Config) Validate() error {
	if c.Numerator == nil || !c.Numerator.Lt(fixedpoint.One()) {
		return ErrInvalidNumerator
	}
	return nil
}

// Payment is the royalty owed for one traded item. ToPool marks payments
// that stay with the pool because no external recipient is known.
type Payment struct {
	Item      *uint256.Int
	Recipient common.Address
	Amount    *uint256.Int
	ToPool    bool
}

// Source looks up per-item royalty recipients. A nil entry means the item
// has no recipient of its own.
type Source interface {
	Recipients(ctx context.Context, items []*uint256.Int) ([]*common.Address, error)
}

// Request describes the traded items. Items may be nil when the trade is
// quoted by count only; per-item lookups are skipped in that case.
type Request struct {
	Items      []*uint256.Int
	UnitPrices []*uint256.Int
	Numerator  *uint256.Int
	Fallback   *common.Address
	Pool       common.Address
}

// Resolve computes price*numerator for each unit, rounded down, and picks
// the recipient: the item's own recipient, then the configured fallback,
// then the pool.
func Resolve(ctx context.Context, req Request, src Source) ([]Payment, error) {
	if req.Items != nil && len(req.Items) != len(req.UnitPrices) {
		return nil, fmt.Errorf("royalty: %d items but %d prices", len(req.Items), len(req.UnitPrices))
	}

	payments := make([]Payment, len(req.UnitPrices))
	if req.Numerator == nil || req.Numerator.IsZero() {
		for i := range payments {
			payments[i] = Payment{
				Item:      itemAt(req.Items, i),
				Recipient: req.Pool,
				Amount:    fixedpoint.Zero(),
				ToPool:    true,
			}
		}
		return payments, nil
	}

	var recipients []*common.Address
	if src != nil && len(req.Items) > 0 {
		var err error
		recipients, err = src.Recipients(ctx, req.Items)
		if err != nil {
			return nil, fmt.Errorf("royalty recipients: %w", err)
		}
		if len(recipients) != len(req.Items) {
			return nil, fmt.Errorf("royalty: source returned %d recipients for %d items", len(recipients), len(req.Items))
		}
	}

	for i, price := range req.UnitPrices {
		amount, err := fixedpoint.MulWadDown(price, req.Numerator)
		if err != nil {
			return nil, err
		}
		p := Payment{Item: itemAt(req.Items, i), Amount: amount}
		switch {
		case i < len(recipients) && recipients[i] != nil && *recipients[i] != (common.Address{}):
			p.Recipient = *recipients[i]
		case req.Fallback != nil && *req.Fallback != (common.Address{}):
			p.Recipient = *req.Fallback
		default:
			p.Recipient = req.Pool
			p.ToPool = true
		}
		payments[i] = p
	}
	return payments, nil
}

// Total sums every payment amount.
func Total(payments []Payment) *uint256.Int {
	total := fixedpoint.Zero()
	for _, p := range payments {
		total.Add(total, p.Amount)
	}
	return total
}

func itemAt(items []*uint256.Int, i int) *uint256.Int {
	if i < len(items) {
		return items[i]
	}
	return nil
}

// StaticSource serves recipients from a fixed map keyed by item id.
type StaticSource map[uint256.Int]common.Address

func (s StaticSource) Recipients(_ context.Context, items []*uint256.Int) ([]*common.Address, error) {
	out := make([]*common.Address, len(items))
	for i, item := range items {
		if addr, ok := s[*item]; ok {
			addr := addr
			out[i] = &addr
		}
	}
	return out, nil
}
