package pool

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"nftPool/internal/curve"
	"nftPool/internal/fees"
	"nftPool/internal/fixedpoint"
	"nftPool/internal/royalty"
)

// Quote is the priced outcome of a prospective trade. Err is CodeOK when the
// trade is executable as quoted.
//
// Amount is what the counterparty pays on a buy (RawTotal plus royalties)
// or receives on a sell (Principal minus royalties).
type Quote struct {
	Err          ErrorCode
	Direction    curve.Direction
	Items        []*uint256.Int
	NewState     curve.PriceState
	RawTotal     *uint256.Int
	Principal    *uint256.Int
	TradeFee     *uint256.Int
	ProtocolFee  *uint256.Int
	UnitPrices   []*uint256.Int
	Royalties    []royalty.Payment
	RoyaltyTotal *uint256.Int
	Amount       *uint256.Int
}

// PoolRoyalties sums the royalty payments that stay with the pool.
func (q Quote) PoolRoyalties() *uint256.Int {
	total := fixedpoint.Zero()
	for _, r := range q.Royalties {
		if r.ToPool {
			total.Add(total, r.Amount)
		}
	}
	return total
}

// BuyQuote prices buying n items. The quote names the n oldest held items.
func (p *Pool) BuyQuote(ctx context.Context, n uint64) (Quote, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var items []*uint256.Int
	if n <= uint64(p.inventory.len()) {
		items = p.inventory.first(int(n))
	}
	return p.quoteResult(p.quoteLocked(ctx, curve.Buy, n, items))
}

// SellQuote prices selling n unnamed items. Royalties go to the fallback or
// the pool since no item can be looked up.
func (p *Pool) SellQuote(ctx context.Context, n uint64) (Quote, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.quoteResult(p.quoteLocked(ctx, curve.Sell, n, nil))
}

// SellQuoteForItems prices selling the given items, resolving royalties per
// id. The filter is not checked; that needs the proof passed to SwapForAsset.
func (p *Pool) SellQuoteForItems(ctx context.Context, ids []*uint256.Int) (Quote, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.quoteResult(p.quoteLocked(ctx, curve.Sell, uint64(len(ids)), ids))
}

func (p *Pool) quoteResult(q Quote, err error) (Quote, error) {
	q.Err = CodeOf(err)
	if err != nil {
		p.logger.Debug("quote rejected", zap.Stringer("direction", q.Direction), zap.Stringer("code", q.Err), zap.Error(err))
		return q, err
	}
	p.logger.Debug("quote",
		zap.Stringer("direction", q.Direction),
		zap.Int("items", len(q.UnitPrices)),
		zap.String("raw_total", q.RawTotal.Dec()),
		zap.String("amount", q.Amount.Dec()),
	)
	return q, nil
}

// quoteLocked runs the shared pricing pipeline. It never writes pool state.
// items, when set, must hold exactly n ids.
func (p *Pool) quoteLocked(ctx context.Context, dir curve.Direction, n uint64, items []*uint256.Int) (Quote, error) {
	q := Quote{Direction: dir, Items: items}

	if p.destroyed {
		return q, ErrPoolDestroyed
	}
	if !allows(p.mode, dir) {
		return q, fmt.Errorf("%w: %s pool does not %s items", ErrWrongPoolMode, p.mode, verb(dir))
	}
	if n == 0 || n > MaxSwapItems {
		return q, fmt.Errorf("%w: %d items", ErrInvalidSwapQuantity, n)
	}
	if items != nil {
		if uint64(len(items)) != n {
			return q, fmt.Errorf("%w: %d ids for %d items", ErrInvalidSwapQuantity, len(items), n)
		}
		if err := checkDistinct(items); err != nil {
			return q, err
		}
	}
	switch dir {
	case curve.Buy:
		if n > uint64(p.inventory.len()) {
			return q, fmt.Errorf("%w: %d requested, %d held", ErrInvalidSwapQuantity, n, p.inventory.len())
		}
		if items != nil {
			if err := p.inventory.checkHeld(items); err != nil {
				return q, err
			}
		}
	case curve.Sell:
		for _, id := range items {
			if p.inventory.has(id) {
				return q, fmt.Errorf("%w: item %s already held", ErrInvalidSwapQuantity, id.Dec())
			}
		}
	}

	res, err := curve.Project(p.state, n, dir)
	if err != nil {
		return q, classify(err)
	}
	q.NewState = res.NewState
	q.RawTotal = res.RawTotal
	q.UnitPrices = res.UnitPrices

	protocol := p.protocol.Snapshot()
	split, err := fees.Split(res.RawTotal, p.mode, fees.Rates{
		TradeFee:    p.tradeFee,
		ProtocolFee: protocol.ProtocolFee,
		CarryFee:    protocol.CarryFee,
	})
	if err != nil {
		return q, classify(err)
	}
	q.Principal = split.Principal
	q.TradeFee = split.TradeFee
	q.ProtocolFee = split.ProtocolFee

	payments, err := royalty.Resolve(ctx, royalty.Request{
		Items:      items,
		UnitPrices: res.UnitPrices,
		Numerator:  p.royalty.Numerator,
		Fallback:   p.royalty.Fallback,
		Pool:       p.address,
	}, p.royalties)
	if err != nil {
		return q, classify(err)
	}
	q.Royalties = payments
	q.RoyaltyTotal = royalty.Total(payments)

	if dir == curve.Buy {
		q.Amount, err = fixedpoint.Add(q.RawTotal, q.RoyaltyTotal)
	} else {
		q.Amount, err = fixedpoint.Sub(q.Principal, q.RoyaltyTotal)
	}
	if err != nil {
		return q, classify(err)
	}
	return q, nil
}

// allows reports whether mode trades in direction dir. Token pools only buy
// items from counterparties and NFT pools only sell them.
func allows(mode fees.Mode, dir curve.Direction) bool {
	switch mode {
	case fees.ModeTrade:
		return dir == curve.Buy || dir == curve.Sell
	case fees.ModeNFT:
		return dir == curve.Buy
	case fees.ModeToken:
		return dir == curve.Sell
	default:
		return false
	}
}

func verb(dir curve.Direction) string {
	if dir == curve.Buy {
		return "sell"
	}
	return "buy"
}
