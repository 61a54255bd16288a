package pool

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"nftPool/internal/curve"
	"nftPool/internal/filter"
	"nftPool/internal/fixedpoint"
	"nftPool/internal/royalty"
)

// Owner returns the address allowed to reconfigure the pool.
func (p *Pool) Owner() common.Address { return p.owner }

func (p *Pool) authorize(caller common.Address) error {
	if p.destroyed {
		return ErrPoolDestroyed
	}
	if caller != p.owner {
		return fmt.Errorf("%w: %s", ErrUnauthorized, caller.Hex())
	}
	return nil
}

// SetFilter replaces the token-ID filter. A zero root disables it.
func (p *Pool) SetFilter(caller common.Address, f filter.Filter) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.authorize(caller); err != nil {
		return err
	}
	p.filter = copyFilter(f)
	p.logger.Info("filter updated", zap.String("root", f.Root.Hex()), zap.Bool("enabled", f.Enabled()))
	return nil
}

// SetTradeFee changes the pool-local trade fee. Only trade pools may charge
// one.
func (p *Pool) SetTradeFee(caller common.Address, rate *uint256.Int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.authorize(caller); err != nil {
		return err
	}
	if rate == nil {
		return fmt.Errorf("%w: trade fee is required", ErrInvalidConfig)
	}
	if err := checkTradeFee(p.mode, rate); err != nil {
		return err
	}
	p.tradeFee = new(uint256.Int).Set(rate)
	p.logger.Info("trade fee updated", zap.String("rate", rate.Dec()))
	return nil
}

func (p *Pool) SetRoyalty(caller common.Address, cfg royalty.Config) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.authorize(caller); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return classify(err)
	}
	p.royalty = royalty.Config{Numerator: new(uint256.Int).Set(cfg.Numerator), Fallback: copyAddr(cfg.Fallback)}
	p.logger.Info("royalty updated", zap.String("numerator", cfg.Numerator.Dec()))
	return nil
}

// SetSpotPrice moves the spot price of a linear or exponential pool. A
// sigmoid spot follows its index and cannot be set directly.
func (p *Pool) SetSpotPrice(caller common.Address, spot *uint256.Int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.authorize(caller); err != nil {
		return err
	}
	if spot == nil {
		return fmt.Errorf("%w: spot price is required", ErrInvalidConfig)
	}
	next := p.state.Clone()
	next.SpotPrice = new(uint256.Int).Set(spot)
	if next.Sigmoid != nil {
		return fmt.Errorf("%w: sigmoid spot price is derived from its index", ErrInvalidConfig)
	}
	return p.replaceState(next)
}

func (p *Pool) SetDelta(caller common.Address, delta *uint256.Int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.authorize(caller); err != nil {
		return err
	}
	if delta == nil {
		return fmt.Errorf("%w: delta is required", ErrInvalidConfig)
	}
	next := p.state.Clone()
	next.Delta = new(uint256.Int).Set(delta)
	return p.replaceState(next)
}

func (p *Pool) replaceState(next curve.PriceState) error {
	state, err := normalizeState(next)
	if err != nil {
		return err
	}
	p.state = state
	p.logger.Info("price state updated", zap.String("spot", state.SpotPrice.Dec()), zap.String("delta", state.Delta.Dec()))
	return nil
}

// DepositItems adds items to the inventory.
func (p *Pool) DepositItems(caller common.Address, ids []*uint256.Int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.authorize(caller); err != nil {
		return err
	}
	if err := p.inventory.add(ids); err != nil {
		return err
	}
	p.logger.Info("items deposited", zap.Int("count", len(ids)), zap.Int("held", p.inventory.len()))
	return nil
}

// WithdrawItems removes held items without pricing them.
func (p *Pool) WithdrawItems(caller common.Address, ids []*uint256.Int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.authorize(caller); err != nil {
		return err
	}
	if err := p.inventory.remove(ids); err != nil {
		return err
	}
	p.logger.Info("items withdrawn", zap.Int("count", len(ids)), zap.Int("held", p.inventory.len()))
	return nil
}

func (p *Pool) DepositAsset(caller common.Address, amount *uint256.Int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.authorize(caller); err != nil {
		return err
	}
	next, err := fixedpoint.Add(p.reserve, orZero(amount))
	if err != nil {
		return classify(err)
	}
	p.reserve = next
	p.logger.Info("asset deposited", zap.String("amount", orZero(amount).Dec()), zap.String("reserve", next.Dec()))
	return nil
}

func (p *Pool) WithdrawAsset(caller common.Address, amount *uint256.Int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.authorize(caller); err != nil {
		return err
	}
	if orZero(amount).Gt(p.reserve) {
		return fmt.Errorf("%w: withdraw %s, reserve %s", ErrInsufficientLiquidity, amount.Dec(), p.reserve.Dec())
	}
	p.reserve = new(uint256.Int).Sub(p.reserve, orZero(amount))
	p.logger.Info("asset withdrawn", zap.String("amount", orZero(amount).Dec()), zap.String("reserve", p.reserve.Dec()))
	return nil
}

// Destroy retires the pool. Every later swap or mutation fails with
// ErrPoolDestroyed; reads keep working.
func (p *Pool) Destroy(caller common.Address) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.authorize(caller); err != nil {
		return err
	}
	p.destroyed = true
	p.logger.Info("pool destroyed")
	return nil
}
