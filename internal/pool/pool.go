// Package pool sequences curve pricing, the fee waterfall, royalties and the
// token-ID filter into quotes and atomic swaps.
package pool

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"nftPool/internal/curve"
	"nftPool/internal/fees"
	"nftPool/internal/filter"
	"nftPool/internal/fixedpoint"
	"nftPool/internal/royalty"
)

// MaxSwapItems caps the number of units priced in one call.
const MaxSwapItems = 10_000

// Config is everything needed to construct or restore a pool.
type Config struct {
	Address   common.Address
	Owner     common.Address
	Mode      fees.Mode
	State     curve.PriceState
	TradeFee  *uint256.Int
	Royalty   royalty.Config
	Filter    filter.Filter
	Items     []*uint256.Int
	Reserve   *uint256.Int
	Destroyed bool
}

// Settler moves assets for a settlement. A failing Settler aborts the swap
// before any pool state changes.
type Settler interface {
	Settle(ctx context.Context, s Settlement) error
}

// Notifier receives every committed settlement.
type Notifier interface {
	Notify(ctx context.Context, s Settlement) error
}

// Deps are the external collaborators of a pool.
type Deps struct {
	Protocol  fees.Source
	Royalties royalty.Source
	Settler   Settler
	Notifier  Notifier
	Logger    *zap.Logger
}

// Pool holds the price state, configuration and inventory of one pool.
// Every method runs under the pool lock, so a swap is never observed half
// applied.
type Pool struct {
	mu sync.Mutex

	address   common.Address
	owner     common.Address
	mode      fees.Mode
	state     curve.PriceState
	tradeFee  *uint256.Int
	royalty   royalty.Config
	filter    filter.Filter
	inventory *inventory
	reserve   *uint256.Int
	destroyed bool

	protocol  fees.Source
	royalties royalty.Source
	settler   Settler
	notifier  Notifier
	logger    *zap.Logger
}

// New validates cfg and builds a pool.
func New(cfg Config, deps Deps) (*Pool, error) {
	if deps.Protocol == nil {
		return nil, fmt.Errorf("%w: protocol fee source is required", ErrInvalidConfig)
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if cfg.Mode != fees.ModeToken && cfg.Mode != fees.ModeNFT && cfg.Mode != fees.ModeTrade {
		return nil, fmt.Errorf("%w: unknown mode %d", ErrInvalidConfig, uint8(cfg.Mode))
	}

	tradeFee := orZero(cfg.TradeFee)
	if err := checkTradeFee(cfg.Mode, tradeFee); err != nil {
		return nil, err
	}
	royaltyCfg := royalty.Config{Numerator: orZero(cfg.Royalty.Numerator), Fallback: copyAddr(cfg.Royalty.Fallback)}
	if err := royaltyCfg.Validate(); err != nil {
		return nil, classify(err)
	}

	state, err := normalizeState(cfg.State.Clone())
	if err != nil {
		return nil, err
	}

	inv := newInventory()
	if err := inv.add(cfg.Items); err != nil {
		return nil, err
	}

	return &Pool{
		address:   cfg.Address,
		owner:     cfg.Owner,
		mode:      cfg.Mode,
		state:     state,
		tradeFee:  tradeFee,
		royalty:   royaltyCfg,
		filter:    copyFilter(cfg.Filter),
		inventory: inv,
		reserve:   new(uint256.Int).Set(orZero(cfg.Reserve)),
		destroyed: cfg.Destroyed,
		protocol:  deps.Protocol,
		royalties: deps.Royalties,
		settler:   deps.Settler,
		notifier:  deps.Notifier,
		logger:    deps.Logger.With(zap.String("pool", cfg.Address.Hex())),
	}, nil
}

// Config returns a deep copy of the pool's current configuration and state.
func (p *Pool) Config() Config {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Config{
		Address:   p.address,
		Owner:     p.owner,
		Mode:      p.mode,
		State:     p.state.Clone(),
		TradeFee:  new(uint256.Int).Set(p.tradeFee),
		Royalty:   royalty.Config{Numerator: new(uint256.Int).Set(p.royalty.Numerator), Fallback: copyAddr(p.royalty.Fallback)},
		Filter:    copyFilter(p.filter),
		Items:     p.inventory.list(),
		Reserve:   new(uint256.Int).Set(p.reserve),
		Destroyed: p.destroyed,
	}
}

func (p *Pool) Address() common.Address { return p.address }

func (p *Pool) Mode() fees.Mode { return p.mode }

// State returns a copy of the current price state.
func (p *Pool) State() curve.PriceState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.Clone()
}

func (p *Pool) Destroyed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.destroyed
}

// Inventory lists the held item ids in deposit order.
func (p *Pool) Inventory() []*uint256.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inventory.list()
}

// Reserve returns the fungible balance the pool can pay out.
func (p *Pool) Reserve() *uint256.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return new(uint256.Int).Set(p.reserve)
}

// normalizeState validates state and derives the sigmoid spot price from
// its index when it is missing.
func normalizeState(state curve.PriceState) (curve.PriceState, error) {
	c, err := curve.ForKind(state.Kind)
	if err != nil {
		return curve.PriceState{}, classify(err)
	}
	if err := c.Validate(state); err != nil {
		return curve.PriceState{}, classify(err)
	}
	if state.Kind == curve.KindSigmoid {
		spot, err := curve.Sigmoid{}.SpotAt(state, state.Sigmoid.Index)
		if err != nil {
			return curve.PriceState{}, classify(err)
		}
		state.SpotPrice = spot
	}
	return state, nil
}

func checkTradeFee(mode fees.Mode, rate *uint256.Int) error {
	if err := fees.ValidateTradeFee(rate); err != nil {
		return classify(err)
	}
	if mode != fees.ModeTrade && !rate.IsZero() {
		return fmt.Errorf("%w: trade fee is only charged by trade pools", ErrInvalidConfig)
	}
	return nil
}

func orZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return fixedpoint.Zero()
	}
	return v
}

func copyAddr(a *common.Address) *common.Address {
	if a == nil {
		return nil
	}
	out := *a
	return &out
}

func copyFilter(f filter.Filter) filter.Filter {
	return filter.Filter{Root: f.Root, Encoded: append([]byte(nil), f.Encoded...)}
}
