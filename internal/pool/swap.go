package pool

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"nftPool/internal/curve"
	"nftPool/internal/fees"
	"nftPool/internal/filter"
	"nftPool/internal/fixedpoint"
)

// SwapForItemsRequest buys items from the pool. Either name the IDs or give
// a Count, in which case the oldest held items are taken. A nil MaxInput
// places no bound on the price.
type SwapForItemsRequest struct {
	IDs       []*uint256.Int
	Count     uint64
	MaxInput  *uint256.Int
	Recipient common.Address
}

// SwapForAssetRequest sells items into the pool. Proof and Flags are the
// filter multiproof for IDs and are ignored when the pool has no filter.
// A single id may instead carry a plain Merkle path with no flags.
type SwapForAssetRequest struct {
	IDs       []*uint256.Int
	Proof     []common.Hash
	Flags     []bool
	MinOutput *uint256.Int
	Recipient common.Address
}

// Settlement is a committed swap, handed to the Settler before commit and
// to the Notifier after it.
type Settlement struct {
	Quote
	Pool      common.Address
	Mode      fees.Mode
	Recipient common.Address
	Executed  time.Time
}

// SwapForItems prices and executes a buy. Nothing changes unless every check
// and the settlement succeed.
func (p *Pool) SwapForItems(ctx context.Context, req SwapForItemsRequest) (Settlement, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ids := req.IDs
	n := uint64(len(ids))
	if n == 0 {
		n = req.Count
		if n <= uint64(p.inventory.len()) {
			ids = p.inventory.first(int(n))
		}
	} else if req.Count != 0 && req.Count != n {
		return Settlement{}, fmt.Errorf("%w: count %d does not match %d ids", ErrInvalidSwapQuantity, req.Count, n)
	}

	q, err := p.quoteLocked(ctx, curve.Buy, n, ids)
	if err != nil {
		return p.reject(q, err)
	}
	if req.MaxInput != nil && q.Amount.Gt(req.MaxInput) {
		return p.reject(q, fmt.Errorf("%w: input %s above max %s", ErrSlippageExceeded, q.Amount.Dec(), req.MaxInput.Dec()))
	}

	inflow, err := fixedpoint.Add(q.Principal, q.TradeFee)
	if err == nil {
		inflow, err = fixedpoint.Add(inflow, q.PoolRoyalties())
	}
	if err == nil {
		inflow, err = fixedpoint.Add(p.reserve, inflow)
	}
	if err != nil {
		return p.reject(q, classify(err))
	}

	s := p.settlement(q, req.Recipient)
	if err := p.settle(ctx, s); err != nil {
		return p.reject(q, err)
	}

	p.state = q.NewState.Clone()
	p.inventory.take(ids)
	p.reserve = inflow
	p.committed(ctx, s)
	return s, nil
}

// SwapForAsset prices and executes a sell. On a filtered pool the ids are
// verified against the root before anything is committed.
func (p *Pool) SwapForAsset(ctx context.Context, req SwapForAssetRequest) (Settlement, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	q, err := p.quoteLocked(ctx, curve.Sell, uint64(len(req.IDs)), req.IDs)
	if err != nil {
		return p.reject(q, err)
	}
	if p.filter.Enabled() && !accepts(p.filter, req) {
		return p.reject(q, fmt.Errorf("%w: proof does not match root %s", ErrNFTsNotAccepted, p.filter.Root.Hex()))
	}
	if req.MinOutput != nil && q.Amount.Lt(req.MinOutput) {
		return p.reject(q, fmt.Errorf("%w: output %s below min %s", ErrSlippageExceeded, q.Amount.Dec(), req.MinOutput.Dec()))
	}

	// Trade fees and pool-directed royalties never leave the reserve.
	outflow, err := fixedpoint.Sub(q.RawTotal, q.TradeFee)
	if err == nil {
		outflow, err = fixedpoint.Sub(outflow, q.PoolRoyalties())
	}
	if err != nil {
		return p.reject(q, classify(err))
	}
	if outflow.Gt(p.reserve) {
		return p.reject(q, fmt.Errorf("%w: pays out %s, reserve %s", ErrInsufficientLiquidity, outflow.Dec(), p.reserve.Dec()))
	}

	s := p.settlement(q, req.Recipient)
	if err := p.settle(ctx, s); err != nil {
		return p.reject(q, err)
	}

	p.state = q.NewState.Clone()
	p.inventory.put(req.IDs)
	p.reserve = new(uint256.Int).Sub(p.reserve, outflow)
	p.committed(ctx, s)
	return s, nil
}

func accepts(f filter.Filter, req SwapForAssetRequest) bool {
	if len(req.IDs) == 1 && len(req.Flags) == 0 {
		return filter.AcceptsSingle(req.IDs[0], req.Proof, f.Root)
	}
	return filter.AcceptsBatch(filter.SortForProof(req.IDs), req.Proof, req.Flags, f.Root)
}

func (p *Pool) settlement(q Quote, recipient common.Address) Settlement {
	return Settlement{Quote: q, Pool: p.address, Mode: p.mode, Recipient: recipient, Executed: time.Now().UTC()}
}

func (p *Pool) settle(ctx context.Context, s Settlement) error {
	if p.settler == nil {
		return nil
	}
	if err := p.settler.Settle(ctx, s); err != nil {
		return fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}
	return nil
}

func (p *Pool) reject(q Quote, err error) (Settlement, error) {
	q.Err = CodeOf(err)
	p.logger.Debug("swap rejected", zap.Stringer("direction", q.Direction), zap.Stringer("code", q.Err), zap.Error(err))
	return Settlement{Quote: q, Pool: p.address, Mode: p.mode}, err
}

func (p *Pool) committed(ctx context.Context, s Settlement) {
	p.logger.Info("swap committed",
		zap.Stringer("direction", s.Direction),
		zap.Int("items", len(s.UnitPrices)),
		zap.String("amount", s.Amount.Dec()),
		zap.String("spot", s.NewState.SpotPrice.Dec()),
		zap.String("reserve", p.reserve.Dec()),
	)
	if p.notifier == nil {
		return
	}
	if err := p.notifier.Notify(ctx, s); err != nil {
		p.logger.Warn("notify settlement failed", zap.Error(err))
	}
}
