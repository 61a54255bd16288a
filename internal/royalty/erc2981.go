package royalty

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"nftPool/internal/chain"
	"nftPool/internal/fixedpoint"
)

// ERC2981Config configures the on-chain recipient lookup.
type ERC2981Config struct {
	Collection   common.Address
	CacheSize    int
	Concurrency  int
	MaxRetries   int
	RetryBackoff time.Duration
}

// ERC2981Source resolves recipients by calling royaltyInfo on the collection.
// Collections without ERC-2981 support yield no recipient.
type ERC2981Source struct {
	cfg    ERC2981Config
	caller chain.Caller
	cache  *lru.Cache[uint256.Int, common.Address]
	logger *zap.Logger
}

func NewERC2981Source(cfg ERC2981Config, caller chain.Caller, logger *zap.Logger) (*ERC2981Source, error) {
	if caller == nil {
		return nil, fmt.Errorf("chain caller is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 4096
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	cache, err := lru.New[uint256.Int, common.Address](cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	return &ERC2981Source{cfg: cfg, caller: caller, cache: cache, logger: logger}, nil
}

func (s *ERC2981Source) Recipients(ctx context.Context, items []*uint256.Int) ([]*common.Address, error) {
	out := make([]*common.Address, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)

	for i, item := range items {
		i, item := i, item
		if addr, ok := s.cache.Get(*item); ok {
			out[i] = nonZero(addr)
			continue
		}
		g.Go(func() error {
			addr, err := s.lookup(gctx, item)
			if err != nil {
				return fmt.Errorf("royaltyInfo %s: %w", item.Dec(), err)
			}
			s.cache.Add(*item, addr)
			out[i] = nonZero(addr)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ERC2981Source) lookup(ctx context.Context, item *uint256.Int) (common.Address, error) {
	royaltyABI, err := ERC2981ABI()
	if err != nil {
		return common.Address{}, err
	}
	data, err := royaltyABI.Pack("royaltyInfo", item.ToBig(), fixedpoint.One().ToBig())
	if err != nil {
		return common.Address{}, fmt.Errorf("pack royaltyInfo: %w", err)
	}

	collection := s.cfg.Collection
	var resp []byte
	err = chain.WithRetry(ctx, s.cfg.MaxRetries, s.cfg.RetryBackoff, func(ctx context.Context) error {
		var callErr error
		resp, callErr = s.caller.CallContract(ctx, ethereum.CallMsg{To: &collection, Data: data}, nil)
		if callErr != nil && isRevert(callErr) {
			return fmt.Errorf("%w: %v", chain.ErrPermanent, callErr)
		}
		if callErr != nil {
			s.logger.Warn("royaltyInfo call failed", zap.Error(callErr), zap.String("item", item.Dec()))
		}
		return callErr
	})
	if err != nil {
		if isRevert(err) {
			s.logger.Debug("collection has no royaltyInfo", zap.String("collection", collection.Hex()))
			return common.Address{}, nil
		}
		return common.Address{}, err
	}
	if len(resp) == 0 {
		return common.Address{}, nil
	}

	values, err := royaltyABI.Unpack("royaltyInfo", resp)
	if err != nil {
		return common.Address{}, fmt.Errorf("unpack royaltyInfo: %w", err)
	}
	if len(values) != 2 {
		return common.Address{}, fmt.Errorf("royaltyInfo return size %d", len(values))
	}
	receiver, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("royaltyInfo unexpected type %T", values[0])
	}
	return receiver, nil
}

func isRevert(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "execution reverted")
}

func nonZero(addr common.Address) *common.Address {
	if addr == (common.Address{}) {
		return nil
	}
	return &addr
}
