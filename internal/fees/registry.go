package fees

import (
	"fmt"
	"sync"

	"github.com/holiman/uint256"

	"nftPool/internal/fixedpoint"
)

// ProtocolRates are the factory-wide rates shared by every pool.
type ProtocolRates struct {
	ProtocolFee *uint256.Int
	CarryFee    *uint256.Int
}

// Source yields the shared protocol rates for one pool call.
type Source interface {
	Snapshot() ProtocolRates
}

// Registry holds the shared protocol rates. Pools read it through Snapshot,
// which hands out a private copy.
type Registry struct {
	mu    sync.RWMutex
	rates ProtocolRates
}

func NewRegistry(protocolFee, carryFee *uint256.Int) (*Registry, error) {
	r := &Registry{}
	if err := r.Set(protocolFee, carryFee); err != nil {
		return nil, err
	}
	return r, nil
}

// Set replaces both rates. Each must be below 1.0.
func (r *Registry) Set(protocolFee, carryFee *uint256.Int) error {
	one := fixedpoint.One()
	if protocolFee == nil || !protocolFee.Lt(one) {
		return fmt.Errorf("%w: protocol fee must be below 1.0", ErrInvalidRate)
	}
	if carryFee == nil || carryFee.Gt(one) {
		return fmt.Errorf("%w: carry fee must not exceed 1.0", ErrInvalidRate)
	}

	r.mu.Lock()
	r.rates = ProtocolRates{
		ProtocolFee: new(uint256.Int).Set(protocolFee),
		CarryFee:    new(uint256.Int).Set(carryFee),
	}
	r.mu.Unlock()
	return nil
}

func (r *Registry) Snapshot() ProtocolRates {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return ProtocolRates{
		ProtocolFee: new(uint256.Int).Set(r.rates.ProtocolFee),
		CarryFee:    new(uint256.Int).Set(r.rates.CarryFee),
	}
}
