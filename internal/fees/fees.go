// Package fees splits a raw trade total between the pool, the pool operator
// and the protocol.
package fees

import (
	"errors"
	"fmt"
	"strings"

	"github.com/holiman/uint256"

	"nftPool/internal/fixedpoint"
)

var ErrInvalidRate = errors.New("fees: invalid rate")

// Mode is the trading mode of a pool.
type Mode uint8

const (
	// ModeToken pools only buy items from counterparties.
	ModeToken Mode = iota + 1
	// ModeNFT pools only sell items to counterparties.
	ModeNFT
	// ModeTrade pools do both and charge a trade fee.
	ModeTrade
)

func (m Mode) String() string {
	switch m {
	case ModeToken:
		return "token"
	case ModeNFT:
		return "nft"
	case ModeTrade:
		return "trade"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// ParseMode maps a mode name to its Mode.
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "token":
		return ModeToken, nil
	case "nft":
		return ModeNFT, nil
	case "trade":
		return ModeTrade, nil
	default:
		return 0, fmt.Errorf("unknown pool mode %q", name)
	}
}

// Rates are the WAD fee rates applied to one trade. TradeFee is pool-local;
// ProtocolFee and CarryFee come from a Registry snapshot.
type Rates struct {
	TradeFee    *uint256.Int
	ProtocolFee *uint256.Int
	CarryFee    *uint256.Int
}

// Breakdown is the split of a raw total. Principal + TradeFee + ProtocolFee
// always equals the raw total.
type Breakdown struct {
	Principal   *uint256.Int
	TradeFee    *uint256.Int
	ProtocolFee *uint256.Int
}

// ValidateTradeFee checks 0 <= rate < 1.
func ValidateTradeFee(rate *uint256.Int) error {
	if rate == nil || !rate.Lt(fixedpoint.One()) {
		return fmt.Errorf("%w: trade fee must be below 1.0", ErrInvalidRate)
	}
	return nil
}

// Split divides rawTotal according to mode. Fee components round down and
// the remainder stays in Principal.
//
// Token and NFT pools pay the protocol fee straight off the raw total. Trade
// pools charge the trade fee first and the protocol takes CarryFee of it.
func Split(rawTotal *uint256.Int, mode Mode, rates Rates) (Breakdown, error) {
	tradeFee := fixedpoint.Zero()
	protocolFee := fixedpoint.Zero()
	var err error

	switch mode {
	case ModeToken, ModeNFT:
		if protocolFee, err = fixedpoint.MulWadDown(rawTotal, orZero(rates.ProtocolFee)); err != nil {
			return Breakdown{}, err
		}
	case ModeTrade:
		gross, err := fixedpoint.MulWadDown(rawTotal, orZero(rates.TradeFee))
		if err != nil {
			return Breakdown{}, err
		}
		if protocolFee, err = fixedpoint.MulWadDown(gross, orZero(rates.CarryFee)); err != nil {
			return Breakdown{}, err
		}
		if tradeFee, err = fixedpoint.Sub(gross, protocolFee); err != nil {
			return Breakdown{}, err
		}
	default:
		return Breakdown{}, fmt.Errorf("fees: unknown mode %d", uint8(mode))
	}

	fees := new(uint256.Int).Add(tradeFee, protocolFee)
	principal, err := fixedpoint.Sub(rawTotal, fees)
	if err != nil {
		return Breakdown{}, fmt.Errorf("%w: fees exceed raw total", ErrInvalidRate)
	}

	return Breakdown{Principal: principal, TradeFee: tradeFee, ProtocolFee: protocolFee}, nil
}

func orZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return fixedpoint.Zero()
	}
	return v
}
