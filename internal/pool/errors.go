package pool

import (
	"errors"
	"fmt"

	"nftPool/internal/curve"
	"nftPool/internal/fees"
	"nftPool/internal/filter"
	"nftPool/internal/fixedpoint"
	"nftPool/internal/royalty"
)

var (
	ErrWrongPoolMode         = errors.New("wrong pool mode")
	ErrInvalidSwapQuantity   = errors.New("invalid swap quantity")
	ErrSlippageExceeded      = errors.New("slippage exceeded")
	ErrNFTsNotAccepted       = errors.New("nfts not accepted")
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	ErrOverflow              = errors.New("overflow")
	ErrTransferFailed        = errors.New("transfer failed")
	ErrPoolDestroyed         = errors.New("pool destroyed")
	ErrUnauthorized          = errors.New("caller is not the pool owner")
	ErrInvalidConfig         = errors.New("invalid pool config")
)

// ErrorCode is the machine-readable outcome carried by a Quote.
type ErrorCode uint8

const (
	CodeOK ErrorCode = iota
	CodeWrongPoolMode
	CodeInvalidSwapQuantity
	CodeSlippageExceeded
	CodeNFTsNotAccepted
	CodeInsufficientLiquidity
	CodeOverflow
	CodeTransferFailed
	CodePoolDestroyed
	CodeUnauthorized
	CodeInvalidConfig
	CodeUnknown
)

var codeNames = map[ErrorCode]string{
	CodeOK:                    "ok",
	CodeWrongPoolMode:         "wrong_pool_mode",
	CodeInvalidSwapQuantity:   "invalid_swap_quantity",
	CodeSlippageExceeded:      "slippage_exceeded",
	CodeNFTsNotAccepted:       "nfts_not_accepted",
	CodeInsufficientLiquidity: "insufficient_liquidity",
	CodeOverflow:              "overflow",
	CodeTransferFailed:        "transfer_failed",
	CodePoolDestroyed:         "pool_destroyed",
	CodeUnauthorized:          "unauthorized",
	CodeInvalidConfig:         "invalid_config",
	CodeUnknown:               "unknown",
}

func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("code(%d)", uint8(c))
}

var codeErrors = []struct {
	err  error
	code ErrorCode
}{
	{ErrWrongPoolMode, CodeWrongPoolMode},
	{ErrInvalidSwapQuantity, CodeInvalidSwapQuantity},
	{ErrSlippageExceeded, CodeSlippageExceeded},
	{ErrNFTsNotAccepted, CodeNFTsNotAccepted},
	{ErrInsufficientLiquidity, CodeInsufficientLiquidity},
	{ErrOverflow, CodeOverflow},
	{ErrTransferFailed, CodeTransferFailed},
	{ErrPoolDestroyed, CodePoolDestroyed},
	{ErrUnauthorized, CodeUnauthorized},
	{ErrInvalidConfig, CodeInvalidConfig},
}

// CodeOf classifies err.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return CodeOK
	}
	for _, entry := range codeErrors {
		if errors.Is(err, entry.err) {
			return entry.code
		}
	}
	return CodeUnknown
}

// classify folds errors from the pricing packages into the pool taxonomy.
func classify(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case CodeOf(err) != CodeUnknown:
		return err
	case errors.Is(err, curve.ErrInsufficientLiquidity):
		return fmt.Errorf("%w: %w", ErrInsufficientLiquidity, err)
	case errors.Is(err, curve.ErrOverflow),
		errors.Is(err, fixedpoint.ErrOverflow),
		errors.Is(err, fixedpoint.ErrUnderflow),
		errors.Is(err, fixedpoint.ErrDivideByZero):
		return fmt.Errorf("%w: %w", ErrOverflow, err)
	case errors.Is(err, curve.ErrInvalidState),
		errors.Is(err, curve.ErrUnknownKind),
		errors.Is(err, fees.ErrInvalidRate),
		errors.Is(err, royalty.ErrInvalidNumerator),
		errors.Is(err, filter.ErrEmptySet):
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	default:
		return err
	}
}
