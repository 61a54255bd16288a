// Package fixedpoint implements overflow-checked WAD (10^18) arithmetic on
// 256-bit unsigned integers.
package fixedpoint

import (
	"errors"

	"github.com/holiman/uint256"
)

// Decimals is the number of fractional digits carried by a WAD value.
const Decimals = 18

var (
	ErrOverflow     = errors.New("fixed point overflow")
	ErrUnderflow    = errors.New("fixed point underflow")
	ErrDivideByZero = errors.New("fixed point division by zero")
)

var wad = uint256.NewInt(1_000_000_000_000_000_000)

// One returns 1.0 as a WAD value.
func One() *uint256.Int {
	return new(uint256.Int).Set(wad)
}

// FromUint64 returns n whole units as a WAD value.
func FromUint64(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), wad)
}

// Zero returns a fresh zero value.
func Zero() *uint256.Int {
	return new(uint256.Int)
}

func Add(x, y *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).AddOverflow(x, y)
	if overflow {
		return nil, ErrOverflow
	}
	return z, nil
}

func Sub(x, y *uint256.Int) (*uint256.Int, error) {
	z, underflow := new(uint256.Int).SubOverflow(x, y)
	if underflow {
		return nil, ErrUnderflow
	}
	return z, nil
}

// Mul multiplies two plain integers.
func Mul(x, y *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).MulOverflow(x, y)
	if overflow {
		return nil, ErrOverflow
	}
	return z, nil
}

// MulDivDown returns floor(x*y/d) using a 512-bit intermediate product.
func MulDivDown(x, y, d *uint256.Int) (*uint256.Int, error) {
	if d.IsZero() {
		return nil, ErrDivideByZero
	}
	z, overflow := new(uint256.Int).MulDivOverflow(x, y, d)
	if overflow {
		return nil, ErrOverflow
	}
	return z, nil
}

// MulDivUp returns ceil(x*y/d).
func MulDivUp(x, y, d *uint256.Int) (*uint256.Int, error) {
	z, err := MulDivDown(x, y, d)
	if err != nil {
		return nil, err
	}
	if new(uint256.Int).MulMod(x, y, d).IsZero() {
		return z, nil
	}
	return Add(z, uint256.NewInt(1))
}

func MulWadDown(x, y *uint256.Int) (*uint256.Int, error) {
	return MulDivDown(x, y, wad)
}

func MulWadUp(x, y *uint256.Int) (*uint256.Int, error) {
	return MulDivUp(x, y, wad)
}

func DivWadDown(x, y *uint256.Int) (*uint256.Int, error) {
	return MulDivDown(x, wad, y)
}

func DivWadUp(x, y *uint256.Int) (*uint256.Int, error) {
	return MulDivUp(x, wad, y)
}

// Pow raises the WAD value x to the integer power n, rounding every
// intermediate product down.
func Pow(x *uint256.Int, n uint64) (*uint256.Int, error) {
	result := One()
	base := new(uint256.Int).Set(x)
	var err error
	for n > 0 {
		if n&1 == 1 {
			if result, err = MulWadDown(result, base); err != nil {
				return nil, err
			}
		}
		n >>= 1
		if n == 0 {
			break
		}
		if base, err = MulWadDown(base, base); err != nil {
			return nil, err
		}
	}
	return result, nil
}
