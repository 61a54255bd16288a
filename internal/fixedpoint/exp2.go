package fixedpoint

import (
	"math/big"

	"github.com/holiman/uint256"
)

// fracBits is the binary precision used for the fractional part of Exp2.
const fracBits = 64

// maxExp2Int bounds the integer part of an Exp2 argument; larger results do
// not fit once scaled by WAD.
const maxExp2Int = 190

// rootsOfTwo[j] holds 2^(2^-j) as a WAD value, j in [1, fracBits].
var rootsOfTwo = buildRootsOfTwo()

func buildRootsOfTwo() [fracBits + 1]*uint256.Int {
	var out [fracBits + 1]*uint256.Int
	scale := wad.ToBig()
	cur := new(big.Int).Mul(big.NewInt(2), scale)
	out[0], _ = uint256.FromBig(cur)
	for j := 1; j <= fracBits; j++ {
		cur = new(big.Int).Sqrt(new(big.Int).Mul(cur, scale))
		out[j], _ = uint256.FromBig(cur)
	}
	return out
}

// Exp2 returns 2^(x/WAD) as a WAD value, rounded down. The integer part of
// the exponent is applied as a shift and the fractional part as a product of
// precomputed binary roots of two.
func Exp2(x *uint256.Int) (*uint256.Int, error) {
	intPart := new(uint256.Int).Div(x, wad)
	if !intPart.IsUint64() || intPart.Uint64() > maxExp2Int {
		return nil, ErrOverflow
	}
	frac := new(uint256.Int).Mod(x, wad)

	two64 := new(uint256.Int).Lsh(uint256.NewInt(1), fracBits)
	bitsVal, err := MulDivDown(frac, two64, wad)
	if err != nil {
		return nil, err
	}
	bits := bitsVal.Uint64()

	result := One()
	for j := 1; j <= fracBits; j++ {
		if bits&(uint64(1)<<(fracBits-j)) == 0 {
			continue
		}
		if result, err = MulWadDown(result, rootsOfTwo[j]); err != nil {
			return nil, err
		}
	}

	shift := uint(intPart.Uint64())
	if result.BitLen()+int(shift) > 256 {
		return nil, ErrOverflow
	}
	return result.Lsh(result, shift), nil
}
