package dexmath

import (
	"errors"
	"math/big"
)

// Q96 is the Q64.96 fixed-point unit.
var Q96 = new(big.Int).Lsh(big.NewInt(1), 96)

const q96Resolution = 96

// maxWidth is the representable width of on-chain intermediates. Results
// wider than this would not fit a uint256 and must fail the same way the
// contract does.
const maxWidth = 256

var (
	ErrOverflow        = errors.New("arithmetic overflow")
	ErrDivisionByZero  = errors.New("division by zero")
	ErrLiquidityZero   = errors.New("liquidity must be greater than zero")
	ErrSqrtPriceZero   = errors.New("sqrt price must be greater than zero")
	ErrPriceUnderflow  = errors.New("sqrt price underflow")
	ErrTickOutOfRange  = errors.New("tick out of range")
	ErrPriceOutOfRange = errors.New("sqrt price out of range")
)

var one = big.NewInt(1)

// MulDiv returns floor(a*b/denominator), or the ceiling when roundUp is
// set. It fails with ErrOverflow when the result does not fit 256 bits.
func MulDiv(a, b, denominator *big.Int, roundUp bool) (*big.Int, error) {
	if denominator.Sign() == 0 {
		return nil, ErrDivisionByZero
	}
	product := new(big.Int).Mul(a, b)
	result, rem := new(big.Int).QuoRem(product, denominator, new(big.Int))
	if roundUp && rem.Sign() != 0 {
		result.Add(result, one)
	}
	if result.BitLen() > maxWidth {
		return nil, ErrOverflow
	}
	return result, nil
}

// divRoundingUp returns ceil(a/b).
func divRoundingUp(a, b *big.Int) *big.Int {
	result, rem := new(big.Int).QuoRem(a, b, new(big.Int))
	if rem.Sign() != 0 {
		result.Add(result, one)
	}
	return result
}
