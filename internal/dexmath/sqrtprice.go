package dexmath

import "math/big"

// GetAmount0Delta returns the token0 amount covered between two sqrt prices
// at the given liquidity: liquidity * (sqrtB - sqrtA) / (sqrtA * sqrtB).
// Rounds up when the amount is owed to the pool, down when owed to the
// trader.
func GetAmount0Delta(sqrtRatioAX96, sqrtRatioBX96, liquidity *big.Int, roundUp bool) (*big.Int, error) {
	if sqrtRatioAX96.Cmp(sqrtRatioBX96) > 0 {
		sqrtRatioAX96, sqrtRatioBX96 = sqrtRatioBX96, sqrtRatioAX96
	}
	if sqrtRatioAX96.Sign() <= 0 {
		return nil, ErrSqrtPriceZero
	}

	numerator1 := new(big.Int).Lsh(liquidity, q96Resolution)
	numerator2 := new(big.Int).Sub(sqrtRatioBX96, sqrtRatioAX96)

	if roundUp {
		term, err := MulDiv(numerator1, numerator2, sqrtRatioBX96, true)
		if err != nil {
			return nil, err
		}
		return divRoundingUp(term, sqrtRatioAX96), nil
	}
	term, err := MulDiv(numerator1, numerator2, sqrtRatioBX96, false)
	if err != nil {
		return nil, err
	}
	return term.Quo(term, sqrtRatioAX96), nil
}

// GetAmount1Delta returns the token1 amount covered between two sqrt
// prices: liquidity * (sqrtB - sqrtA) / Q96.
func GetAmount1Delta(sqrtRatioAX96, sqrtRatioBX96, liquidity *big.Int, roundUp bool) (*big.Int, error) {
	if sqrtRatioAX96.Cmp(sqrtRatioBX96) > 0 {
		sqrtRatioAX96, sqrtRatioBX96 = sqrtRatioBX96, sqrtRatioAX96
	}
	diff := new(big.Int).Sub(sqrtRatioBX96, sqrtRatioAX96)
	return MulDiv(liquidity, diff, Q96, roundUp)
}

// GetNextSqrtPriceFromInput returns the sqrt price after consuming amountIn
// of the input token at the given liquidity. Rounds so the trader never
// receives more than the exact math allows.
func GetNextSqrtPriceFromInput(sqrtPX96, liquidity, amountIn *big.Int, zeroForOne bool) (*big.Int, error) {
	if sqrtPX96.Sign() <= 0 {
		return nil, ErrSqrtPriceZero
	}
	if liquidity.Sign() <= 0 {
		return nil, ErrLiquidityZero
	}
	if zeroForOne {
		return getNextSqrtPriceFromAmount0RoundingUp(sqrtPX96, liquidity, amountIn, true)
	}
	return getNextSqrtPriceFromAmount1RoundingDown(sqrtPX96, liquidity, amountIn, true)
}

// GetNextSqrtPriceFromOutput returns the sqrt price after paying out
// amountOut of the output token at the given liquidity.
func GetNextSqrtPriceFromOutput(sqrtPX96, liquidity, amountOut *big.Int, zeroForOne bool) (*big.Int, error) {
	if sqrtPX96.Sign() <= 0 {
		return nil, ErrSqrtPriceZero
	}
	if liquidity.Sign() <= 0 {
		return nil, ErrLiquidityZero
	}
	if zeroForOne {
		return getNextSqrtPriceFromAmount1RoundingDown(sqrtPX96, liquidity, amountOut, false)
	}
	return getNextSqrtPriceFromAmount0RoundingUp(sqrtPX96, liquidity, amountOut, false)
}

func getNextSqrtPriceFromAmount0RoundingUp(sqrtPX96, liquidity, amount *big.Int, add bool) (*big.Int, error) {
	if amount.Sign() == 0 {
		return new(big.Int).Set(sqrtPX96), nil
	}

	numerator1 := new(big.Int).Lsh(liquidity, q96Resolution)
	product := new(big.Int).Mul(amount, sqrtPX96)

	if add {
		denominator := new(big.Int).Add(numerator1, product)
		if denominator.BitLen() <= maxWidth {
			return MulDiv(numerator1, sqrtPX96, denominator, true)
		}
		// Fall back to liquidity / (liquidity/sqrtP + amount) to stay in
		// range, still rounding up.
		denominator = new(big.Int).Quo(numerator1, sqrtPX96)
		denominator.Add(denominator, amount)
		return divRoundingUp(numerator1, denominator), nil
	}

	if numerator1.Cmp(product) <= 0 {
		return nil, ErrPriceUnderflow
	}
	denominator := new(big.Int).Sub(numerator1, product)
	return MulDiv(numerator1, sqrtPX96, denominator, true)
}

func getNextSqrtPriceFromAmount1RoundingDown(sqrtPX96, liquidity, amount *big.Int, add bool) (*big.Int, error) {
	if add {
		quotient, err := MulDiv(amount, Q96, liquidity, false)
		if err != nil {
			return nil, err
		}
		return new(big.Int).Add(sqrtPX96, quotient), nil
	}

	quotient, err := MulDiv(amount, Q96, liquidity, true)
	if err != nil {
		return nil, err
	}
	if sqrtPX96.Cmp(quotient) <= 0 {
		return nil, ErrPriceUnderflow
	}
	return new(big.Int).Sub(sqrtPX96, quotient), nil
}
