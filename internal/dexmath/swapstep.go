package dexmath

import "math/big"

// SwapStep is the outcome of swapping within a single price range. Created
// per tick segment during simulation and discarded with the result.
type SwapStep struct {
	SqrtPriceStartX96 *big.Int
	SqrtPriceNextX96  *big.Int
	Liquidity         *big.Int
	AmountIn          *big.Int
	AmountOut         *big.Int
	FeeAmount         *big.Int
}

// feeDenominator is the pip unit of fee tiers: 1e6 pips per whole.
var feeDenominator = big.NewInt(1_000_000)

// ComputeSwapStep advances the price from sqrtPriceCurrent toward
// sqrtPriceTarget given the available liquidity and the amount remaining.
// A non-negative amountRemaining is an exact-input swap (fee deducted from
// the input before the liquidity math); a negative one is exact-output.
// Rounding always favors the pool: amounts in and fees round up, amounts
// out round down.
func ComputeSwapStep(sqrtPriceCurrentX96, sqrtPriceTargetX96, liquidity, amountRemaining *big.Int, feePips uint32) (SwapStep, error) {
	step := SwapStep{
		SqrtPriceStartX96: new(big.Int).Set(sqrtPriceCurrentX96),
		Liquidity:         new(big.Int).Set(liquidity),
		AmountIn:          new(big.Int),
		AmountOut:         new(big.Int),
		FeeAmount:         new(big.Int),
	}

	zeroForOne := sqrtPriceCurrentX96.Cmp(sqrtPriceTargetX96) >= 0
	exactIn := amountRemaining.Sign() >= 0
	feeFactor := new(big.Int).Sub(feeDenominator, big.NewInt(int64(feePips)))

	var err error
	if exactIn {
		amountRemainingLessFee, mdErr := MulDiv(amountRemaining, feeFactor, feeDenominator, false)
		if mdErr != nil {
			return SwapStep{}, mdErr
		}

		var amountIn *big.Int
		if zeroForOne {
			amountIn, err = GetAmount0Delta(sqrtPriceTargetX96, sqrtPriceCurrentX96, liquidity, true)
		} else {
			amountIn, err = GetAmount1Delta(sqrtPriceCurrentX96, sqrtPriceTargetX96, liquidity, true)
		}
		if err != nil {
			return SwapStep{}, err
		}

		if amountRemainingLessFee.Cmp(amountIn) >= 0 {
			step.SqrtPriceNextX96 = new(big.Int).Set(sqrtPriceTargetX96)
			step.AmountIn = amountIn
		} else {
			step.SqrtPriceNextX96, err = GetNextSqrtPriceFromInput(sqrtPriceCurrentX96, liquidity, amountRemainingLessFee, zeroForOne)
			if err != nil {
				return SwapStep{}, err
			}
			step.AmountIn = amountRemainingLessFee
		}
	} else {
		var amountOut *big.Int
		if zeroForOne {
			amountOut, err = GetAmount1Delta(sqrtPriceTargetX96, sqrtPriceCurrentX96, liquidity, false)
		} else {
			amountOut, err = GetAmount0Delta(sqrtPriceCurrentX96, sqrtPriceTargetX96, liquidity, false)
		}
		if err != nil {
			return SwapStep{}, err
		}

		amountRemainingAbs := new(big.Int).Neg(amountRemaining)
		if amountRemainingAbs.Cmp(amountOut) >= 0 {
			step.SqrtPriceNextX96 = new(big.Int).Set(sqrtPriceTargetX96)
			step.AmountOut = amountOut
		} else {
			step.SqrtPriceNextX96, err = GetNextSqrtPriceFromOutput(sqrtPriceCurrentX96, liquidity, amountRemainingAbs, zeroForOne)
			if err != nil {
				return SwapStep{}, err
			}
			step.AmountOut = amountRemainingAbs
		}
	}

	reachedTarget := step.SqrtPriceNextX96.Cmp(sqrtPriceTargetX96) == 0

	if zeroForOne {
		if !(reachedTarget && exactIn) {
			step.AmountIn, err = GetAmount0Delta(step.SqrtPriceNextX96, sqrtPriceCurrentX96, liquidity, true)
			if err != nil {
				return SwapStep{}, err
			}
		}
		if !(reachedTarget && !exactIn) {
			step.AmountOut, err = GetAmount1Delta(step.SqrtPriceNextX96, sqrtPriceCurrentX96, liquidity, false)
			if err != nil {
				return SwapStep{}, err
			}
		}
	} else {
		if !(reachedTarget && exactIn) {
			step.AmountIn, err = GetAmount1Delta(sqrtPriceCurrentX96, step.SqrtPriceNextX96, liquidity, true)
			if err != nil {
				return SwapStep{}, err
			}
		}
		if !(reachedTarget && !exactIn) {
			step.AmountOut, err = GetAmount0Delta(sqrtPriceCurrentX96, step.SqrtPriceNextX96, liquidity, false)
			if err != nil {
				return SwapStep{}, err
			}
		}
	}

	// Exact-output never pays out more than requested even if rounding
	// produced an extra wei.
	if !exactIn {
		amountRemainingAbs := new(big.Int).Neg(amountRemaining)
		if step.AmountOut.Cmp(amountRemainingAbs) > 0 {
			step.AmountOut = amountRemainingAbs
		}
	}

	if exactIn && !reachedTarget {
		// The entire remainder is consumed; whatever the liquidity math did
		// not use is the fee.
		step.FeeAmount = new(big.Int).Sub(amountRemaining, step.AmountIn)
	} else {
		step.FeeAmount, err = MulDiv(step.AmountIn, big.NewInt(int64(feePips)), feeFactor, true)
		if err != nil {
			return SwapStep{}, err
		}
	}

	return step, nil
}
