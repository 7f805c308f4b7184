// Package sim runs swap simulations against immutable pool snapshots. It
// performs no I/O; everything here is deterministic integer math.
package sim

import (
	"errors"
	"fmt"
	"math/big"

	"quoteScope/internal/dexmath"
	"quoteScope/internal/model"
)

var (
	ErrZeroAmount    = errors.New("swap amount must be non-zero")
	ErrPoolStateNil  = errors.New("pool state is nil")
	ErrBadPoolPrice  = errors.New("pool sqrt price outside protocol bounds")
	ErrBadPoolFields = errors.New("pool snapshot missing liquidity or price")
)

// Result aggregates a full simulation. AmountIn includes fees; Amount0 and
// Amount1 are signed pool deltas in pool token order (positive flows into
// the pool).
type Result struct {
	AmountIn  *big.Int
	AmountOut *big.Int
	FeePaid   *big.Int

	Amount0 *big.Int
	Amount1 *big.Int

	SqrtPriceAfterX96 *big.Int
	TickAfter         int32

	Steps []dexmath.SwapStep

	// AmountRemaining is the unconsumed part of the request when the price
	// hit a global bound first. Non-zero means InsufficientLiquidity.
	AmountRemaining       *big.Int
	InsufficientLiquidity bool
}

// Swap simulates a swap against the snapshot. A positive amountSpecified is
// an exact-input swap of the input token; a negative one requests that much
// of the output token (exact output). zeroForOne is the trade direction in
// pool token order.
//
// The loop walks initialized ticks in the trade direction, one SwapStep per
// price range, crossing each tick by applying its net liquidity. It
// terminates when the amount is consumed or the price reaches the protocol
// bound; the tick set is finite so the walk always ends.
func Swap(pool *model.PoolState, amountSpecified *big.Int, zeroForOne bool) (*Result, error) {
	if pool == nil {
		return nil, ErrPoolStateNil
	}
	if pool.SqrtPriceX96 == nil || pool.Liquidity == nil {
		return nil, ErrBadPoolFields
	}
	if amountSpecified == nil || amountSpecified.Sign() == 0 {
		return nil, ErrZeroAmount
	}
	if pool.SqrtPriceX96.Cmp(dexmath.MinSqrtPriceX96) < 0 || pool.SqrtPriceX96.Cmp(dexmath.MaxSqrtPriceX96) > 0 {
		return nil, ErrBadPoolPrice
	}

	exactInput := amountSpecified.Sign() > 0

	var sqrtPriceLimit *big.Int
	if zeroForOne {
		sqrtPriceLimit = new(big.Int).Add(dexmath.MinSqrtPriceX96, big.NewInt(1))
	} else {
		sqrtPriceLimit = new(big.Int).Sub(dexmath.MaxSqrtPriceX96, big.NewInt(1))
	}

	remaining := new(big.Int).Set(amountSpecified)
	sqrtPrice := new(big.Int).Set(pool.SqrtPriceX96)
	liquidity := new(big.Int).Set(pool.Liquidity)
	tick := pool.TickCurrent

	result := &Result{
		AmountIn:  new(big.Int),
		AmountOut: new(big.Int),
		FeePaid:   new(big.Int),
	}

	for remaining.Sign() != 0 && sqrtPrice.Cmp(sqrtPriceLimit) != 0 {
		tickNext, initialized := pool.NextInitializedTick(tick, zeroForOne)
		if !initialized {
			if zeroForOne {
				tickNext = dexmath.MinTick
			} else {
				tickNext = dexmath.MaxTick
			}
		}
		if tickNext < dexmath.MinTick {
			tickNext = dexmath.MinTick
		} else if tickNext > dexmath.MaxTick {
			tickNext = dexmath.MaxTick
		}

		sqrtPriceNext, err := dexmath.SqrtPriceAtTick(tickNext)
		if err != nil {
			return nil, fmt.Errorf("tick %d: %w", tickNext, err)
		}

		target := sqrtPriceNext
		if zeroForOne {
			if sqrtPriceNext.Cmp(sqrtPriceLimit) < 0 {
				target = sqrtPriceLimit
			}
		} else {
			if sqrtPriceNext.Cmp(sqrtPriceLimit) > 0 {
				target = sqrtPriceLimit
			}
		}

		step, err := dexmath.ComputeSwapStep(sqrtPrice, target, liquidity, remaining, uint32(pool.Fee))
		if err != nil {
			return nil, fmt.Errorf("swap step at tick %d: %w", tick, err)
		}

		sqrtPrice = step.SqrtPriceNextX96
		inWithFee := new(big.Int).Add(step.AmountIn, step.FeeAmount)
		if exactInput {
			remaining.Sub(remaining, inWithFee)
		} else {
			remaining.Add(remaining, step.AmountOut)
		}
		result.AmountIn.Add(result.AmountIn, inWithFee)
		result.AmountOut.Add(result.AmountOut, step.AmountOut)
		result.FeePaid.Add(result.FeePaid, step.FeeAmount)
		result.Steps = append(result.Steps, step)

		if sqrtPrice.Cmp(sqrtPriceNext) == 0 {
			if initialized {
				net := pool.LiquidityNet(tickNext)
				if zeroForOne {
					liquidity.Sub(liquidity, net)
				} else {
					liquidity.Add(liquidity, net)
				}
				if liquidity.Sign() < 0 {
					return nil, fmt.Errorf("crossing tick %d: negative liquidity", tickNext)
				}
			}
			if zeroForOne {
				tick = tickNext - 1
			} else {
				tick = tickNext
			}
		} else if sqrtPrice.Cmp(step.SqrtPriceStartX96) != 0 {
			tick, err = dexmath.TickAtSqrtPrice(sqrtPrice)
			if err != nil {
				return nil, fmt.Errorf("recompute tick: %w", err)
			}
		}
	}

	result.SqrtPriceAfterX96 = sqrtPrice
	result.TickAfter = tick
	result.AmountRemaining = new(big.Int).Abs(remaining)
	result.InsufficientLiquidity = remaining.Sign() != 0

	if zeroForOne {
		result.Amount0 = new(big.Int).Set(result.AmountIn)
		result.Amount1 = new(big.Int).Neg(result.AmountOut)
	} else {
		result.Amount0 = new(big.Int).Neg(result.AmountOut)
		result.Amount1 = new(big.Int).Set(result.AmountIn)
	}
	return result, nil
}
