package dexmath

import (
	"math/big"
	"testing"
)

func swapStepFixture(t *testing.T) (current, target, liquidity *big.Int) {
	t.Helper()
	target, err := SqrtPriceAtTick(-600)
	if err != nil {
		t.Fatalf("SqrtPriceAtTick(-600): %v", err)
	}
	return new(big.Int).Set(Q96), target, big.NewInt(1_000_000_000)
}

func TestComputeSwapStepExactInReachesTarget(t *testing.T) {
	current, target, liquidity := swapStepFixture(t)

	huge := new(big.Int)
	huge.SetString("1000000000000000000000000", 10)

	step, err := ComputeSwapStep(current, target, liquidity, huge, 3000)
	if err != nil {
		t.Fatalf("ComputeSwapStep: %v", err)
	}
	if step.SqrtPriceNextX96.Cmp(target) != 0 {
		t.Fatalf("price stopped at %s, want target %s", step.SqrtPriceNextX96, target)
	}

	wantIn, err := GetAmount0Delta(target, current, liquidity, true)
	if err != nil {
		t.Fatalf("GetAmount0Delta: %v", err)
	}
	if step.AmountIn.Cmp(wantIn) != 0 {
		t.Fatalf("amount in = %s, want %s", step.AmountIn, wantIn)
	}
	wantOut, err := GetAmount1Delta(target, current, liquidity, false)
	if err != nil {
		t.Fatalf("GetAmount1Delta: %v", err)
	}
	if step.AmountOut.Cmp(wantOut) != 0 {
		t.Fatalf("amount out = %s, want %s", step.AmountOut, wantOut)
	}

	wantFee, err := MulDiv(step.AmountIn, big.NewInt(3000), big.NewInt(997_000), true)
	if err != nil {
		t.Fatalf("MulDiv: %v", err)
	}
	if step.FeeAmount.Cmp(wantFee) != 0 {
		t.Fatalf("fee = %s, want %s", step.FeeAmount, wantFee)
	}
}

func TestComputeSwapStepExactInPartialConsumesEverything(t *testing.T) {
	current, target, liquidity := swapStepFixture(t)
	remaining := big.NewInt(1_000_000)

	step, err := ComputeSwapStep(current, target, liquidity, remaining, 3000)
	if err != nil {
		t.Fatalf("ComputeSwapStep: %v", err)
	}
	if step.SqrtPriceNextX96.Cmp(target) <= 0 || step.SqrtPriceNextX96.Cmp(current) >= 0 {
		t.Fatalf("next price %s not strictly between target and current", step.SqrtPriceNextX96)
	}

	// A partial step eats the whole remainder: what the liquidity math did
	// not consume becomes fee.
	sum := new(big.Int).Add(step.AmountIn, step.FeeAmount)
	if sum.Cmp(remaining) != 0 {
		t.Fatalf("amount in + fee = %s, want %s", sum, remaining)
	}
	if step.FeeAmount.Sign() <= 0 {
		t.Fatalf("fee = %s, want positive", step.FeeAmount)
	}
	if step.AmountOut.Sign() <= 0 {
		t.Fatalf("amount out = %s, want positive", step.AmountOut)
	}
}

func TestComputeSwapStepExactOutPartial(t *testing.T) {
	current, target, liquidity := swapStepFixture(t)

	step, err := ComputeSwapStep(current, target, liquidity, big.NewInt(-1000), 3000)
	if err != nil {
		t.Fatalf("ComputeSwapStep: %v", err)
	}
	if step.AmountOut.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("amount out = %s, want exactly 1000", step.AmountOut)
	}
	if step.SqrtPriceNextX96.Cmp(target) <= 0 {
		t.Fatalf("price %s overshot the target for a small request", step.SqrtPriceNextX96)
	}
	if step.AmountIn.Sign() <= 0 || step.FeeAmount.Sign() <= 0 {
		t.Fatalf("amount in %s / fee %s, want both positive", step.AmountIn, step.FeeAmount)
	}
}

func TestComputeSwapStepExactOutCapsAtRangeOutput(t *testing.T) {
	current, target, liquidity := swapStepFixture(t)

	huge := new(big.Int)
	huge.SetString("-1000000000000000000000000", 10)

	step, err := ComputeSwapStep(current, target, liquidity, huge, 3000)
	if err != nil {
		t.Fatalf("ComputeSwapStep: %v", err)
	}
	if step.SqrtPriceNextX96.Cmp(target) != 0 {
		t.Fatalf("price stopped at %s, want target %s", step.SqrtPriceNextX96, target)
	}
	wantOut, err := GetAmount1Delta(target, current, liquidity, false)
	if err != nil {
		t.Fatalf("GetAmount1Delta: %v", err)
	}
	if step.AmountOut.Cmp(wantOut) != 0 {
		t.Fatalf("amount out = %s, want range capacity %s", step.AmountOut, wantOut)
	}
}

func TestComputeSwapStepZeroFee(t *testing.T) {
	current, target, liquidity := swapStepFixture(t)

	huge := new(big.Int)
	huge.SetString("1000000000000000000000000", 10)

	step, err := ComputeSwapStep(current, target, liquidity, huge, 0)
	if err != nil {
		t.Fatalf("ComputeSwapStep: %v", err)
	}
	if step.FeeAmount.Sign() != 0 {
		t.Fatalf("fee = %s, want 0 at zero fee", step.FeeAmount)
	}
}
