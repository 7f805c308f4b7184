package dexmath

import (
	"errors"
	"math/big"
	"testing"
)

func TestGetAmount1DeltaExact(t *testing.T) {
	twoQ96 := new(big.Int).Lsh(Q96, 1)
	got, err := GetAmount1Delta(Q96, twoQ96, big.NewInt(10), false)
	if err != nil {
		t.Fatalf("GetAmount1Delta: %v", err)
	}
	if got.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("amount1 = %s, want 10", got)
	}
}

func TestGetAmount1DeltaSwapsArguments(t *testing.T) {
	twoQ96 := new(big.Int).Lsh(Q96, 1)
	forward, err := GetAmount1Delta(Q96, twoQ96, big.NewInt(10), false)
	if err != nil {
		t.Fatalf("GetAmount1Delta: %v", err)
	}
	reversed, err := GetAmount1Delta(twoQ96, Q96, big.NewInt(10), false)
	if err != nil {
		t.Fatalf("GetAmount1Delta reversed: %v", err)
	}
	if forward.Cmp(reversed) != 0 {
		t.Fatalf("argument order changed the result: %s vs %s", forward, reversed)
	}
}

func TestGetAmount1DeltaRounding(t *testing.T) {
	upper := new(big.Int).Add(Q96, big.NewInt(1))
	down, err := GetAmount1Delta(Q96, upper, big.NewInt(3), false)
	if err != nil {
		t.Fatalf("GetAmount1Delta down: %v", err)
	}
	up, err := GetAmount1Delta(Q96, upper, big.NewInt(3), true)
	if err != nil {
		t.Fatalf("GetAmount1Delta up: %v", err)
	}
	if down.Sign() != 0 {
		t.Fatalf("floor of sub-unit amount = %s, want 0", down)
	}
	if up.Cmp(big.NewInt(1)) != 0 {
		t.Fatalf("ceil of sub-unit amount = %s, want 1", up)
	}
}

func TestGetAmount0DeltaExact(t *testing.T) {
	twoQ96 := new(big.Int).Lsh(Q96, 1)
	got, err := GetAmount0Delta(Q96, twoQ96, big.NewInt(10), false)
	if err != nil {
		t.Fatalf("GetAmount0Delta: %v", err)
	}
	// liquidity * (sqrtB - sqrtA) / (sqrtA * sqrtB) = 10 * 1/2 in token0.
	if got.Cmp(big.NewInt(5)) != 0 {
		t.Fatalf("amount0 = %s, want 5", got)
	}
}

func TestGetAmount0DeltaRoundUpNeverBelowFloor(t *testing.T) {
	lower, err := SqrtPriceAtTick(-600)
	if err != nil {
		t.Fatalf("SqrtPriceAtTick: %v", err)
	}
	liquidity := big.NewInt(1_000_000)
	down, err := GetAmount0Delta(lower, Q96, liquidity, false)
	if err != nil {
		t.Fatalf("GetAmount0Delta down: %v", err)
	}
	up, err := GetAmount0Delta(lower, Q96, liquidity, true)
	if err != nil {
		t.Fatalf("GetAmount0Delta up: %v", err)
	}
	if up.Cmp(down) < 0 {
		t.Fatalf("round up (%s) below floor (%s)", up, down)
	}
}

func TestGetAmount0DeltaZeroPrice(t *testing.T) {
	if _, err := GetAmount0Delta(new(big.Int), Q96, big.NewInt(1), false); !errors.Is(err, ErrSqrtPriceZero) {
		t.Fatalf("got %v, want ErrSqrtPriceZero", err)
	}
}

func TestGetNextSqrtPriceFromInputDirection(t *testing.T) {
	liquidity := big.NewInt(1_000_000)
	amount := big.NewInt(100)

	down, err := GetNextSqrtPriceFromInput(Q96, liquidity, amount, true)
	if err != nil {
		t.Fatalf("GetNextSqrtPriceFromInput zeroForOne: %v", err)
	}
	if down.Cmp(Q96) >= 0 {
		t.Fatalf("selling token0 must lower the price, got %s", down)
	}

	up, err := GetNextSqrtPriceFromInput(Q96, liquidity, amount, false)
	if err != nil {
		t.Fatalf("GetNextSqrtPriceFromInput oneForZero: %v", err)
	}
	if up.Cmp(Q96) <= 0 {
		t.Fatalf("selling token1 must raise the price, got %s", up)
	}
}

func TestGetNextSqrtPriceFromInputZeroAmount(t *testing.T) {
	got, err := GetNextSqrtPriceFromInput(Q96, big.NewInt(1_000_000), new(big.Int), true)
	if err != nil {
		t.Fatalf("GetNextSqrtPriceFromInput: %v", err)
	}
	if got.Cmp(Q96) != 0 {
		t.Fatalf("zero input moved the price to %s", got)
	}
}

func TestGetNextSqrtPriceGuards(t *testing.T) {
	if _, err := GetNextSqrtPriceFromInput(Q96, new(big.Int), big.NewInt(1), true); !errors.Is(err, ErrLiquidityZero) {
		t.Fatalf("zero liquidity: got %v, want ErrLiquidityZero", err)
	}
	if _, err := GetNextSqrtPriceFromInput(new(big.Int), big.NewInt(1), big.NewInt(1), true); !errors.Is(err, ErrSqrtPriceZero) {
		t.Fatalf("zero price: got %v, want ErrSqrtPriceZero", err)
	}
	if _, err := GetNextSqrtPriceFromOutput(Q96, new(big.Int), big.NewInt(1), true); !errors.Is(err, ErrLiquidityZero) {
		t.Fatalf("zero liquidity on output: got %v, want ErrLiquidityZero", err)
	}
}

func TestGetNextSqrtPriceFromOutputUnderflow(t *testing.T) {
	// Asking for more token1 than the liquidity can ever pay drives the
	// price below zero.
	if _, err := GetNextSqrtPriceFromOutput(Q96, big.NewInt(10), big.NewInt(100), true); !errors.Is(err, ErrPriceUnderflow) {
		t.Fatalf("got %v, want ErrPriceUnderflow", err)
	}
}

func TestGetNextSqrtPriceFromOutputDirection(t *testing.T) {
	liquidity := big.NewInt(1_000_000)
	amount := big.NewInt(100)

	down, err := GetNextSqrtPriceFromOutput(Q96, liquidity, amount, true)
	if err != nil {
		t.Fatalf("GetNextSqrtPriceFromOutput zeroForOne: %v", err)
	}
	if down.Cmp(Q96) >= 0 {
		t.Fatalf("paying out token1 must lower the price, got %s", down)
	}

	up, err := GetNextSqrtPriceFromOutput(Q96, liquidity, amount, false)
	if err != nil {
		t.Fatalf("GetNextSqrtPriceFromOutput oneForZero: %v", err)
	}
	if up.Cmp(Q96) <= 0 {
		t.Fatalf("paying out token0 must raise the price, got %s", up)
	}
}
