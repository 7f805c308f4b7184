package model

import (
	"math/big"
	"testing"
)

func testPoolState() *PoolState {
	return NewPoolState(PoolState{
		Ticks: []Tick{
			{Index: 600, LiquidityNet: big.NewInt(-1000)},
			{Index: -600, LiquidityNet: big.NewInt(1000)},
			{Index: 0, LiquidityNet: big.NewInt(5)},
		},
	})
}

func TestNewPoolStateSortsTicks(t *testing.T) {
	pool := testPoolState()
	for i := 1; i < len(pool.Ticks); i++ {
		if pool.Ticks[i-1].Index >= pool.Ticks[i].Index {
			t.Fatalf("ticks not sorted: %d before %d", pool.Ticks[i-1].Index, pool.Ticks[i].Index)
		}
	}
}

func TestNextInitializedTickDescending(t *testing.T) {
	pool := testPoolState()

	next, ok := pool.NextInitializedTick(-1, true)
	if !ok || next != -600 {
		t.Fatalf("descending from -1: got %d, %v", next, ok)
	}
	// At-or-below includes the tick itself when descending.
	next, ok = pool.NextInitializedTick(-600, true)
	if !ok || next != -600 {
		t.Fatalf("descending from -600: got %d, %v", next, ok)
	}
	if _, ok := pool.NextInitializedTick(-601, true); ok {
		t.Fatalf("descending below the lowest tick should find nothing")
	}
}

func TestNextInitializedTickAscending(t *testing.T) {
	pool := testPoolState()

	next, ok := pool.NextInitializedTick(0, false)
	if !ok || next != 600 {
		t.Fatalf("ascending from 0: got %d, %v", next, ok)
	}
	next, ok = pool.NextInitializedTick(-700, false)
	if !ok || next != -600 {
		t.Fatalf("ascending from -700: got %d, %v", next, ok)
	}
	if _, ok := pool.NextInitializedTick(600, false); ok {
		t.Fatalf("ascending past the highest tick should find nothing")
	}
}

func TestLiquidityNet(t *testing.T) {
	pool := testPoolState()

	if got := pool.LiquidityNet(-600); got.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("liquidity net at -600 = %s", got)
	}
	if got := pool.LiquidityNet(7); got.Sign() != 0 {
		t.Fatalf("liquidity net at uninitialized tick = %s, want 0", got)
	}
}
