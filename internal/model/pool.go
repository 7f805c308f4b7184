package model

import (
	"math/big"
	"sort"
)

// Tick is an initialized tick and the signed liquidity change applied when
// price crosses it moving left to right.
type Tick struct {
	Index        int32    `json:"index"`
	LiquidityNet *big.Int `json:"liquidity_net"`
}

// PoolState is an immutable snapshot of one pool sufficient to simulate a
// swap against it. Instances are built once by a pool-data source and are
// never mutated; the simulator tracks its own running values.
type PoolState struct {
	Token0 TokenClassKey
	Token1 TokenClassKey

	Token0Decimals uint8
	Token1Decimals uint8

	Fee         FeeTier
	TickSpacing int32

	// Liquidity is the in-range liquidity at the current price.
	Liquidity *big.Int
	// SqrtPriceX96 is the current sqrt price in Q64.96.
	SqrtPriceX96 *big.Int
	TickCurrent  int32

	// Ticks holds the initialized ticks sorted by index ascending.
	Ticks []Tick
}

// NewPoolState copies ticks into sorted order so lookups can binary search.
func NewPoolState(state PoolState) *PoolState {
	ticks := make([]Tick, len(state.Ticks))
	copy(ticks, state.Ticks)
	sort.Slice(ticks, func(i, j int) bool { return ticks[i].Index < ticks[j].Index })
	state.Ticks = ticks
	return &state
}

// NextInitializedTick returns the next initialized tick at or below `tick`
// when descending (price moving down), or strictly above `tick` when
// ascending. The second return is false when no initialized tick remains in
// that direction, which the simulator treats as no more liquidity there.
func (p *PoolState) NextInitializedTick(tick int32, descending bool) (int32, bool) {
	if descending {
		i := sort.Search(len(p.Ticks), func(i int) bool { return p.Ticks[i].Index > tick })
		if i == 0 {
			return 0, false
		}
		return p.Ticks[i-1].Index, true
	}
	i := sort.Search(len(p.Ticks), func(i int) bool { return p.Ticks[i].Index > tick })
	if i == len(p.Ticks) {
		return 0, false
	}
	return p.Ticks[i].Index, true
}

// LiquidityNet returns the net liquidity delta stored at an initialized
// tick, or zero when the tick is not initialized.
func (p *PoolState) LiquidityNet(tick int32) *big.Int {
	i := sort.Search(len(p.Ticks), func(i int) bool { return p.Ticks[i].Index >= tick })
	if i < len(p.Ticks) && p.Ticks[i].Index == tick {
		return p.Ticks[i].LiquidityNet
	}
	return new(big.Int)
}
