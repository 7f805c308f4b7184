package model

import (
	"fmt"

	"quoteScope/internal/dexmath"
)

// FeeTier is a pool fee expressed in hundredths of a basis point, so
// 500 = 0.05%, 3000 = 0.30%, 10000 = 1.00%.
type FeeTier uint32

const (
	FeeTier500   FeeTier = 500
	FeeTier3000  FeeTier = 3000
	FeeTier10000 FeeTier = 10000
)

// FeeDenominator is the unit of FeeTier: one million pips per whole.
const FeeDenominator = 1_000_000

// AllFeeTiers lists supported tiers in ascending order.
var AllFeeTiers = []FeeTier{FeeTier500, FeeTier3000, FeeTier10000}

// ProtocolParams carries the protocol-wide constants the math and the
// simulator depend on. It is passed explicitly rather than read from
// package globals so alternative deployments can override it.
type ProtocolParams struct {
	MinTick      int32
	MaxTick      int32
	TickSpacings map[FeeTier]int32
}

// DefaultProtocolParams returns the gSwap deployment constants.
func DefaultProtocolParams() ProtocolParams {
	return ProtocolParams{
		MinTick: dexmath.MinTick,
		MaxTick: dexmath.MaxTick,
		TickSpacings: map[FeeTier]int32{
			FeeTier500:   10,
			FeeTier3000:  60,
			FeeTier10000: 200,
		},
	}
}

// TickSpacing returns the tick spacing for a fee tier.
func (p ProtocolParams) TickSpacing(fee FeeTier) (int32, error) {
	spacing, ok := p.TickSpacings[fee]
	if !ok {
		return 0, fmt.Errorf("unsupported fee tier %d", fee)
	}
	return spacing, nil
}
