package model

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// Quote is the result of simulating a swap against one pool snapshot. All
// token amounts are in display units (decimal-adjusted); prices are token1
// per token0 oriented by the trade direction. Immutable once returned.
type Quote struct {
	InputToken  TokenClassKey
	OutputToken TokenClassKey
	FeeTier     FeeTier

	InAmount  decimal.Decimal
	OutAmount decimal.Decimal
	// FeePaid is the total fee charged on the input token.
	FeePaid decimal.Decimal

	// Signed raw pool deltas, pool-ordered: positive amounts flow into the
	// pool, negative out of it.
	Amount0 decimal.Decimal
	Amount1 decimal.Decimal

	CurrentSqrtPriceX96 *big.Int
	NewSqrtPriceX96     *big.Int

	// CurrentPrice and NewPrice are pool prices oriented so they quote the
	// output token per unit of input token.
	CurrentPrice decimal.Decimal
	NewPrice     decimal.Decimal

	// PriceImpact is (executionPrice - CurrentPrice) / CurrentPrice where
	// executionPrice is OutAmount / InAmount.
	PriceImpact decimal.Decimal

	// InsufficientLiquidity marks a partial quote: the pool ran out of
	// initialized liquidity before the requested amount was consumed, and
	// In/OutAmount hold the portion that was.
	InsufficientLiquidity bool
}

// QuoteRecord is the serialized form of a Quote for the JSONL journal and
// the Postgres quote history.
type QuoteRecord struct {
	TokenIn               string    `json:"token_in"`
	TokenOut              string    `json:"token_out"`
	FeeTier               uint32    `json:"fee_tier"`
	ExactOutput           bool      `json:"exact_output"`
	InAmount              string    `json:"in_amount"`
	OutAmount             string    `json:"out_amount"`
	FeePaid               string    `json:"fee_paid"`
	NewSqrtPriceX96       string    `json:"new_sqrt_price_x96"`
	PriceImpact           string    `json:"price_impact"`
	InsufficientLiquidity bool      `json:"insufficient_liquidity"`
	QuotedAt              time.Time `json:"quoted_at"`
}

// Record converts a Quote for persistence.
func (q *Quote) Record(exactOutput bool, at time.Time) QuoteRecord {
	return QuoteRecord{
		TokenIn:               q.InputToken.String(),
		TokenOut:              q.OutputToken.String(),
		FeeTier:               uint32(q.FeeTier),
		ExactOutput:           exactOutput,
		InAmount:              q.InAmount.String(),
		OutAmount:             q.OutAmount.String(),
		FeePaid:               q.FeePaid.String(),
		NewSqrtPriceX96:       q.NewSqrtPriceX96.String(),
		PriceImpact:           q.PriceImpact.String(),
		InsufficientLiquidity: q.InsufficientLiquidity,
		QuotedAt:              at.UTC(),
	}
}
