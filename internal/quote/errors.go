package quote

import "errors"

var (
	// ErrInvalidAmount rejects non-positive amounts or amounts that do not
	// scale to a whole number of base units, before any simulation runs.
	ErrInvalidAmount = errors.New("amount must be a positive multiple of the token's base unit")

	// ErrNoPoolAvailable means no tier has a pool for the pair.
	ErrNoPoolAvailable = errors.New("no pools available for the token pair")

	// ErrInsufficientLiquidity means the pool could not process any part of
	// the requested amount at the current price.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity for swap")
)
