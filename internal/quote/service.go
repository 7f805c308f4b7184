// Package quote orchestrates swap quoting: it resolves a token pair to a
// pool snapshot through the pool-data collaborator, runs the simulator,
// and packages amounts, prices, and price impact. It holds no state and
// caches nothing; every call fetches a fresh snapshot.
package quote

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"quoteScope/internal/dexmath"
	"quoteScope/internal/model"
	"quoteScope/internal/pooldata"
	"quoteScope/internal/sim"
)

func init() {
	// Price math needs more headroom than the package default of 16.
	if decimal.DivisionPrecision < 50 {
		decimal.DivisionPrecision = 50
	}
}

// Service computes swap quotes. Safe for concurrent use: each call works
// on its own snapshot.
type Service struct {
	source pooldata.Source
	logger *zap.Logger
}

func NewService(source pooldata.Source, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{source: source, logger: logger}
}

// QuoteExactInput quotes swapping exactly amountIn of tokenIn. With a zero
// fee tier every supported tier is tried and the quote with the highest
// output wins.
func (s *Service) QuoteExactInput(ctx context.Context, tokenIn, tokenOut string, amountIn decimal.Decimal, fee model.FeeTier) (*model.Quote, error) {
	if fee != 0 {
		return s.quoteSingle(ctx, tokenIn, tokenOut, amountIn, fee, false)
	}
	return s.quoteBestTier(ctx, tokenIn, tokenOut, amountIn, false)
}

// QuoteExactOutput quotes the input needed to receive exactly amountOut of
// tokenOut. With a zero fee tier the tier needing the least input wins.
func (s *Service) QuoteExactOutput(ctx context.Context, tokenIn, tokenOut string, amountOut decimal.Decimal, fee model.FeeTier) (*model.Quote, error) {
	if fee != 0 {
		return s.quoteSingle(ctx, tokenIn, tokenOut, amountOut, fee, true)
	}
	return s.quoteBestTier(ctx, tokenIn, tokenOut, amountOut, true)
}

// SpotPrice converts a pool sqrt price into the price of tokenOut per unit
// of tokenIn. Pure conversion, no simulation or fetching.
func (s *Service) SpotPrice(tokenIn, tokenOut string, sqrtPrice decimal.Decimal) (decimal.Decimal, error) {
	if sqrtPrice.Sign() <= 0 {
		return decimal.Zero, ErrInvalidAmount
	}
	ordering, err := orderPair(tokenIn, tokenOut)
	if err != nil {
		return decimal.Zero, err
	}

	price := sqrtPrice.Mul(sqrtPrice)
	if !ordering.ZeroForOne {
		price = decimal.NewFromInt(1).Div(price)
	}
	return price, nil
}

func (s *Service) quoteBestTier(ctx context.Context, tokenIn, tokenOut string, amount decimal.Decimal, exactOutput bool) (*model.Quote, error) {
	var best *model.Quote
	var firstErr error

	for _, tier := range model.AllFeeTiers {
		q, err := s.quoteSingle(ctx, tokenIn, tokenOut, amount, tier, exactOutput)
		if err != nil {
			if errors.Is(err, pooldata.ErrPoolNotFound) {
				continue
			}
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if best == nil || better(q, best, exactOutput) {
			best = q
		}
	}

	if best != nil {
		return best, nil
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return nil, ErrNoPoolAvailable
}

// better prefers more output for exact-input and less input for
// exact-output, never preferring a partial fill over a complete one.
func better(candidate, current *model.Quote, exactOutput bool) bool {
	if candidate.InsufficientLiquidity != current.InsufficientLiquidity {
		return !candidate.InsufficientLiquidity
	}
	if exactOutput {
		return candidate.InAmount.LessThan(current.InAmount)
	}
	return candidate.OutAmount.GreaterThan(current.OutAmount)
}

func (s *Service) quoteSingle(ctx context.Context, tokenIn, tokenOut string, amount decimal.Decimal, fee model.FeeTier, exactOutput bool) (*model.Quote, error) {
	if amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	ordering, err := orderPair(tokenIn, tokenOut)
	if err != nil {
		return nil, err
	}

	pool, err := s.source.FetchPool(ctx, ordering.Token0, ordering.Token1, fee)
	if err != nil {
		return nil, err
	}

	inDecimals, outDecimals := pool.Token0Decimals, pool.Token1Decimals
	if !ordering.ZeroForOne {
		inDecimals, outDecimals = outDecimals, inDecimals
	}

	scaleDecimals := inDecimals
	if exactOutput {
		scaleDecimals = outDecimals
	}
	raw, err := toRawAmount(amount, scaleDecimals)
	if err != nil {
		return nil, err
	}
	amountSpecified := raw
	if exactOutput {
		amountSpecified = new(big.Int).Neg(raw)
	}

	result, err := sim.Swap(pool, amountSpecified, ordering.ZeroForOne)
	if err != nil {
		return nil, fmt.Errorf("simulate swap: %w", err)
	}
	if result.AmountIn.Sign() == 0 && result.AmountOut.Sign() == 0 {
		return nil, ErrInsufficientLiquidity
	}

	inputKey, outputKey := ordering.Token0, ordering.Token1
	if !ordering.ZeroForOne {
		inputKey, outputKey = outputKey, inputKey
	}

	inAmount := decimal.NewFromBigInt(result.AmountIn, -int32(inDecimals))
	outAmount := decimal.NewFromBigInt(result.AmountOut, -int32(outDecimals))

	currentPrice := poolPrice(pool.SqrtPriceX96, pool.Token0Decimals, pool.Token1Decimals, ordering.ZeroForOne)
	newPrice := poolPrice(result.SqrtPriceAfterX96, pool.Token0Decimals, pool.Token1Decimals, ordering.ZeroForOne)

	var priceImpact decimal.Decimal
	if inAmount.Sign() > 0 && currentPrice.Sign() > 0 {
		execution := outAmount.Div(inAmount)
		priceImpact = execution.Sub(currentPrice).Div(currentPrice)
	}

	q := &model.Quote{
		InputToken:            inputKey,
		OutputToken:           outputKey,
		FeeTier:               fee,
		InAmount:              inAmount,
		OutAmount:             outAmount,
		FeePaid:               decimal.NewFromBigInt(result.FeePaid, -int32(inDecimals)),
		Amount0:               decimal.NewFromBigInt(result.Amount0, -int32(pool.Token0Decimals)),
		Amount1:               decimal.NewFromBigInt(result.Amount1, -int32(pool.Token1Decimals)),
		CurrentSqrtPriceX96:   pool.SqrtPriceX96,
		NewSqrtPriceX96:       result.SqrtPriceAfterX96,
		CurrentPrice:          currentPrice,
		NewPrice:              newPrice,
		PriceImpact:           priceImpact,
		InsufficientLiquidity: result.InsufficientLiquidity,
	}

	s.logger.Debug("quote computed",
		zap.String("token_in", inputKey.String()),
		zap.String("token_out", outputKey.String()),
		zap.Uint32("fee", uint32(fee)),
		zap.Bool("exact_output", exactOutput),
		zap.String("in_amount", q.InAmount.String()),
		zap.String("out_amount", q.OutAmount.String()),
		zap.Bool("partial", q.InsufficientLiquidity),
	)
	return q, nil
}

func orderPair(tokenIn, tokenOut string) (model.TokenOrdering, error) {
	inKey, err := model.ParseTokenClassKey(tokenIn)
	if err != nil {
		return model.TokenOrdering{}, err
	}
	outKey, err := model.ParseTokenClassKey(tokenOut)
	if err != nil {
		return model.TokenOrdering{}, err
	}
	return model.GetTokenOrdering(inKey, outKey), nil
}

// toRawAmount scales a display amount to base units. The scaled value must
// be a whole number; sub-unit dust cannot exist on chain.
func toRawAmount(amount decimal.Decimal, decimals uint8) (*big.Int, error) {
	scaled := amount.Shift(int32(decimals))
	if !scaled.IsInteger() {
		return nil, ErrInvalidAmount
	}
	return scaled.BigInt(), nil
}

// poolPrice derives the display price of the output token per input token
// from a Q64.96 sqrt price.
func poolPrice(sqrtPriceX96 *big.Int, decimals0, decimals1 uint8, zeroForOne bool) decimal.Decimal {
	sqrt := decimal.NewFromBigInt(sqrtPriceX96, 0)
	q96 := decimal.NewFromBigInt(dexmath.Q96, 0)
	// Raw price token1/token0, then adjust to display units.
	price := sqrt.Mul(sqrt).Div(q96.Mul(q96)).Shift(int32(decimals0) - int32(decimals1))
	if !zeroForOne {
		if price.Sign() == 0 {
			return decimal.Zero
		}
		price = decimal.NewFromInt(1).Div(price)
	}
	return price
}
