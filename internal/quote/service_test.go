package quote

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"

	"quoteScope/internal/dexmath"
	"quoteScope/internal/model"
	"quoteScope/internal/pooldata"
)

type stubSource struct {
	pools map[model.FeeTier]*model.PoolState
	err   error
	calls int
}

func (s *stubSource) FetchPool(_ context.Context, _, _ model.TokenClassKey, fee model.FeeTier) (*model.PoolState, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	pool, ok := s.pools[fee]
	if !ok {
		return nil, pooldata.ErrPoolNotFound
	}
	return pool, nil
}

func stubPool(t *testing.T, fee model.FeeTier) *model.PoolState {
	t.Helper()
	gala, err := model.ParseTokenClassKey("GALA|Unit|none|none")
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	gusdc, err := model.ParseTokenClassKey("GUSDC|Unit|none|none")
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	return model.NewPoolState(model.PoolState{
		Token0:       gala,
		Token1:       gusdc,
		Fee:          fee,
		TickSpacing:  10,
		Liquidity:    big.NewInt(1_000_000),
		SqrtPriceX96: new(big.Int).Set(dexmath.Q96),
		TickCurrent:  0,
		Ticks: []model.Tick{
			{Index: -600, LiquidityNet: big.NewInt(1_000_000)},
			{Index: 600, LiquidityNet: big.NewInt(-1_000_000)},
		},
	})
}

func stubService(t *testing.T, tiers ...model.FeeTier) *Service {
	t.Helper()
	pools := make(map[model.FeeTier]*model.PoolState, len(tiers))
	for _, tier := range tiers {
		pools[tier] = stubPool(t, tier)
	}
	return NewService(&stubSource{pools: pools}, nil)
}

func TestQuoteExactInput(t *testing.T) {
	svc := stubService(t, model.FeeTier500)

	q, err := svc.QuoteExactInput(context.Background(), "GALA|Unit|none|none", "GUSDC|Unit|none|none", decimal.NewFromInt(100), model.FeeTier500)
	if err != nil {
		t.Fatalf("QuoteExactInput: %v", err)
	}
	if !q.InAmount.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("in amount = %s, want 100", q.InAmount)
	}
	if q.OutAmount.Sign() <= 0 || !q.OutAmount.LessThan(decimal.NewFromInt(100)) {
		t.Fatalf("out amount = %s, want positive and below 100 at par price", q.OutAmount)
	}
	if q.FeeTier != model.FeeTier500 {
		t.Fatalf("fee tier = %d", q.FeeTier)
	}
	if !q.CurrentPrice.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("current price = %s, want 1 at tick zero", q.CurrentPrice)
	}
	if q.InsufficientLiquidity {
		t.Fatalf("unexpected partial quote")
	}
	if q.PriceImpact.Sign() >= 0 {
		t.Fatalf("price impact = %s, want negative for a buyer", q.PriceImpact)
	}
}

func TestQuoteExactOutput(t *testing.T) {
	svc := stubService(t, model.FeeTier500)

	q, err := svc.QuoteExactOutput(context.Background(), "GALA|Unit|none|none", "GUSDC|Unit|none|none", decimal.NewFromInt(100), model.FeeTier500)
	if err != nil {
		t.Fatalf("QuoteExactOutput: %v", err)
	}
	if !q.OutAmount.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("out amount = %s, want exactly 100", q.OutAmount)
	}
	if !q.InAmount.GreaterThan(decimal.NewFromInt(100)) {
		t.Fatalf("in amount = %s, want above 100 at par price plus fee", q.InAmount)
	}
}

func TestQuoteInvalidAmount(t *testing.T) {
	svc := stubService(t, model.FeeTier500)
	ctx := context.Background()

	for _, amount := range []decimal.Decimal{
		decimal.Zero,
		decimal.NewFromInt(-5),
		decimal.RequireFromString("0.5"), // sub-unit dust at zero decimals
	} {
		if _, err := svc.QuoteExactInput(ctx, "GALA|Unit|none|none", "GUSDC|Unit|none|none", amount, model.FeeTier500); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("amount %s: got %v, want ErrInvalidAmount", amount, err)
		}
	}
}

func TestQuoteRejectsMalformedToken(t *testing.T) {
	svc := stubService(t, model.FeeTier500)

	_, err := svc.QuoteExactInput(context.Background(), "notakey", "GUSDC|Unit|none|none", decimal.NewFromInt(1), model.FeeTier500)
	if !errors.Is(err, model.ErrInvalidTokenKey) {
		t.Fatalf("got %v, want ErrInvalidTokenKey", err)
	}
}

func TestQuotePoolNotFound(t *testing.T) {
	svc := stubService(t, model.FeeTier500)

	_, err := svc.QuoteExactInput(context.Background(), "GALA|Unit|none|none", "GUSDC|Unit|none|none", decimal.NewFromInt(1), model.FeeTier3000)
	if !errors.Is(err, pooldata.ErrPoolNotFound) {
		t.Fatalf("got %v, want ErrPoolNotFound", err)
	}
}

func TestQuoteBestTierPrefersLowestFee(t *testing.T) {
	svc := stubService(t, model.FeeTier500, model.FeeTier3000, model.FeeTier10000)

	q, err := svc.QuoteExactInput(context.Background(), "GALA|Unit|none|none", "GUSDC|Unit|none|none", decimal.NewFromInt(1000), 0)
	if err != nil {
		t.Fatalf("QuoteExactInput: %v", err)
	}
	// Identical liquidity across tiers, so the cheapest fee wins on output.
	if q.FeeTier != model.FeeTier500 {
		t.Fatalf("best tier = %d, want 500", q.FeeTier)
	}
}

func TestQuoteBestTierSkipsMissingPools(t *testing.T) {
	svc := stubService(t, model.FeeTier3000)

	q, err := svc.QuoteExactInput(context.Background(), "GALA|Unit|none|none", "GUSDC|Unit|none|none", decimal.NewFromInt(1000), 0)
	if err != nil {
		t.Fatalf("QuoteExactInput: %v", err)
	}
	if q.FeeTier != model.FeeTier3000 {
		t.Fatalf("best tier = %d, want the only existing tier 3000", q.FeeTier)
	}
}

func TestQuoteNoPoolAvailable(t *testing.T) {
	svc := stubService(t)

	_, err := svc.QuoteExactInput(context.Background(), "GALA|Unit|none|none", "GUSDC|Unit|none|none", decimal.NewFromInt(1), 0)
	if !errors.Is(err, ErrNoPoolAvailable) {
		t.Fatalf("got %v, want ErrNoPoolAvailable", err)
	}
}

func TestQuotePartialOnOversizedInput(t *testing.T) {
	svc := stubService(t, model.FeeTier500)

	q, err := svc.QuoteExactInput(context.Background(), "GALA|Unit|none|none", "GUSDC|Unit|none|none", decimal.NewFromInt(1_000_000_000_000), model.FeeTier500)
	if err != nil {
		t.Fatalf("QuoteExactInput: %v", err)
	}
	if !q.InsufficientLiquidity {
		t.Fatalf("expected a partial quote for an oversized input")
	}
	if q.OutAmount.Sign() <= 0 {
		t.Fatalf("out amount = %s, want the pool's capacity", q.OutAmount)
	}
}

func TestSpotPrice(t *testing.T) {
	svc := NewService(nil, nil)

	price, err := svc.SpotPrice("GALA|Unit|none|none", "GUSDC|Unit|none|none", decimal.NewFromInt(2))
	if err != nil {
		t.Fatalf("SpotPrice: %v", err)
	}
	if !price.Equal(decimal.NewFromInt(4)) {
		t.Fatalf("spot price = %s, want 4", price)
	}

	inverse, err := svc.SpotPrice("GUSDC|Unit|none|none", "GALA|Unit|none|none", decimal.NewFromInt(2))
	if err != nil {
		t.Fatalf("SpotPrice inverse: %v", err)
	}
	if !inverse.Equal(decimal.RequireFromString("0.25")) {
		t.Fatalf("inverse spot price = %s, want 0.25", inverse)
	}

	if _, err := svc.SpotPrice("GALA|Unit|none|none", "GUSDC|Unit|none|none", decimal.Zero); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero sqrt price: got %v, want ErrInvalidAmount", err)
	}
}
