package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"quoteScope/internal/model"
)

// Store provides Postgres persistence for pools and quote history.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// UpsertPool inserts or updates the latest observed state of a pool.
func (s *Store) UpsertPool(ctx context.Context, pool *model.PoolState) error {
	if pool == nil {
		return nil
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO pools (
			token0, token1, fee, tick_spacing, liquidity, sqrt_price_x96, tick_current, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		ON CONFLICT (token0, token1, fee)
		DO UPDATE SET
			tick_spacing = EXCLUDED.tick_spacing,
			liquidity = EXCLUDED.liquidity,
			sqrt_price_x96 = EXCLUDED.sqrt_price_x96,
			tick_current = EXCLUDED.tick_current,
			updated_at = now()
	`,
		pool.Token0.String(),
		pool.Token1.String(),
		uint32(pool.Fee),
		pool.TickSpacing,
		pool.Liquidity.String(),
		pool.SqrtPriceX96.String(),
		pool.TickCurrent,
	)
	return err
}

// PutQuotes appends quote history records.
func (s *Store) PutQuotes(ctx context.Context, quotes []model.QuoteRecord) error {
	if len(quotes) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, q := range quotes {
		batch.Queue(`
			INSERT INTO quote_history (
				token_in, token_out, fee_tier, exact_output, in_amount, out_amount,
				fee_paid, new_sqrt_price_x96, price_impact, insufficient_liquidity, quoted_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		`,
			q.TokenIn,
			q.TokenOut,
			q.FeeTier,
			q.ExactOutput,
			q.InAmount,
			q.OutAmount,
			q.FeePaid,
			q.NewSqrtPriceX96,
			q.PriceImpact,
			q.InsufficientLiquidity,
			q.QuotedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range quotes {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
