// Package evm implements the pool-data source against a live
// Uniswap-V3-compatible pool over eth_call. One FetchPool reads slot0,
// liquidity, the immutables, and the initialized ticks within a bitmap
// word radius around the current price.
package evm

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"quoteScope/internal/chain"
	"quoteScope/internal/model"
	"quoteScope/internal/pooldata"
)

const defaultWordRadius = 5

// Source reads pool snapshots from chain.
type Source struct {
	chainClient *chain.Client
	registry    *Registry
	logger      *zap.Logger

	// WordRadius is how many 256-tick bitmap words to scan on each side of
	// the current word.
	wordRadius int

	mu       sync.RWMutex
	decimals map[common.Address]uint8
}

func NewSource(chainClient *chain.Client, registry *Registry, wordRadius int, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	if wordRadius <= 0 {
		wordRadius = defaultWordRadius
	}
	return &Source{
		chainClient: chainClient,
		registry:    registry,
		logger:      logger,
		wordRadius:  wordRadius,
		decimals:    make(map[common.Address]uint8),
	}
}

// FetchPool builds a snapshot for the registered pool of the pair/tier.
func (s *Source) FetchPool(ctx context.Context, token0, token1 model.TokenClassKey, fee model.FeeTier) (*model.PoolState, error) {
	poolAddrHex, ok := s.registry.Lookup(token0, token1, fee)
	if !ok {
		return nil, pooldata.ErrPoolNotFound
	}
	if !common.IsHexAddress(poolAddrHex) {
		return nil, fmt.Errorf("registry pool address %q is not a hex address", poolAddrHex)
	}
	pool := common.HexToAddress(poolAddrHex)

	poolABI, err := v3PoolABI()
	if err != nil {
		return nil, fmt.Errorf("parse pool abi: %w", err)
	}

	slot0, err := s.call(ctx, pool, poolABI, "slot0")
	if err != nil {
		return nil, err
	}
	sqrtPriceX96, err := asBigInt(slot0[0])
	if err != nil {
		return nil, fmt.Errorf("slot0 sqrtPriceX96: %w", err)
	}
	tickBig, err := asBigInt(slot0[1])
	if err != nil {
		return nil, fmt.Errorf("slot0 tick: %w", err)
	}
	tickCurrent := int32(tickBig.Int64())

	values, err := s.call(ctx, pool, poolABI, "liquidity")
	if err != nil {
		return nil, err
	}
	liquidity, err := asBigInt(values[0])
	if err != nil {
		return nil, fmt.Errorf("liquidity: %w", err)
	}

	values, err = s.call(ctx, pool, poolABI, "tickSpacing")
	if err != nil {
		return nil, err
	}
	spacingBig, err := asBigInt(values[0])
	if err != nil {
		return nil, fmt.Errorf("tick spacing: %w", err)
	}
	tickSpacing := int32(spacingBig.Int64())
	if tickSpacing <= 0 {
		return nil, fmt.Errorf("pool %s: bad tick spacing %d", pool.Hex(), tickSpacing)
	}

	decimals0, decimals1, err := s.tokenDecimals(ctx, pool, poolABI)
	if err != nil {
		return nil, err
	}

	ticks, err := s.scanTicks(ctx, pool, poolABI, tickCurrent, tickSpacing)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("fetched pool snapshot",
		zap.String("pool", pool.Hex()),
		zap.Int32("tick", tickCurrent),
		zap.Int("initialized_ticks", len(ticks)),
	)

	return model.NewPoolState(model.PoolState{
		Token0:         token0,
		Token1:         token1,
		Token0Decimals: decimals0,
		Token1Decimals: decimals1,
		Fee:            fee,
		TickSpacing:    tickSpacing,
		Liquidity:      liquidity,
		SqrtPriceX96:   sqrtPriceX96,
		TickCurrent:    tickCurrent,
		Ticks:          ticks,
	}), nil
}

// scanTicks walks tickBitmap words around the current tick and resolves
// each set bit through ticks() for its net liquidity.
func (s *Source) scanTicks(ctx context.Context, pool common.Address, poolABI abi.ABI, tickCurrent, tickSpacing int32) ([]model.Tick, error) {
	compressed := floorDiv(tickCurrent, tickSpacing)
	word := compressed >> 8

	var ticks []model.Tick
	for w := word - int32(s.wordRadius); w <= word+int32(s.wordRadius); w++ {
		values, err := s.call(ctx, pool, poolABI, "tickBitmap", int16(w))
		if err != nil {
			return nil, err
		}
		bitmap, err := asBigInt(values[0])
		if err != nil {
			return nil, fmt.Errorf("tickBitmap word %d: %w", w, err)
		}
		if bitmap.Sign() == 0 {
			continue
		}

		for bit := 0; bit < 256; bit++ {
			if bitmap.Bit(bit) == 0 {
				continue
			}
			tickIndex := (w*256 + int32(bit)) * tickSpacing

			tickValues, err := s.call(ctx, pool, poolABI, "ticks", big.NewInt(int64(tickIndex)))
			if err != nil {
				return nil, err
			}
			liquidityNet, err := asBigInt(tickValues[1])
			if err != nil {
				return nil, fmt.Errorf("ticks(%d) liquidityNet: %w", tickIndex, err)
			}
			ticks = append(ticks, model.Tick{Index: tickIndex, LiquidityNet: liquidityNet})
		}
	}
	return ticks, nil
}

func (s *Source) tokenDecimals(ctx context.Context, pool common.Address, poolABI abi.ABI) (uint8, uint8, error) {
	values, err := s.call(ctx, pool, poolABI, "token0")
	if err != nil {
		return 0, 0, err
	}
	token0Addr, err := asAddress(values[0])
	if err != nil {
		return 0, 0, fmt.Errorf("token0: %w", err)
	}

	values, err = s.call(ctx, pool, poolABI, "token1")
	if err != nil {
		return 0, 0, err
	}
	token1Addr, err := asAddress(values[0])
	if err != nil {
		return 0, 0, fmt.Errorf("token1: %w", err)
	}

	decimals0, err := s.fetchDecimals(ctx, token0Addr)
	if err != nil {
		return 0, 0, err
	}
	decimals1, err := s.fetchDecimals(ctx, token1Addr)
	if err != nil {
		return 0, 0, err
	}
	return decimals0, decimals1, nil
}

func (s *Source) fetchDecimals(ctx context.Context, token common.Address) (uint8, error) {
	s.mu.RLock()
	decimals, ok := s.decimals[token]
	s.mu.RUnlock()
	if ok {
		return decimals, nil
	}

	erc20, err := tokenABI()
	if err != nil {
		return 0, fmt.Errorf("parse erc20 abi: %w", err)
	}
	values, err := s.call(ctx, token, erc20, "decimals")
	if err != nil {
		return 0, err
	}
	decimals, ok = values[0].(uint8)
	if !ok {
		decimalsBig, err := asBigInt(values[0])
		if err != nil {
			return 0, fmt.Errorf("decimals: %w", err)
		}
		decimals = uint8(decimalsBig.Uint64())
	}

	s.mu.Lock()
	s.decimals[token] = decimals
	s.mu.Unlock()
	return decimals, nil
}

func (s *Source) call(ctx context.Context, target common.Address, targetABI abi.ABI, method string, args ...any) ([]any, error) {
	if s.chainClient == nil {
		return nil, fmt.Errorf("chain client is nil")
	}

	data, err := targetABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	msg := ethereum.CallMsg{To: &target, Data: data}
	resp, err := s.chainClient.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}

	values, err := targetABI.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%s returned no values", method)
	}
	return values, nil
}

func asBigInt(value any) (*big.Int, error) {
	if b, ok := value.(*big.Int); ok {
		return b, nil
	}
	return nil, fmt.Errorf("unexpected type %T", value)
}

func asAddress(value any) (common.Address, error) {
	if addr, ok := value.(common.Address); ok {
		return addr, nil
	}
	return common.Address{}, fmt.Errorf("unexpected type %T", value)
}

func floorDiv(a, b int32) int32 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
