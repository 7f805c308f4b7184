// Package gateway implements the pool-data source backed by a gSwap-style
// DEX gateway. The gateway speaks JSON over POST with payloads wrapped in
// a Data envelope and reports failures with an ErrorKey.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"quoteScope/internal/dexmath"
	"quoteScope/internal/model"
	"quoteScope/internal/pooldata"
)

const userAgent = "quotescope/0.1"

// Client fetches pool snapshots from a DEX gateway.
type Client struct {
	baseURL      string
	contractPath string
	httpClient   *http.Client
	logger       *zap.Logger
}

func NewClient(baseURL, contractPath string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		contractPath: contractPath,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		logger:       logger,
	}
}

type envelope struct {
	Data  json.RawMessage `json:"Data"`
	Error *gatewayError   `json:"error"`
}

type gatewayError struct {
	ErrorKey string `json:"ErrorKey"`
	Message  string `json:"Message"`
}

type poolDataPayload struct {
	Token0         string       `json:"token0"`
	Token1         string       `json:"token1"`
	Token0Decimals uint8        `json:"token0Decimals"`
	Token1Decimals uint8        `json:"token1Decimals"`
	Fee            uint32       `json:"fee"`
	TickSpacing    int32        `json:"tickSpacing"`
	Liquidity      string       `json:"liquidity"`
	SqrtPriceX96   string       `json:"sqrtPriceX96"`
	SqrtPrice      string       `json:"sqrtPrice"`
	Ticks          []tickRecord `json:"ticks"`
}

type tickRecord struct {
	Tick         int32  `json:"tick"`
	LiquidityNet string `json:"liquidityNet"`
}

// FetchPool loads pool data and its initialized ticks for a pair and tier.
func (c *Client) FetchPool(ctx context.Context, token0, token1 model.TokenClassKey, fee model.FeeTier) (*model.PoolState, error) {
	body := map[string]any{
		"token0": token0.String(),
		"token1": token1.String(),
		"fee":    uint32(fee),
	}

	var payload poolDataPayload
	if err := c.post(ctx, "/GetPoolData", body, &payload); err != nil {
		return nil, err
	}

	liquidity, ok := new(big.Int).SetString(payload.Liquidity, 10)
	if !ok {
		return nil, fmt.Errorf("gateway pool data: bad liquidity %q", payload.Liquidity)
	}

	sqrtPriceX96, err := parseSqrtPrice(payload)
	if err != nil {
		return nil, err
	}
	tickCurrent, err := dexmath.TickAtSqrtPrice(sqrtPriceX96)
	if err != nil {
		return nil, fmt.Errorf("gateway pool data: %w", err)
	}

	ticks := make([]model.Tick, 0, len(payload.Ticks))
	for _, record := range payload.Ticks {
		net, ok := new(big.Int).SetString(record.LiquidityNet, 10)
		if !ok {
			return nil, fmt.Errorf("gateway tick %d: bad liquidityNet %q", record.Tick, record.LiquidityNet)
		}
		ticks = append(ticks, model.Tick{Index: record.Tick, LiquidityNet: net})
	}

	return model.NewPoolState(model.PoolState{
		Token0:         token0,
		Token1:         token1,
		Token0Decimals: payload.Token0Decimals,
		Token1Decimals: payload.Token1Decimals,
		Fee:            model.FeeTier(payload.Fee),
		TickSpacing:    payload.TickSpacing,
		Liquidity:      liquidity,
		SqrtPriceX96:   sqrtPriceX96,
		TickCurrent:    tickCurrent,
		Ticks:          ticks,
	}), nil
}

// parseSqrtPrice prefers the X96 encoding. The decimal form is accepted
// only for pools whose tokens share decimals, where the two encodings
// differ by a plain 2^96 scale.
func parseSqrtPrice(payload poolDataPayload) (*big.Int, error) {
	if payload.SqrtPriceX96 != "" {
		sqrtPrice, ok := new(big.Int).SetString(payload.SqrtPriceX96, 10)
		if !ok {
			return nil, fmt.Errorf("gateway pool data: bad sqrtPriceX96 %q", payload.SqrtPriceX96)
		}
		return sqrtPrice, nil
	}
	if payload.SqrtPrice == "" {
		return nil, fmt.Errorf("gateway pool data: no sqrt price supplied")
	}
	if payload.Token0Decimals != payload.Token1Decimals {
		return nil, fmt.Errorf("gateway pool data: decimal sqrtPrice needs sqrtPriceX96 for mixed-decimal pools")
	}
	sqrtDecimal, err := decimal.NewFromString(payload.SqrtPrice)
	if err != nil {
		return nil, fmt.Errorf("gateway pool data: bad sqrtPrice %q", payload.SqrtPrice)
	}
	return sqrtDecimal.Mul(decimal.NewFromBigInt(dexmath.Q96, 0)).BigInt(), nil
}

func (c *Client) post(ctx context.Context, endpoint string, body any, out any) error {
	url := c.baseURL + c.contractPath + endpoint

	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read gateway response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("gateway %s: status %d, undecodable body", endpoint, resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if env.Error != nil && isNotFoundKey(env.Error.ErrorKey) {
			return pooldata.ErrPoolNotFound
		}
		if env.Error != nil {
			return fmt.Errorf("gateway %s: %s (%s)", endpoint, env.Error.Message, env.Error.ErrorKey)
		}
		return fmt.Errorf("gateway %s: unexpected HTTP status %d", endpoint, resp.StatusCode)
	}

	if env.Data == nil {
		return fmt.Errorf("gateway %s: response missing Data", endpoint)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode gateway %s payload: %w", endpoint, err)
	}
	return nil
}

// The gateway reports a missing pool as OBJECT_NOT_FOUND, and CONFLICT for
// a pair whose ordering has no pool at the tier.
func isNotFoundKey(key string) bool {
	switch key {
	case "OBJECT_NOT_FOUND", "CONFLICT", "NO_POOL_AVAILABLE":
		return true
	}
	return false
}
