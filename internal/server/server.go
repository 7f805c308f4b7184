// Package server exposes the quote service over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"quoteScope/internal/model"
	"quoteScope/internal/pooldata"
	"quoteScope/internal/quote"
	"quoteScope/internal/storage"
)

type Params struct {
	Port int
}

type Server struct {
	p      Params
	svc    *quote.Service
	sink   storage.QuoteSink
	logger *zap.Logger
}

// NewServer builds a server around a quote service. sink may be nil when
// quote journaling is disabled.
func NewServer(p Params, svc *quote.Service, sink storage.QuoteSink, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{p: p, svc: svc, sink: sink, logger: logger}
}

// Run starts the HTTP server and blocks until the context ends or the
// listener fails.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/quote", s.quoteHandler)
	mux.HandleFunc("/v1/spot", s.spotHandler)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.p.Port),
		Handler: s.middleware(mux),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	s.logger.Info("quote server listening", zap.Int("port", s.p.Port))

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		<-errCh
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

type quoteResponse struct {
	TokenIn               string `json:"token_in"`
	TokenOut              string `json:"token_out"`
	FeeTier               uint32 `json:"fee_tier"`
	InAmount              string `json:"in_amount"`
	OutAmount             string `json:"out_amount"`
	FeePaid               string `json:"fee_paid"`
	CurrentPrice          string `json:"current_price"`
	NewPrice              string `json:"new_price"`
	NewSqrtPriceX96       string `json:"new_sqrt_price_x96"`
	PriceImpact           string `json:"price_impact"`
	InsufficientLiquidity bool   `json:"insufficient_liquidity"`
}

func (s *Server) quoteHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	tokenIn := r.URL.Query().Get("tokenIn")
	tokenOut := r.URL.Query().Get("tokenOut")
	if tokenIn == "" || tokenOut == "" {
		http.Error(w, "tokenIn and tokenOut are required", http.StatusBadRequest)
		return
	}

	var fee model.FeeTier
	if raw := r.URL.Query().Get("fee"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			http.Error(w, "fee must be an integer", http.StatusBadRequest)
			return
		}
		fee = model.FeeTier(parsed)
	}

	amountIn := r.URL.Query().Get("amountIn")
	amountOut := r.URL.Query().Get("amountOut")

	var (
		q           *model.Quote
		err         error
		exactOutput bool
	)
	switch {
	case amountIn != "" && amountOut == "":
		amount, parseErr := decimal.NewFromString(amountIn)
		if parseErr != nil {
			http.Error(w, "amountIn must be a decimal number", http.StatusBadRequest)
			return
		}
		q, err = s.svc.QuoteExactInput(r.Context(), tokenIn, tokenOut, amount, fee)
	case amountOut != "" && amountIn == "":
		amount, parseErr := decimal.NewFromString(amountOut)
		if parseErr != nil {
			http.Error(w, "amountOut must be a decimal number", http.StatusBadRequest)
			return
		}
		exactOutput = true
		q, err = s.svc.QuoteExactOutput(r.Context(), tokenIn, tokenOut, amount, fee)
	default:
		http.Error(w, "exactly one of amountIn or amountOut is required", http.StatusBadRequest)
		return
	}

	if err != nil {
		s.writeError(w, err)
		return
	}

	if s.sink != nil {
		if err := s.sink.PutQuotes([]model.QuoteRecord{q.Record(exactOutput, time.Now())}); err != nil {
			s.logger.Warn("journal quote", zap.Error(err))
		}
	}

	writeJSON(w, quoteResponse{
		TokenIn:               q.InputToken.String(),
		TokenOut:              q.OutputToken.String(),
		FeeTier:               uint32(q.FeeTier),
		InAmount:              q.InAmount.String(),
		OutAmount:             q.OutAmount.String(),
		FeePaid:               q.FeePaid.String(),
		CurrentPrice:          q.CurrentPrice.String(),
		NewPrice:              q.NewPrice.String(),
		NewSqrtPriceX96:       q.NewSqrtPriceX96.String(),
		PriceImpact:           q.PriceImpact.String(),
		InsufficientLiquidity: q.InsufficientLiquidity,
	})
}

type spotResponse struct {
	TokenIn  string `json:"token_in"`
	TokenOut string `json:"token_out"`
	Price    string `json:"price"`
}

func (s *Server) spotHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	tokenIn := r.URL.Query().Get("tokenIn")
	tokenOut := r.URL.Query().Get("tokenOut")
	rawSqrtPrice := r.URL.Query().Get("sqrtPrice")
	if tokenIn == "" || tokenOut == "" || rawSqrtPrice == "" {
		http.Error(w, "tokenIn, tokenOut, and sqrtPrice are required", http.StatusBadRequest)
		return
	}

	sqrtPrice, err := decimal.NewFromString(rawSqrtPrice)
	if err != nil {
		http.Error(w, "sqrtPrice must be a decimal number", http.StatusBadRequest)
		return
	}

	price, err := s.svc.SpotPrice(tokenIn, tokenOut, sqrtPrice)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, spotResponse{TokenIn: tokenIn, TokenOut: tokenOut, Price: price.String()})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, quote.ErrInvalidAmount), errors.Is(err, model.ErrInvalidTokenKey):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, pooldata.ErrPoolNotFound), errors.Is(err, quote.ErrNoPoolAvailable):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, quote.ErrInsufficientLiquidity):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		s.logger.Error("quote failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "encode response", http.StatusInternalServerError)
	}
}
