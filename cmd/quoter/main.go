package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"quoteScope/internal/chain"
	"quoteScope/internal/config"
	"quoteScope/internal/model"
	"quoteScope/internal/pooldata"
	"quoteScope/internal/pooldata/evm"
	"quoteScope/internal/pooldata/gateway"
	"quoteScope/internal/quote"
	"quoteScope/internal/server"
	"quoteScope/internal/storage"
	"quoteScope/internal/storage/postgres"
)

func main() {
	root := &cobra.Command{
		Use:          "quoter",
		Short:        "Concentrated-liquidity swap quoter",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Quote a swap without executing it",
		RunE:  runQuote,
	}
	addSourceFlags(quoteCmd)
	quoteCmd.Flags().String("token-in", "", "input token class key (Collection|Category|Type|AdditionalKey)")
	quoteCmd.Flags().String("token-out", "", "output token class key")
	quoteCmd.Flags().String("amount-in", "", "exact input amount in token units")
	quoteCmd.Flags().String("amount-out", "", "exact output amount in token units")
	quoteCmd.Flags().Uint32("fee", 0, "fee tier in pips (0 scans all tiers)")
	quoteCmd.Flags().String("out", "", "optional JSONL quote journal path")
	quoteCmd.Flags().String("pg-dsn", "", "optional Postgres DSN for quote history")

	root.AddCommand(quoteCmd)

	spotCmd := &cobra.Command{
		Use:   "spot",
		Short: "Convert a pool sqrt price into a spot price",
		RunE:  runSpot,
	}
	spotCmd.Flags().String("token-in", "", "input token class key")
	spotCmd.Flags().String("token-out", "", "output token class key")
	spotCmd.Flags().String("sqrt-price", "", "pool sqrt price (decimal)")
	spotCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(spotCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve quotes over HTTP",
		RunE:  runServe,
	}
	addSourceFlags(serveCmd)
	serveCmd.Flags().Int("port", 8080, "listen port")
	serveCmd.Flags().String("out", "", "optional JSONL quote journal path")
	serveCmd.Flags().String("pg-dsn", "", "optional Postgres DSN for pool snapshots and quote history")

	root.AddCommand(serveCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().String("source", "gateway", "pool data source (gateway or evm)")
	cmd.Flags().String("gateway-url", "", "DEX gateway base URL")
	cmd.Flags().String("contract-path", "/api/asset/dexv3-contract", "DEX contract base path on the gateway")
	cmd.Flags().String("rpc", "", "EVM RPC URL (source=evm)")
	cmd.Flags().String("pool-registry", "", "pool registry JSON path (source=evm)")
	cmd.Flags().Int("tick-word-radius", 5, "bitmap words to scan each side of the current tick (source=evm)")
	cmd.Flags().Int("max-retries", 3, "maximum pool fetch retry attempts")
	cmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial fetch retry backoff")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func runQuote(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	tokenIn, _ := cmd.Flags().GetString("token-in")
	tokenOut, _ := cmd.Flags().GetString("token-out")
	amountInRaw, _ := cmd.Flags().GetString("amount-in")
	amountOutRaw, _ := cmd.Flags().GetString("amount-out")
	fee, _ := cmd.Flags().GetUint32("fee")

	if tokenIn == "" || tokenOut == "" {
		return fmt.Errorf("token-in and token-out are required")
	}
	if (amountInRaw == "") == (amountOutRaw == "") {
		return fmt.Errorf("exactly one of amount-in or amount-out is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, closeSource, err := buildSource(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSource()

	var store *postgres.Store
	if cfg.PGDSN != "" {
		store, err = postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return err
		}
		defer store.Close()
		source = pooldata.NewRecordingSource(source, store, logger)
	}

	svc := quote.NewService(source, logger)

	var (
		result      *model.Quote
		exactOutput bool
	)
	if amountInRaw != "" {
		amount, err := decimal.NewFromString(amountInRaw)
		if err != nil {
			return fmt.Errorf("parse amount-in: %w", err)
		}
		result, err = svc.QuoteExactInput(ctx, tokenIn, tokenOut, amount, model.FeeTier(fee))
		if err != nil {
			return err
		}
	} else {
		amount, err := decimal.NewFromString(amountOutRaw)
		if err != nil {
			return fmt.Errorf("parse amount-out: %w", err)
		}
		exactOutput = true
		result, err = svc.QuoteExactOutput(ctx, tokenIn, tokenOut, amount, model.FeeTier(fee))
		if err != nil {
			return err
		}
	}

	record := result.Record(exactOutput, time.Now())
	if err := journalQuote(ctx, cfg, store, record); err != nil {
		logger.Warn("journal quote", zap.Error(err))
	}

	encoded, err := json.MarshalIndent(map[string]any{
		"token_in":               record.TokenIn,
		"token_out":              record.TokenOut,
		"fee_tier":               result.FeeTier,
		"in_amount":              result.InAmount.String(),
		"out_amount":             result.OutAmount.String(),
		"fee_paid":               result.FeePaid.String(),
		"current_price":          result.CurrentPrice.String(),
		"new_price":              result.NewPrice.String(),
		"price_impact":           result.PriceImpact.String(),
		"new_sqrt_price_x96":     result.NewSqrtPriceX96.String(),
		"insufficient_liquidity": result.InsufficientLiquidity,
	}, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}

func runSpot(cmd *cobra.Command, _ []string) error {
	tokenIn, _ := cmd.Flags().GetString("token-in")
	tokenOut, _ := cmd.Flags().GetString("token-out")
	sqrtPriceRaw, _ := cmd.Flags().GetString("sqrt-price")

	if tokenIn == "" || tokenOut == "" || sqrtPriceRaw == "" {
		return fmt.Errorf("token-in, token-out, and sqrt-price are required")
	}
	sqrtPrice, err := decimal.NewFromString(sqrtPriceRaw)
	if err != nil {
		return fmt.Errorf("parse sqrt-price: %w", err)
	}

	svc := quote.NewService(nil, nil)
	price, err := svc.SpotPrice(tokenIn, tokenOut, sqrtPrice)
	if err != nil {
		return err
	}
	fmt.Println(price.String())
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, closeSource, err := buildSource(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSource()

	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return err
		}
		defer store.Close()
		source = pooldata.NewRecordingSource(source, store, logger)
	}

	var sink storage.QuoteSink
	if cfg.Out != "" {
		sink = storage.NewJsonlStorage(cfg.Out)
	}

	svc := quote.NewService(source, logger)
	srv := server.NewServer(server.Params{Port: cfg.Port}, svc, sink, logger)
	return srv.Run(ctx)
}

func buildSource(ctx context.Context, cfg config.Config, logger *zap.Logger) (pooldata.Source, func(), error) {
	var (
		source    pooldata.Source
		closeFunc = func() {}
	)

	switch cfg.Source {
	case "gateway":
		if cfg.GatewayURL == "" {
			return nil, nil, fmt.Errorf("gateway-url is required for the gateway source")
		}
		source = gateway.NewClient(cfg.GatewayURL, cfg.ContractPath, logger)
	case "evm":
		if cfg.RPCURL == "" {
			return nil, nil, fmt.Errorf("rpc is required for the evm source")
		}
		if cfg.PoolRegistry == "" {
			return nil, nil, fmt.Errorf("pool-registry is required for the evm source")
		}
		registry, err := evm.LoadRegistry(cfg.PoolRegistry)
		if err != nil {
			return nil, nil, err
		}
		chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect rpc: %w", err)
		}
		closeFunc = chainClient.Close

		chainID, err := chainClient.GetChainID(ctx)
		if err != nil {
			closeFunc()
			return nil, nil, fmt.Errorf("query chain id: %w", err)
		}
		head, err := chainClient.LatestBlockNumber(ctx)
		if err != nil {
			closeFunc()
			return nil, nil, fmt.Errorf("query latest block: %w", err)
		}
		logger.Info("connected to chain",
			zap.String("chain_id", chainID.String()),
			zap.Uint64("head", head),
		)

		source = evm.NewSource(chainClient, registry, cfg.TickWordRadius, logger)
	default:
		return nil, nil, fmt.Errorf("unknown source %q", cfg.Source)
	}

	if cfg.MaxRetries > 0 {
		source = pooldata.NewRetryingSource(source, cfg.MaxRetries, cfg.RetryBackoff)
	}
	return source, closeFunc, nil
}

func journalQuote(ctx context.Context, cfg config.Config, store *postgres.Store, record model.QuoteRecord) error {
	if cfg.Out != "" {
		if err := storage.NewJsonlStorage(cfg.Out).PutQuotes([]model.QuoteRecord{record}); err != nil {
			return err
		}
	}
	if store != nil {
		if err := store.PutQuotes(ctx, []model.QuoteRecord{record}); err != nil {
			return err
		}
	}
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
