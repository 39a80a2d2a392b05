package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"swapScope/internal/adapter"
	"swapScope/internal/chain"
	"swapScope/internal/config"
	"swapScope/internal/dex"
	"swapScope/internal/retry"
	"swapScope/internal/storage"
	"swapScope/internal/storage/postgres"
)

func main() {
	root := &cobra.Command{
		Use:          "swapper",
		Short:        "Uniswap V3 quotes, pool state and unsigned swaps",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file path")
	flags.String("env-file", ".env", "dotenv file loaded before config")
	flags.String("rpc", "", "RPC endpoints (comma-separated chainId=url)")
	flags.String("rpc-arbitrum", "", "Arbitrum One RPC URL")
	flags.Uint64("chain-id", config.ArbitrumOne, "chain id")
	flags.Bool("no-routing", false, "skip routing and quote the 0.05% pool directly")
	flags.Int("max-retries", 3, "retries per remote call")
	flags.Duration("retry-backoff", 100*time.Millisecond, "base retry backoff")
	flags.Uint32("slippage-bps", adapter.DefaultSlippageBps, "slippage tolerance in basis points")
	flags.Duration("deadline", adapter.DefaultDeadline, "swap deadline from now")
	flags.String("recipient", "", "swap recipient address")
	flags.String("out", "", "append quotes and pool snapshots to this JSONL file")
	flags.String("pg-dsn", "", "Postgres DSN for the quote journal")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(newQuoteCmd(), newPoolCmd(), newBuildTxCmd(), newDemoCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// app is everything a command needs for one run.
type app struct {
	cfg     config.Config
	adapter *adapter.Adapter
	logger  *zap.Logger
	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func setup(ctx context.Context, cmd *cobra.Command) (*app, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	if err := config.LoadDotEnv(envFile); err != nil {
		return nil, err
	}
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger}
	a.closers = append(a.closers, func() { _ = logger.Sync() })

	journal, err := openJournal(ctx, cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	if c, ok := journal.(interface{ Close() }); ok {
		a.closers = append(a.closers, c.Close)
	}

	registry := chain.NewRegistry(cfg.RPC, dex.HasDeployment)
	logger.Debug("swapper configured",
		zap.Uint64s("chains", registry.ChainIDs()),
		zap.Bool("routing_disabled", cfg.RoutingDisabled),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("retry_backoff", cfg.RetryBackoff),
	)

	a.adapter = adapter.New(adapter.Options{
		RoutingDisabled: cfg.RoutingDisabled,
		Retry: retry.Policy{
			MaxRetries: cfg.MaxRetries,
			BaseDelay:  cfg.RetryBackoff,
			Backoff:    retry.Exponential,
		},
		SlippageBps: cfg.SlippageBps,
		Deadline:    cfg.Deadline,
	}, registry, journal, logger)
	return a, nil
}

// journalSet closes the Postgres pool behind a Tee.
type journalSet struct {
	storage.Tee
	pg *postgres.Store
}

func (j journalSet) Close() {
	if j.pg != nil {
		j.pg.Close()
	}
}

func openJournal(ctx context.Context, cfg config.Config, logger *zap.Logger) (storage.Journal, error) {
	var set journalSet
	if cfg.Out != "" {
		set.Tee = append(set.Tee, storage.NewJsonlStorage(cfg.Out))
	}
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		set.Tee = append(set.Tee, store)
		set.pg = store
	}
	if len(set.Tee) == 0 {
		return storage.Discard{}, nil
	}
	logger.Debug("journal enabled", zap.String("out", cfg.Out), zap.Bool("postgres", set.pg != nil))
	return set, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
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
