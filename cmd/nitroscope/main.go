package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"nitroScope/internal/api"
	"nitroScope/internal/chain"
	"nitroScope/internal/config"
	"nitroScope/internal/storage"
	"nitroScope/internal/storage/postgres"
)

func main() {
	root := &cobra.Command{
		Use:          "nitroscope",
		Short:        "Camelot Nitro pool position valuation",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Value a user's deposit in a pool and its Nitro program",
		RunE:  runReport,
	}
	addChainFlags(reportCmd.Flags())
	addAPIFlags(reportCmd.Flags())
	reportCmd.Flags().String("pool", "", "Camelot pool address")
	reportCmd.Flags().String("nitro", "", "Nitro pool address")
	reportCmd.Flags().String("user", "", "user wallet address")
	reportCmd.Flags().Uint64("block", 0, "block to read at, 0 means latest")
	reportCmd.Flags().String("out", "", "optional JSONL file to append the report to")
	reportCmd.Flags().String("pg-dsn", "", "optional Postgres DSN to store the report")
	root.AddCommand(reportCmd)

	positionsCmd := &cobra.Command{
		Use:   "positions",
		Short: "List a user's spNFT and Algebra positions for a pool",
		RunE:  runPositions,
	}
	addChainFlags(positionsCmd.Flags())
	positionsCmd.Flags().String("pool", "", "Camelot pool address")
	positionsCmd.Flags().String("user", "", "user wallet address")
	positionsCmd.Flags().Uint64("block", 0, "block to read at, 0 means latest")
	root.AddCommand(positionsCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve valuation reports over HTTP",
		RunE:  runServe,
	}
	addChainFlags(serveCmd.Flags())
	addAPIFlags(serveCmd.Flags())
	serveCmd.Flags().String("listen", ":8080", "HTTP listen address")
	serveCmd.Flags().String("pool", "", "default pool address")
	serveCmd.Flags().String("nitro", "", "default Nitro pool address")
	serveCmd.Flags().String("out", "", "optional JSONL file to append served reports to")
	serveCmd.Flags().String("pg-dsn", "", "optional Postgres DSN to store served reports")
	root.AddCommand(serveCmd)

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List stored reports for a user",
		RunE:  runHistory,
	}
	historyCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	historyCmd.Flags().String("out", "", "JSONL report file to read instead of Postgres")
	historyCmd.Flags().String("user", "", "user wallet address")
	historyCmd.Flags().Int("limit", 20, "maximum reports to list")
	historyCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.AddCommand(historyCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addChainFlags(flags *pflag.FlagSet) {
	flags.String("rpc", "", "Arbitrum RPC URL (falls back to NETWORK_URL)")
	flags.Int("max-retries", 3, "maximum retry attempts per RPC or API call")
	flags.Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	flags.String("algebra-positions", "", "Algebra position manager address (default Camelot V3)")
	flags.StringSlice("spnft", nil, "spNFT contract addresses (comma-separated)")
	flags.String("mismatch-policy", "skip", "positions on other pairs: skip or reject")
	flags.Int("concurrency", 8, "parallel position reads")
	flags.Uint64("max-positions", 1000, "maximum positions walked per contract and owner")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
}

func addAPIFlags(flags *pflag.FlagSet) {
	flags.String("api-url", api.DefaultBaseURL, "Camelot API base URL")
	flags.Float64("api-rate", 2, "maximum API requests per second")
	flags.String("redis-addr", "", "optional Redis address for caching API responses")
	flags.String("redis-password", "", "Redis password")
	flags.Int("redis-db", 0, "Redis database")
	flags.Duration("cache-ttl", time.Minute, "API response cache TTL")
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

func dialChain(ctx context.Context, cfg config.Chain, logger *zap.Logger) (*chain.Client, chain.Caller, error) {
	if cfg.RPCURL == "" {
		return nil, nil, fmt.Errorf("rpc url is required")
	}
	client, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect rpc: %w", err)
	}
	return client, chain.NewRetryCaller(client, cfg.MaxRetries, cfg.RetryBackoff, logger), nil
}

func newAPIClient(ctx context.Context, apiCfg config.API, chainCfg config.Chain, logger *zap.Logger) (*api.Client, func(), error) {
	opts := api.Options{
		BaseURL:      apiCfg.BaseURL,
		RequestsPerS: apiCfg.RateLimit,
		MaxRetries:   chainCfg.MaxRetries,
		RetryBackoff: chainCfg.RetryBackoff,
		CacheTTL:     apiCfg.CacheTTL,
		Logger:       logger,
	}
	cleanup := func() {}
	if apiCfg.RedisAddr != "" {
		cache, err := api.NewRedisCache(ctx, apiCfg.RedisAddr, apiCfg.RedisPassword, apiCfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		opts.Cache = cache
		cleanup = func() { _ = cache.Close() }
	}
	return api.NewClient(opts), cleanup, nil
}

// openSinks returns the configured report sinks; with neither out nor
// pgDSN set the result is nil.
func openSinks(ctx context.Context, out, pgDSN string) (storage.ReportSink, func(), error) {
	var sinks storage.MultiSink
	cleanup := func() {}
	if out != "" {
		sinks = append(sinks, storage.NewJsonlStorage(out))
	}
	if pgDSN != "" {
		store, err := openPostgres(ctx, pgDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, nil, err
		}
		sinks = append(sinks, store)
		cleanup = store.Close
	}
	if len(sinks) == 0 {
		return nil, cleanup, nil
	}
	return sinks, cleanup, nil
}

// openPostgres connects and pings so a bad DSN fails before any work is done.
func openPostgres(ctx context.Context, dsn string) (*postgres.Store, error) {
	store, err := postgres.NewStore(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := store.Ping(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return store, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
