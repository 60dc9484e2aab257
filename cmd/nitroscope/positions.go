package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nitroScope/internal/config"
	"nitroScope/internal/dex"
	"nitroScope/internal/position"
)

func runPositions(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadPositions(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	posCfg, err := cfg.PositionConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, caller, err := dialChain(ctx, cfg.Chain, logger)
	if err != nil {
		return err
	}
	defer chainClient.Close()

	ref, err := chainClient.Pin(ctx, cfg.Block)
	if err != nil {
		return err
	}
	block := ref.BigNumber()
	logger.Info("positions start", zap.String("user", cfg.User.Hex()), zap.Uint64("block", ref.Number))

	pair, err := dex.FetchPair(ctx, caller, cfg.Pool, block)
	if err != nil {
		return err
	}

	agg := position.NewAggregator(posCfg, caller, nil, logger)
	summary, err := agg.Summarize(ctx, cfg.User, pair, block)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), summary)
}
