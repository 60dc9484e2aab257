package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nitroScope/internal/config"
	"nitroScope/internal/report"
	"nitroScope/internal/units"
)

func runReport(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadReport(cfgFile, cmd.Flags())
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

	apiClient, closeCache, err := newAPIClient(ctx, cfg.API, cfg.Chain, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	sink, closeSinks, err := openSinks(ctx, cfg.Out, cfg.PGDSN)
	if err != nil {
		return err
	}
	defer closeSinks()

	logger.Info("report start",
		zap.String("rpc", cfg.RPCURL),
		zap.String("pool", cfg.Pool.Hex()),
		zap.String("nitro", cfg.Nitro.Hex()),
		zap.String("user", cfg.User.Hex()),
		zap.Uint64("block", cfg.Block),
		zap.String("mismatch_policy", posCfg.Policy.String()),
	)

	svc := report.NewService(posCfg, caller, chainClient, apiClient, logger)
	rep, err := svc.Build(ctx, report.Request{
		Pool:      cfg.Pool,
		NitroPool: cfg.Nitro,
		User:      cfg.User,
		Block:     cfg.Block,
	})
	if err != nil {
		return err
	}

	if sink != nil {
		if err := sink.PutReport(ctx, rep); err != nil {
			return err
		}
	}

	logger.Info("report done",
		zap.String("id", rep.ID),
		zap.String("nitro_value", units.FormatUSD(rep.Nitro.UserDollarValue)),
		zap.String("total_value", units.FormatUSD(rep.TotalDollarValue)),
	)
	return writeJSON(cmd.OutOrStdout(), rep)
}
