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
	"nitroScope/internal/server"
)

func runServe(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadServe(cfgFile, cmd.Flags())
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

	svc := report.NewService(posCfg, caller, chainClient, apiClient, logger)
	srv := server.NewServer(server.Config{
		Listen:       cfg.Listen,
		DefaultPool:  cfg.Pool,
		DefaultNitro: cfg.Nitro,
	}, svc, sink, logger)

	logger.Info("serve start",
		zap.String("rpc", cfg.RPCURL),
		zap.String("listen", cfg.Listen),
		zap.Bool("redis_cache", cfg.RedisAddr != ""),
	)
	return srv.Run(ctx)
}
