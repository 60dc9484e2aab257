package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nitroScope/internal/config"
	"nitroScope/internal/storage"
)

func runHistory(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadHistory(cfgFile, cmd.Flags())
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

	var lister storage.ReportLister
	if cfg.Out != "" {
		lister = storage.NewJsonlStorage(cfg.Out)
	} else {
		store, err := openPostgres(ctx, cfg.PGDSN)
		if err != nil {
			return err
		}
		defer store.Close()
		lister = store
	}

	reports, err := lister.ListReports(ctx, cfg.User.Hex(), cfg.Limit)
	if err != nil {
		return err
	}
	logger.Info("history loaded", zap.String("user", cfg.User.Hex()), zap.Int("reports", len(reports)))
	return writeJSON(cmd.OutOrStdout(), reports)
}
