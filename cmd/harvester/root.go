package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/paper-harvester/internal/config"
	"github.com/JakeFAU/paper-harvester/internal/logging"
)

// app carries what PersistentPreRunE resolved for the subcommands.
type app struct {
	cfg    config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	var cfgFile string
	a := &app{}

	cmd := &cobra.Command{
		Use:   "harvester",
		Short: "Harvest and classify conference paper metadata.",
		Long: `harvester walks the accepted-papers listing of each configured period,
fetches every paper detail page with a bounded worker pool, and extracts
title, authors, affiliations, abstract, and resource links. Each finished
period is checkpointed; the combined harvest is written as JSON, Markdown,
CSV, and optionally YAML.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Logging.Development, logging.WithFile(logging.FileConfig{
				Path:       cfg.Logging.File,
				MaxSizeMB:  cfg.Logging.MaxSizeMB,
				MaxBackups: cfg.Logging.MaxBackups,
				MaxAgeDays: cfg.Logging.MaxAgeDays,
				Compress:   cfg.Logging.Compress,
			}))
			if err != nil {
				return fmt.Errorf("logger init failed: %w", err)
			}
			a.cfg = cfg
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if a.logger == nil {
				return
			}
			if err := a.logger.Sync(); err != nil && !isStdSyncErr(err) {
				fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", err)
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./harvester.yaml, $HOME/.harvester, /etc/harvester)")
	cmd.AddCommand(newCrawlCmd(a), newClassifyCmd(a))
	return cmd
}

// isStdSyncErr matches the EINVAL/ENOTTY zap reports when syncing a terminal.
func isStdSyncErr(err error) bool {
	var pe *os.PathError
	if errors.As(err, &pe) {
		return pe.Path == "/dev/stderr" || pe.Path == "/dev/stdout"
	}
	return false
}
