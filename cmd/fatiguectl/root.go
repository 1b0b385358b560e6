package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fatiguepinn/internal/config"
	"fatiguepinn/internal/logging"
	"fatiguepinn/internal/storage"
	"fatiguepinn/pkg/fatiguepinn"
)

// RootOptions holds global flags for all commands. Empty values defer to the
// model config, then to the built-in defaults.
type RootOptions struct {
	LogLevel  string
	LogFormat string
	Store     string
	DBPath    string
}

var validLogFormats = []string{"json", "console"}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "fatiguectl",
		Short: "Build, run and train cumulative bearing-damage models",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.LogFormat != "" && !contains(validLogFormats, opts.LogFormat) {
				return fmt.Errorf("invalid log format %q: must be one of %v", opts.LogFormat, validLogFormats)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "", "log format (json|console)")
	cmd.PersistentFlags().StringVar(&opts.Store, "store", "", "run store kind (memory|sqlite)")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db-path", "", "sqlite database path")

	cmd.AddCommand(NewArrangeCommand(opts))
	cmd.AddCommand(NewPredictCommand(opts))
	cmd.AddCommand(NewTrainCommand(opts))
	cmd.AddCommand(NewRunsCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))

	return cmd
}

func (o *RootOptions) logger(cfg *config.Config) (*zap.Logger, error) {
	logCfg := logging.Config{Level: "info", Format: "json"}
	if cfg != nil {
		logCfg = cfg.Log
	}
	if o.LogLevel != "" {
		logCfg.Level = o.LogLevel
	}
	if o.LogFormat != "" {
		logCfg.Format = o.LogFormat
	}
	return logging.New(logCfg)
}

// openClient builds a logger and an initialized client. Flags win over the
// store section of cfg.
func (o *RootOptions) openClient(ctx context.Context, cfg *config.Config) (*fatiguepinn.Client, *zap.Logger, error) {
	logger, err := o.logger(cfg)
	if err != nil {
		return nil, nil, err
	}
	kind, dbPath := storage.DefaultStoreKind(), ""
	if cfg != nil {
		kind, dbPath = cfg.Store.Kind, cfg.Store.DBPath
	}
	if o.Store != "" {
		kind = o.Store
	}
	if o.DBPath != "" {
		dbPath = o.DBPath
	}

	client, err := fatiguepinn.New(fatiguepinn.Options{StoreKind: kind, DBPath: dbPath, Logger: logger})
	if err != nil {
		_ = logger.Sync()
		return nil, nil, err
	}
	if err := client.Init(ctx); err != nil {
		_ = client.Close()
		_ = logger.Sync()
		return nil, nil, err
	}
	return client, logger, nil
}

func closeClient(client *fatiguepinn.Client, logger *zap.Logger) {
	if err := client.Close(); err != nil {
		logger.Warn("close store", zap.Error(err))
	}
	_ = logger.Sync()
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
