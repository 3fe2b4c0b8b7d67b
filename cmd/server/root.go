package main

import (
	"taste-match/internal/config"
	"taste-match/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const appName = "taste-match"

type rootOptions struct {
	json  bool
	debug bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           appName,
		Short:         "taste-match serves flavor DNA profiles and dining matches",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&opts.json, "json", "j", false, "json format for logging (overrides LOG_JSON)")
	root.PersistentFlags().BoolVarP(&opts.debug, "debug", "d", false, "verbose/debug output (overrides LOG_DEBUG)")

	serve := newServeCmd(opts)
	root.AddCommand(serve, newMigrateCmd(opts), newSeedCmd(opts), newTokenCmd(opts))

	// Running the binary without a subcommand starts the server.
	root.RunE = serve.RunE

	return root
}

// setup loads configuration and builds the logger. Flags only ever switch
// logging options on.
func (o *rootOptions) setup() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	if o.json {
		cfg.Log.JSON = true
	}
	if o.debug {
		cfg.Log.Debug = true
	}

	log, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, log.With(zap.String("app", cfg.App.AppName), zap.String("env", cfg.App.Environment)), nil
}
