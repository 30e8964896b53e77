package main

import (
	"os"

	"github.com/2beens/fitcalc/internal/config"
	"github.com/2beens/fitcalc/internal/logging"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	env        string
	configPath string
	app        *app
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "fitcalc",
		Short:         "fitcalc runs fitness calculators and browses their history",
		Long:          "fitcalc submits BMR, TDEE, macros, BMI and body composition calculations to the remote functions and reads the calculation history back.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.env, opts.configPath)
			if err != nil {
				return err
			}

			logging.Setup(logging.LoggerSetupParams{
				LogFileName:      cfg.LogsPath,
				LogToStdout:      cfg.LogToStdout,
				LogLevel:         cfg.LogLevel,
				Environment:      cfg.Environment,
				SentryEnabled:    cfg.SentryEnabled,
				SentryDSN:        os.Getenv("SENTRY_DSN"),
				SentryServerName: "fitcalc-cli",
				Stdout:           cmd.ErrOrStderr(),
			})

			opts.app, err = newApp(cfg)
			return err
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if opts.app != nil {
				opts.app.close()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&opts.env, "env", "development", "environment [prod | production | dev | development]")
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "./config.toml", "path for the TOML config file")

	cmd.AddCommand(
		newCalcCmd(opts),
		newHistoryCmd(opts),
		newTokenCmd(),
	)
	return cmd
}
