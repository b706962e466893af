package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"gfauth/internal/auth"
	"gfauth/internal/config"
	"gfauth/internal/logging"
)

// exitTempFail is returned when the failure looks transient.
const exitTempFail = 75

// app carries the state shared by every subcommand.
type app struct {
	configPath string
	logLevel   string
	cfg        *config.Config
	logger     *log.Logger
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) || cmd.Flags().Changed("config") {
			return err
		}
	}
	a.cfg = cfg

	level := a.cfg.LogLevel
	if cmd.Flags().Changed("log-level") {
		level = a.logLevel
	}
	a.logger, err = logging.NewLogrus(level, os.Stderr)
	if err != nil {
		return err
	}
	a.logger.Debugf("Using %s as configuration file", a.configPath)
	return nil
}

// component returns a module logger tagged with name.
func (a *app) component(name string) logging.Logger {
	return logging.FromLogrus(a.logger.WithField("component", name))
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:               "gfauth",
		Short:             "Log into Gameforge accounts the way the launcher does",
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "gfauth.yaml", "path to the configuration file")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")

	cmd.AddCommand(newLoginCmd(a))
	cmd.AddCommand(newBatchCmd(a))
	cmd.AddCommand(newBlackboxCmd(a))
	cmd.AddCommand(newIdentityCmd(a))

	return cmd
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "Error:", err)
		if auth.IsRetryable(err) {
			os.Exit(exitTempFail)
		}
		os.Exit(1)
	}
}
