package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/csg33k/jpk-vat/internal/app"
	"github.com/csg33k/jpk-vat/internal/config"
	"github.com/csg33k/jpk-vat/internal/logger"
)

var version = "0.1.0"

// runtime is opened by the root pre-run and shared by every subcommand.
var (
	envFile  string
	cfg      *config.Config
	instance *app.App
	logClose io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "jpkvat",
	Short: "Settle, declare and file JPK_V7 VAT returns",
	Long: `jpkvat keeps client VAT ledgers and files JPK_V7M / JPK_V7K declarations.

Configuration comes from the environment, optionally merged from a .env file:
  DB_PATH             SQLite database (default jpkvat.db)
  TENANT              tenant the commands act on (default "default")
  AUTHORITY_BASE_URL  gateway base URL, required by submit, poll and serve
  WEBHOOK_SECRET      HS256 secret for gateway notifications
  SIGNING_CERT/KEY    PEM certificate and PKCS#8 key used to sign uploads`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error
		if envFile != "" {
			cfg, err = config.Load(envFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return err
		}
		if logClose, err = logger.Setup(cfg.GetLoggerConfig()); err != nil {
			return err
		}
		instance, err = app.Open(cmd.Context(), cfg)
		return err
	},
	PersistentPostRunE: func(*cobra.Command, []string) error {
		if logClose != nil {
			logClose.Close()
		}
		if instance != nil {
			return instance.Close()
		}
		return nil
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	log := logger.WithComponent("cmd")
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("command failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "env file to load instead of .env")
}
