package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mandalnilabja/roboadmin/internal/app"
	"github.com/mandalnilabja/roboadmin/internal/config"
)

var (
	servePort       string
	serveBackendURL string
	logLevel        string
	logFormat       string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the admin web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := setupLogger(logLevel, logFormat, os.Stdout)
		if err != nil {
			return err
		}

		if err := config.EnsureConfigFile(); err != nil {
			logger.Warn("could not write default config file", "error", err)
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		// CLI flags win over env and file.
		if cmd.Flags().Changed("port") {
			cfg.ServerPort = servePort
		}
		if cmd.Flags().Changed("backend-url") {
			cfg.BackendURL = serveBackendURL
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		a, err := app.New(app.Options{Config: cfg, Logger: logger})
		if err != nil {
			return err
		}
		defer func() {
			if err := a.Close(); err != nil {
				logger.Error("shutdown", "error", err)
			}
		}()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		printStartupBanner(cfg)
		return a.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", ":8080", "address to listen on")
	serveCmd.Flags().StringVar(&serveBackendURL, "backend-url", "", "back office base URL")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	serveCmd.Flags().StringVar(&logFormat, "log-format", "text", "log format (text or json)")
}
