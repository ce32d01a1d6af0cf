/*
Package main is the SmartEdu client.

It talks to the SmartEdu backend on behalf of a user: it manages the login
session, the materi pokok and prompt models used for generation, triggers
outline and ebook generation and watches the backend until the generated
content appears.

The serve command runs a local HTTP server that owns the generation watchers
for a thin UI:

	$ SMARTEDU_API_URL=https://api.example.com smartedu serve

Endpoints:
  - POST /generate/{kind}: Trigger generation and start watching.
  - GET /jobs/{kind}/{id}: Status of a job and what to render for it.
  - DELETE /jobs/{kind}/{id}: Stop watching a job.
  - GET|PATCH /modules/{id}/outline: Read or edit a generated outline.
  - GET|PUT /ebooks/{id}: Read or replace the ebook of a module.
  - GET /swagger/index.html: API documentation.
  - GET /health, /health/live, /health/ready, /metrics.
*/
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Nexora-Open-Source/smartedu/config"
	"github.com/Nexora-Open-Source/smartedu/middleware"
	"github.com/Nexora-Open-Source/smartedu/monitoring"
	"github.com/spf13/cobra"
)

var (
	envFile   string
	appConfig *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:           "smartedu",
	Short:         "SmartEdu content generation client",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadEnvFile(envFile); err != nil {
			return err
		}
		cfg := config.NewConfig()
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("configuration validation failed: %w", err)
		}
		middleware.InitLogger(cfg.LogLevel)

		services, err := config.NewServices(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize services: %w", err)
		}
		appConfig = &config.AppConfig{Config: cfg, Services: services}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if appConfig != nil {
			return appConfig.Services.Close()
		}
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local generation server",
	RunE: func(cmd *cobra.Command, args []string) error {
		tracerProvider, err := monitoring.InitTracing("smartedu")
		if err != nil {
			return fmt.Errorf("failed to initialize tracing: %w", err)
		}
		defer monitoring.ShutdownTracing(tracerProvider)

		alertManager := monitoring.NewAlertManager(appConfig.Services.Logger, time.Minute)
		defer alertManager.Stop()

		return runServer(cmd.Context(), appConfig)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to a .env file with configuration")
	rootCmd.AddCommand(serveCmd)
	addSessionCommands(rootCmd)
	addResourceCommands(rootCmd)
	addGenerationCommands(rootCmd)
}

// @title SmartEdu Local API
// @version 1.0
// @description Triggers SmartEdu outline and ebook generation and watches the backend until the content appears.
// @BasePath /
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
