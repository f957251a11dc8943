package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/hrbp/internal/config"
	"github.com/jackzampolin/hrbp/internal/prompts"
	hrbpprompts "github.com/jackzampolin/hrbp/internal/prompts/hrbp"
	"github.com/jackzampolin/hrbp/internal/server"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the hrbp server",
	Long: `Start the hrbp HTTP server.

The dataset is loaded once at startup from the configured directory
(default: the working directory). The server refuses to start without
an OpenAI API key or a dataset.

The server provides:
  - /           - Chat page
  - /api/chat/  - POST {"message": "..."} returns {"reply": "..."}
  - /health     - Basic server health check
  - /ready      - Readiness check
  - /swagger    - API documentation

Examples:
  hrbp serve                    # Start on default port 8080
  hrbp serve --port 3000        # Start on custom port
  hrbp serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := setup()
		if err != nil {
			return err
		}
		cfg := env.cfg.Get()
		logger := env.logger

		if err := env.home.EnsureExists(); err != nil {
			return err
		}

		// Only the log level is applied on reload; the rest needs a restart.
		env.cfg.OnChange(func(c *config.Config) {
			if logLevel != "" {
				return
			}
			level := config.ParseLevel(c.Log.Level)
			if level != env.level.Level() {
				env.level.Set(level)
				logger.Info("log level changed", "level", level)
			}
		})
		env.cfg.WatchConfig()

		registry := prompts.NewRegistry(logger)
		hrbpprompts.RegisterPrompts(registry)

		host, port := cfg.Server.Host, cfg.Server.Port
		if cmd.Flags().Changed("host") {
			host = serveHost
		}
		if cmd.Flags().Changed("port") {
			port = servePort
		}

		srv, err := server.New(server.Config{
			Host:        host,
			Port:        port,
			CORSOrigins: cfg.Server.CORSOrigins,
			Responder:   env.responder,
			Dataset:     env.dataset,
			Prompts:     registry,
			Model:       env.client.Model(),
			Home:        env.home,
			Logger:      logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Host to bind to (overrides server.host)")
	serveCmd.Flags().StringVar(&servePort, "port", "8080", "Port to listen on (overrides server.port)")

	rootCmd.AddCommand(serveCmd)
}
