package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teamhub/relay-server/internal/app"
	"github.com/teamhub/relay-server/internal/config"
	"github.com/teamhub/relay-server/internal/log"
)

var (
	cfgFile  string
	addr     string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "relay",
	Short: "Realtime presence and signaling relay for teamhub",
	Long: `relay is the persistent-connection server of the teamhub
collaboration app. It authenticates websocket clients, tracks room
membership and presence, fans chat and typing events out to rooms, and
relays WebRTC negotiation payloads between peers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := log.New(logLevel)

		cfg, path, err := config.Load(logger, cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger.Info().Str("config", path).Msg("configuration loaded")

		if addr != "" {
			cfg.Addr = addr
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		logger = log.New(cfg.LogLevel)

		application, err := app.New(cfg, logger)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger.Info().Str("addr", cfg.Addr).Msg("starting relay server")
		if err := application.Run(ctx); err != nil {
			return err
		}
		logger.Info().Msg("server stopped")
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVar(&cfgFile, "config", "", "path to config file")
	rootCmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides config)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
