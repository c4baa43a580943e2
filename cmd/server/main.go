package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirechat-relay/internal/app"
	"github.com/vovakirdan/wirechat-relay/internal/auth"
	"github.com/vovakirdan/wirechat-relay/internal/config"
	relaylog "github.com/vovakirdan/wirechat-relay/internal/log"
	transporthttp "github.com/vovakirdan/wirechat-relay/internal/transport/http"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		overrides  config.Config
	)

	cmd := &cobra.Command{
		Use:          "relay",
		Short:        "Blind WebSocket relay for end-to-end encrypted chat",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(configPath, overrides)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application := app.New(&cfg, logger)

			logger.Info().Str("addr", cfg.Addr).Msg("starting relay")
			if err := application.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("server exited with error")
				return err
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml")
	cmd.Flags().StringVar(&overrides.Addr, "addr", "", "HTTP listen address")
	cmd.Flags().StringVar(&overrides.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.Flags().DurationVar(&overrides.ShutdownTimeout, "shutdown-timeout", 0, "graceful shutdown timeout")

	cmd.AddCommand(tokenCmd(&configPath))
	return cmd
}

func tokenCmd(configPath *string) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an operator access token for /ws and /api",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(*configPath, config.Config{LogLevel: "error"})
			if err != nil {
				return err
			}
			if !cfg.AccessEnabled() {
				return fmt.Errorf("access_secret is not configured")
			}

			jwtConfig := transporthttp.JWTConfigFrom(&cfg)
			jwtConfig.TTL = ttl
			token, err := auth.GenerateToken(jwtConfig, subject)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "operator", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}

func loadConfig(path string, overrides config.Config) (config.Config, *zerolog.Logger, error) {
	bootLogger := relaylog.New(overrides.LogLevel)

	cfg, resolved, err := config.Load(bootLogger, path)
	if err != nil {
		return cfg, bootLogger, fmt.Errorf("load config: %w", err)
	}
	cfg.UpdateFrom(overrides)

	logger := relaylog.New(cfg.LogLevel)
	logger.Debug().Str("path", resolved).Msg("config loaded")
	return cfg, logger, nil
}
