package main

import (
	"fmt"
	"os"

	"concierge/internal/config"
	"concierge/internal/observability"
	"concierge/internal/repository"
	"concierge/internal/service"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var rootCmd = &cobra.Command{
	Use:           "server",
	Short:         "Airport amenity concierge",
	Long:          "Answers traveller questions about airport amenities, grounded in the amenity catalogue.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// app is what every subcommand builds from configuration
type app struct {
	cfg   *config.Config
	log   zerolog.Logger
	store *repository.Store
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		ServiceName: "airport-concierge",
	})

	store, err := repository.NewStore(
		cfg.Store.Driver,
		cfg.GetStoreDSN(),
		cfg.Store.MaxConnections,
		cfg.Store.MaxIdleConnections,
	)
	if err != nil {
		return nil, err
	}
	log.Info().Str("driver", cfg.Store.Driver).Msg("connected to amenity store")

	return &app{cfg: cfg, log: log, store: store}, nil
}

// chatService builds the pipeline; chat logging follows CHAT_LOG_ENABLED
func (a *app) chatService(cmd *cobra.Command) (*service.ChatService, error) {
	chatModel, err := service.NewChatModel(cmd.Context(), &a.cfg.Model, a.log)
	if err != nil {
		return nil, err
	}

	var chatLog service.ChatLogger
	if a.cfg.Chat.LogEnabled {
		chatLog = a.store
	}
	return service.NewChatService(a.cfg, a.store, chatModel, chatLog, a.log), nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn().Err(err).Msg("failed to close store")
	}
}
