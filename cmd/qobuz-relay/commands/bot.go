package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"qobuz-relay/internal/api/telegram"
	"qobuz-relay/internal/bot"
	"qobuz-relay/internal/storage"
)

// NewBotCommand runs the Telegram relay.
func NewBotCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram bot until interrupted.",
		Args:  cobra.NoArgs,
		RunE:  runBotCommand,
	}
}

func runBotCommand(cmd *cobra.Command, args []string) error {
	cfg, container, err := initConfigAndServices(cmd, nil)
	if err != nil {
		return err
	}
	if err := cfg.ValidateBot(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	relay, api, err := telegram.NewRelay(cfg.BotToken)
	if err != nil {
		return err
	}
	container.Logger.Info("Authorized on account %s", api.Self.UserName)

	var throttle *storage.Throttle
	if cfg.RedisAddress != "" {
		client, err := storage.Connect(ctx, cfg.RedisAddress)
		if err != nil {
			return err
		}
		defer client.Close()
		throttle = storage.NewThrottle(storage.RedisCounter{Client: client}, cfg.RateLimitRequests, cfg.RateLimitWindow)
		container.Logger.Info("Throttling to %d requests per %s", cfg.RateLimitRequests, cfg.RateLimitWindow)
	}

	b := bot.New(api, relay, container.Resolver, container.Catalog, throttle, cfg, container.Logger, container.WarningCollector)
	return b.Run(ctx)
}
