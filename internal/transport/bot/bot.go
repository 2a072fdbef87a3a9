package bot

import (
	"context"
	"fmt"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	"fareglitch/internal/transport/bot/handler"
	"fareglitch/pkg/contextx"
	"fareglitch/pkg/logx"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

const longPollingTimeout = 60

// Bot serves operator commands over long polling.
type Bot struct {
	bot     *telego.Bot
	handler *handler.Handler
	adminID int64
}

func New(token string, adminID int64, h *handler.Handler) (*Bot, error) {
	bot, err := telego.NewBot(token)
	if err != nil {
		return nil, fmt.Errorf("telego.NewBot: %w", err)
	}

	return &Bot{
		bot:     bot,
		handler: h,
		adminID: adminID,
	}, nil
}

// Run polls for updates until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	updates, err := b.bot.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		Timeout: longPollingTimeout,
	})
	if err != nil {
		return fmt.Errorf("bot.UpdatesViaLongPolling: %w", err)
	}

	botHandler, err := th.NewBotHandler(b.bot, updates)
	if err != nil {
		return fmt.Errorf("th.NewBotHandler: %w", err)
	}

	b.handler.RegisterRoutes(botHandler, b.adminID)

	go func() {
		if err := botHandler.Start(); err != nil {
			logger(ctx).Error("botHandler.Start", logx.Error(err))
		}
	}()

	logger(ctx).Info("admin bot started")

	<-ctx.Done()

	if err := botHandler.Stop(); err != nil {
		logger(ctx).Error("botHandler.Stop", logx.Error(err))
	}

	logger(ctx).Info("admin bot stopped")

	return nil
}
