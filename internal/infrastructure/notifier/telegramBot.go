package notifier

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"fareglitch/internal/domain/entity"
	"fareglitch/internal/domain/value"
)

type TelegramBot struct {
	bot    *telego.Bot
	chatID int64
}

func NewTelegramBot(token string, chatID int64) (*TelegramBot, error) {
	bot, err := telego.NewBot(token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	return NewTelegramBotWith(bot, chatID), nil
}

// NewTelegramBotWith posts through an existing bot, e.g. the admin one.
func NewTelegramBotWith(bot *telego.Bot, chatID int64) *TelegramBot {
	return &TelegramBot{
		bot:    bot,
		chatID: chatID,
	}
}

func (b *TelegramBot) Name() string {
	return "telegram"
}

// Send posts the deal teaser to the channel.
func (b *TelegramBot) Send(ctx context.Context, deal entity.Deal) error {
	msg := tu.Message(
		tu.ID(b.chatID),
		FormatTeaser(deal),
	).WithParseMode(telego.ModeHTML)

	if _, err := b.bot.SendMessage(ctx, msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	return nil
}

// SendText posts a plain text message to the channel.
func (b *TelegramBot) SendText(ctx context.Context, text string) error {
	msg := tu.Message(tu.ID(b.chatID), text)

	_, err := b.bot.SendMessage(ctx, msg)

	return err
}

// FormatTeaser renders the channel post. Prices and the booking link stay
// behind the unlock.
func FormatTeaser(deal entity.Deal) string {
	var sb strings.Builder

	icon := "✈️"
	if deal.Tier == value.TierMistakeFare {
		icon = "🔥"
	}

	fmt.Fprintf(&sb, "%s <b>%s</b>\n\n", icon, html.EscapeString(deal.TeaserHeadline()))
	fmt.Fprintf(&sb, "📉 <b>Savings:</b> %s%%\n", deal.SavingsPercent().StringFixed(1))
	fmt.Fprintf(&sb, "💺 <b>Cabin:</b> %s\n", html.EscapeString(strings.ReplaceAll(string(deal.Cabin), "_", " ")))

	if deal.Airline != "" {
		fmt.Fprintf(&sb, "🛫 <b>Airline:</b> %s\n", html.EscapeString(deal.Airline))
	}

	if deal.DepartureDate != nil {
		fmt.Fprintf(&sb, "📅 <b>Departs:</b> %s\n", deal.DepartureDate.Format("Jan 2, 2006"))
	}

	if deal.ExpiresAt != nil {
		fmt.Fprintf(&sb, "⏳ <b>Expires:</b> %s\n", deal.ExpiresAt.UTC().Format(time.RFC822))
	}

	if deal.UnlockFee.IsPositive() {
		fmt.Fprintf(&sb, "\n🔓 Unlock <code>%s</code> for %s %s", deal.DealNumber, deal.UnlockFee.StringFixed(2), deal.Currency)
	} else {
		fmt.Fprintf(&sb, "\n🔎 Deal <code>%s</code>", deal.DealNumber)
	}

	return sb.String()
}
