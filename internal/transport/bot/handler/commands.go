package handler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"

	"fareglitch/internal/domain/value"
	"fareglitch/internal/transport/bot/view"
	"fareglitch/pkg/logx"
)

// backgroundScanTimeout bounds a scan started from chat.
const backgroundScanTimeout = 30 * time.Minute

func (h *Handler) OnStart(ctx *th.Context, msg telego.Message) error {
	return h.sendHTML(ctx, msg.Chat.ID, view.StartMessage)
}

func (h *Handler) OnStatus(ctx *th.Context, msg telego.Message) error {
	return h.sendHTML(ctx, msg.Chat.ID, view.Status(h.scheduler.Status()))
}

func (h *Handler) OnBudget(ctx *th.Context, msg telego.Message) error {
	return h.sendHTML(ctx, msg.Chat.ID, view.Budget(h.budget.Snapshot(), h.budget.Limits()))
}

// OnScan acknowledges immediately and reports the scan result in a follow-up
// message. Usage: /scan [JFK LAX ...].
func (h *Handler) OnScan(ctx *th.Context, msg telego.Message) error {
	origins := Args(msg.Text)
	bot := ctx.Bot()
	chatID := msg.Chat.ID

	label := strings.Join(origins, ",")
	if label == "" {
		label = "next rotation batch"
	}

	if err := h.sendHTML(ctx, chatID, fmt.Sprintf(view.ScanStarted, label)); err != nil {
		return err
	}

	go func() {
		scanCtx, cancel := context.WithTimeout(h.baseCtx, backgroundScanTimeout)
		defer cancel()

		text := ""

		result, err := h.scheduler.TryScan(scanCtx, origins)
		if err != nil {
			text = view.Error(err)
			if result.ScanID != "" {
				text += "\n\n" + view.ScanResult(result)
			}
		} else {
			text = view.ScanResult(result)
		}

		if _, err = bot.SendMessage(scanCtx, tu.Message(tu.ID(chatID), text).WithParseMode(telego.ModeHTML)); err != nil {
			logger(scanCtx).Error("send scan result", logx.Error(err))
		}
	}()

	return nil
}

func (h *Handler) OnStartScan(ctx *th.Context, msg telego.Message) error {
	if h.scheduler.IsRunning() {
		return h.send(ctx, msg.Chat.ID, view.SchedulerAlreadyOn)
	}

	if err := h.scheduler.Start(h.baseCtx); err != nil {
		return h.sendHTML(ctx, msg.Chat.ID, view.Error(err))
	}

	return h.send(ctx, msg.Chat.ID, view.SchedulerStarted)
}

func (h *Handler) OnStopScan(ctx *th.Context, msg telego.Message) error {
	if !h.scheduler.IsRunning() {
		return h.send(ctx, msg.Chat.ID, view.SchedulerAlreadyOff)
	}

	h.scheduler.Stop()

	return h.send(ctx, msg.Chat.ID, view.SchedulerStopped)
}

func (h *Handler) OnAddOrigin(ctx *th.Context, msg telego.Message) error {
	args := Args(msg.Text)
	if len(args) == 0 {
		return h.sendHTML(ctx, msg.Chat.ID, fmt.Sprintf(view.OriginsUsage, "/addorigin"))
	}

	valid, invalid := SplitCodes(args)
	_ = h.scheduler.AddOrigins(valid...)

	text := fmt.Sprintf(view.OriginAdded, strings.Join(valid, ", "))
	if len(invalid) > 0 {
		text += fmt.Sprintf(view.InvalidOrigins, strings.Join(invalid, ", "))
	}

	return h.sendHTML(ctx, msg.Chat.ID, text)
}

func (h *Handler) OnRemoveOrigin(ctx *th.Context, msg telego.Message) error {
	args := Args(msg.Text)
	if len(args) == 0 {
		return h.sendHTML(ctx, msg.Chat.ID, fmt.Sprintf(view.OriginsUsage, "/removeorigin"))
	}

	code := strings.ToUpper(args[0])
	if !h.scheduler.RemoveOrigin(code) {
		return h.sendHTML(ctx, msg.Chat.ID, fmt.Sprintf(view.OriginNotListed, code))
	}

	return h.sendHTML(ctx, msg.Chat.ID, fmt.Sprintf(view.OriginRemoved, code))
}

func (h *Handler) OnSetOrigins(ctx *th.Context, msg telego.Message) error {
	args := Args(msg.Text)
	if len(args) == 0 {
		return h.sendHTML(ctx, msg.Chat.ID, fmt.Sprintf(view.OriginsUsage, "/setorigins"))
	}

	valid, invalid := SplitCodes(args)
	if len(valid) == 0 {
		return h.sendHTML(ctx, msg.Chat.ID, fmt.Sprintf(view.InvalidOrigins, strings.Join(invalid, ", ")))
	}

	_ = h.scheduler.SetOrigins(valid)

	text := view.Origins(h.scheduler.Origins())
	if len(invalid) > 0 {
		text += fmt.Sprintf(view.InvalidOrigins, strings.Join(invalid, ", "))
	}

	return h.sendHTML(ctx, msg.Chat.ID, text)
}

func (h *Handler) OnListOrigins(ctx *th.Context, msg telego.Message) error {
	return h.sendHTML(ctx, msg.Chat.ID, view.Origins(h.scheduler.Origins()))
}

func (h *Handler) OnClearOrigins(ctx *th.Context, msg telego.Message) error {
	h.scheduler.ClearOrigins()
	return h.send(ctx, msg.Chat.ID, view.OriginsCleared)
}

func (h *Handler) OnPublish(ctx *th.Context, msg telego.Message) error {
	args := Args(msg.Text)
	if len(args) == 0 {
		return h.sendHTML(ctx, msg.Chat.ID, fmt.Sprintf(view.DealNumberUsage, "/publish"))
	}

	deal, err := h.deals.PublishDeal(ctx, args[0])
	if err != nil {
		return h.sendHTML(ctx, msg.Chat.ID, view.Error(err))
	}

	logger(ctx).Info("deal published from chat", slog.String(logx.FieldDealNumber, deal.DealNumber))

	expires := "n/a"
	if deal.ExpiresAt != nil {
		expires = deal.ExpiresAt.UTC().Format(time.RFC822)
	}

	return h.sendHTML(ctx, msg.Chat.ID, fmt.Sprintf(view.DealPublished, deal.DealNumber, expires))
}

// OnCancel retracts a live deal, typically after the airline corrects the fare.
func (h *Handler) OnCancel(ctx *th.Context, msg telego.Message) error {
	args := Args(msg.Text)
	if len(args) == 0 {
		return h.sendHTML(ctx, msg.Chat.ID, fmt.Sprintf(view.DealNumberUsage, "/cancel"))
	}

	deal, err := h.deals.CancelDeal(ctx, args[0])
	if err != nil {
		return h.sendHTML(ctx, msg.Chat.ID, view.Error(err))
	}

	logger(ctx).Info("deal canceled from chat", slog.String(logx.FieldDealNumber, deal.DealNumber))

	return h.sendHTML(ctx, msg.Chat.ID, fmt.Sprintf(view.DealCanceled, deal.DealNumber))
}

func (h *Handler) OnRecheck(ctx *th.Context, msg telego.Message) error {
	args := Args(msg.Text)
	if len(args) == 0 {
		return h.sendHTML(ctx, msg.Chat.ID, fmt.Sprintf(view.DealNumberUsage, "/recheck"))
	}

	deal, result, err := h.deals.RecheckDeal(ctx, args[0])
	if err != nil {
		return h.sendHTML(ctx, msg.Chat.ID, view.Error(err))
	}

	return h.sendHTML(ctx, msg.Chat.ID, view.Recheck(deal, result))
}

// Args returns the words following the command.
func Args(text string) []string {
	fields := strings.Fields(text)
	if len(fields) < 2 { //nolint:mnd
		return nil
	}

	return fields[1:]
}

// SplitCodes separates valid airport codes (normalized) from invalid input.
// Commas are accepted as separators too.
func SplitCodes(args []string) (valid, invalid []string) {
	for _, arg := range args {
		for _, raw := range strings.Split(arg, ",") {
			if raw == "" {
				continue
			}

			code, err := value.ParseAirportCode(raw)
			if err != nil {
				invalid = append(invalid, raw)
				continue
			}

			valid = append(valid, code)
		}
	}

	return valid, invalid
}

func (h *Handler) sendHTML(ctx *th.Context, chatID int64, text string) error {
	_, err := ctx.Bot().SendMessage(ctx, &telego.SendMessageParams{
		ChatID:    telego.ChatID{ID: chatID},
		Text:      text,
		ParseMode: telego.ModeHTML,
	})
	return err
}

func (h *Handler) send(ctx *th.Context, chatID int64, text string) error {
	_, err := ctx.Bot().SendMessage(ctx, &telego.SendMessageParams{
		ChatID: telego.ChatID{ID: chatID},
		Text:   text,
	})
	return err
}
