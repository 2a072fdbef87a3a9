package handler

import (
	"fmt"
	"strings"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"

	"fareglitch/internal/domain/entity"
	"fareglitch/internal/transport/bot/view"
	"fareglitch/pkg/logx"
)

const (
	scansPagePrefix = "scans_page"
	scansPerPage    = 5
	scansMax        = 50
)

func (h *Handler) OnScans(ctx *th.Context, msg telego.Message) error {
	logs, err := h.deals.ListScans(ctx, scansMax)
	if err != nil {
		return h.send(ctx, msg.Chat.ID, view.ScansError)
	}

	if len(logs) == 0 {
		return h.send(ctx, msg.Chat.ID, view.ScansEmpty)
	}

	text, keyboard := ScansPage(logs, 1)

	_, err = ctx.Bot().SendMessage(ctx, &telego.SendMessageParams{
		ChatID:      telego.ChatID{ID: msg.Chat.ID},
		Text:        text,
		ParseMode:   telego.ModeHTML,
		ReplyMarkup: keyboard,
	})
	return err
}

// OnScansCallback pages through scan logs. Data format: "scans_page:<n>".
func (h *Handler) OnScansCallback(ctx *th.Context, query telego.CallbackQuery) error {
	var page int
	if _, err := fmt.Sscanf(query.Data, scansPagePrefix+":%d", &page); err != nil {
		page = 1
	}

	logs, err := h.deals.ListScans(ctx, scansMax)
	if err != nil {
		_ = ctx.Bot().AnswerCallbackQuery(ctx, tu.CallbackQuery(query.ID).
			WithText(view.ScansError).WithShowAlert())
		return err
	}

	text, keyboard := ScansPage(logs, page)

	_, err = ctx.Bot().EditMessageText(ctx, &telego.EditMessageTextParams{
		ChatID:      tu.ID(query.Message.GetChat().ID),
		MessageID:   query.Message.GetMessageID(),
		Text:        text,
		ParseMode:   telego.ModeHTML,
		ReplyMarkup: keyboard,
	})
	if err != nil {
		// Telegram rejects edits that leave the message unchanged.
		logger(ctx).Debug("edit scans page", logx.Error(err))
	}

	return ctx.Bot().AnswerCallbackQuery(ctx, tu.CallbackQuery(query.ID))
}

// ScansPage renders one page of logs, clamping page into range.
func ScansPage(logs []entity.ScanLog, page int) (string, *telego.InlineKeyboardMarkup) {
	totalPages := max((len(logs)+scansPerPage-1)/scansPerPage, 1)
	page = min(max(page, 1), totalPages)

	start := (page - 1) * scansPerPage
	end := min(start+scansPerPage, len(logs))

	var sb strings.Builder

	fmt.Fprintf(&sb, view.ScansPageTemplate, page, totalPages)

	for _, log := range logs[start:end] {
		sb.WriteString(view.ScanLogItem(log))
	}

	return sb.String(), paginationKeyboard(page, totalPages)
}

func paginationKeyboard(page, totalPages int) *telego.InlineKeyboardMarkup {
	var buttons []telego.InlineKeyboardButton

	if page > 1 {
		buttons = append(buttons, tu.InlineKeyboardButton("⬅️").
			WithCallbackData(fmt.Sprintf("%s:%d", scansPagePrefix, page-1)))
	}

	buttons = append(buttons, tu.InlineKeyboardButton(fmt.Sprintf("%d / %d", page, totalPages)).
		WithCallbackData("noop"))

	if page < totalPages {
		buttons = append(buttons, tu.InlineKeyboardButton("➡️").
			WithCallbackData(fmt.Sprintf("%s:%d", scansPagePrefix, page+1)))
	}

	return tu.InlineKeyboard(tu.InlineKeyboardRow(buttons...))
}
