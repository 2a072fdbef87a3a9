package handler

import (
	th "github.com/mymmrac/telego/telegohandler"

	"fareglitch/internal/transport/bot/middleware"
)

func (h *Handler) RegisterRoutes(bh *th.BotHandler, adminID int64) {
	admin := bh.Group(th.AnyMessage())
	admin.Use(middleware.AdminOnly(adminID))

	admin.HandleMessage(h.OnStart, th.CommandEqual("start"))
	admin.HandleMessage(h.OnStart, th.CommandEqual("help"))
	admin.HandleMessage(h.OnStatus, th.CommandEqual("status"))
	admin.HandleMessage(h.OnBudget, th.CommandEqual("budget"))

	admin.HandleMessage(h.OnScan, th.CommandEqual("scan"))
	admin.HandleMessage(h.OnStartScan, th.CommandEqual("startscan"))
	admin.HandleMessage(h.OnStopScan, th.CommandEqual("stopscan"))
	admin.HandleMessage(h.OnScans, th.CommandEqual("scans"))

	admin.HandleMessage(h.OnAddOrigin, th.CommandEqual("addorigin"))
	admin.HandleMessage(h.OnRemoveOrigin, th.CommandEqual("removeorigin"))
	admin.HandleMessage(h.OnSetOrigins, th.CommandEqual("setorigins"))
	admin.HandleMessage(h.OnListOrigins, th.CommandEqual("listorigins"))
	admin.HandleMessage(h.OnClearOrigins, th.CommandEqual("clearorigins"))

	admin.HandleMessage(h.OnPublish, th.CommandEqual("publish"))
	admin.HandleMessage(h.OnCancel, th.CommandEqual("cancel"))
	admin.HandleMessage(h.OnRecheck, th.CommandEqual("recheck"))

	callbacks := bh.Group(th.AnyCallbackQuery())
	callbacks.Use(middleware.AdminOnly(adminID))

	callbacks.HandleCallbackQuery(h.OnScansCallback, th.CallbackDataPrefix(scansPagePrefix))
}
