package view

import (
	"fmt"
	"html"
	"strings"
	"time"

	"fareglitch/internal/domain/entity"
	"fareglitch/internal/domain/service/budget"
	"fareglitch/internal/domain/service/pipeline"
	"fareglitch/internal/domain/service/verify"
	"fareglitch/internal/worker"
)

const (
	StartMessage = `✈️ <b>Fare anomaly desk</b>

/status scheduler and last scan
/budget provider call budget
/scan <code>JFK LAX</code> scan now (rotation batch without args)
/startscan, /stopscan control the schedule
/listorigins, /addorigin, /removeorigin, /setorigins, /clearorigins
/scans recent scan logs
/publish <code>VD001</code>, /cancel <code>MF001</code> deal lifecycle
/recheck <code>MF001</code> re-price a live deal`

	ScanStarted         = "🔍 Scan started: %s"
	SchedulerStarted    = "🟢 Scheduler started"
	SchedulerStopped    = "🔴 Scheduler stopped"
	SchedulerAlreadyOn  = "Scheduler is already running"
	SchedulerAlreadyOff = "Scheduler is not running"

	OriginsUsage      = "❌ Usage: %s <code>JFK</code> <code>LAX</code> ..."
	OriginAdded       = "✅ Added: %s"
	OriginRemoved     = "✅ Removed <code>%s</code>"
	OriginNotListed   = "⚠️ <code>%s</code> is not in the rotation"
	OriginsCleared    = "✅ Rotation cleared, scheduled scans are paused until origins are added"
	OriginsEmpty      = "📋 <b>Rotation is empty</b>\n\nAdd origins with /addorigin <code>JFK</code>"
	InvalidOrigins    = "\n⚠️ Skipped invalid codes: %s"
	DealNumberUsage   = "❌ Usage: %s <code>MF001</code>"
	DealCanceled      = "🚫 Deal <code>%s</code> canceled"
	DealStillHolds    = "✅ Deal <code>%s</code> still bookable at %s"
	DealGone          = "🚫 Deal <code>%s</code> no longer bookable (%s), pulled from the feed"
	DealPublished     = "📣 Deal <code>%s</code> published, expires %s"
	ScansEmpty        = "No scans recorded yet"
	ScansError        = "❌ Failed to load scan logs"
	ScansPageTemplate = "🗂 <b>Recent scans</b> (page %d/%d)\n\n"
)

func Error(err error) string {
	return "❌ " + html.EscapeString(err.Error())
}

func onOff(b bool, on, off string) string {
	if b {
		return on
	}
	return off
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "n/a"
	}
	return t.UTC().Format("Jan 2 15:04 MST")
}

func Status(s worker.Status) string {
	var sb strings.Builder

	sb.WriteString("📊 <b>Status</b>\n\n")
	fmt.Fprintf(&sb, "🗓 <b>Scheduler:</b> %s\n", onOff(s.Running, "🟢 running", "🔴 stopped"))
	fmt.Fprintf(&sb, "🔍 <b>Scan:</b> %s\n", onOff(s.Scanning, "in progress", "idle"))
	fmt.Fprintf(&sb, "⏭ <b>Next run:</b> %s\n", formatTime(s.NextRunAt))
	fmt.Fprintf(&sb, "🛫 <b>Origins:</b> %d, next batch %s\n", len(s.Origins), codes(s.NextBatch))

	if s.LastScan != nil {
		sb.WriteString("\n")
		sb.WriteString(ScanResult(*s.LastScan))
	}

	return sb.String()
}

func ScanResult(r pipeline.ScanResult) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "🧾 <b>Scan</b> <code>%s</code> %s\n", r.ScanID, r.Status())
	fmt.Fprintf(&sb, "Origins: %s\n", codes(r.Origins))
	fmt.Fprintf(
		&sb,
		"Routes %d · anomalies %d · validated %d · published %d · errors %d · calls %d\n",
		r.RoutesChecked, r.AnomaliesFound, r.DealsValidated, r.DealsPublished, r.Errors, r.APICalls,
	)

	for _, d := range r.Deals {
		fmt.Fprintf(
			&sb,
			"• <code>%s</code> %s %s %s → %s (-%s%%)\n",
			d.DealNumber,
			d.Route.Description(),
			d.Status,
			d.NormalPrice.StringFixed(0),
			d.MistakePrice.StringFixed(0),
			d.SavingsPct.Shift(2).StringFixed(0), //nolint:mnd
		)
	}

	return sb.String()
}

func Budget(state budget.State, limits budget.Limits) string {
	return fmt.Sprintf(
		"💸 <b>Provider budget</b>\n\nToday (%s): %d / %s\nMonth (%s): %d / %s",
		state.DayMarker, state.CallsToday, limit(limits.Daily),
		state.MonthMarker, state.CallsThisMonth, limit(limits.Monthly),
	)
}

func limit(n int) string {
	if n <= 0 {
		return "∞"
	}
	return fmt.Sprint(n)
}

func Origins(origins []string) string {
	if len(origins) == 0 {
		return OriginsEmpty
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, "📋 <b>Rotation (%d):</b>\n\n", len(origins))

	for i, o := range origins {
		fmt.Fprintf(&sb, "%d. <code>%s</code>\n", i+1, o)
	}

	return sb.String()
}

func Recheck(deal entity.Deal, result verify.RecheckResult) string {
	live := "no live offer"
	if result.Offer != nil {
		live = result.Offer.Price.StringFixed(2) + " " + result.Offer.Currency.String()
	}

	if result.Holds {
		return fmt.Sprintf(DealStillHolds, deal.DealNumber, live)
	}

	return fmt.Sprintf(DealGone, deal.DealNumber, live)
}

func ScanLogItem(log entity.ScanLog) string {
	return fmt.Sprintf(
		"<code>%s</code> %s · %s · %s · deals %d/%d · errors %d\n",
		shortID(log.ID),
		log.StartedAt.UTC().Format("Jan 2 15:04"),
		log.Status,
		codes(log.Origins),
		log.DealsPublished,
		log.DealsValidated,
		log.Errors,
	)
}

func shortID(id string) string {
	const n = 8
	if len(id) > n {
		return id[:n]
	}
	return id
}

func codes(c []string) string {
	if len(c) == 0 {
		return "-"
	}
	return strings.Join(c, ",")
}
