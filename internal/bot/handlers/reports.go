package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rusl-cricket/attendance-bot/internal/bot/shared/chat"
	"github.com/rusl-cricket/attendance-bot/internal/bot/shared/fsmutil"
	"github.com/rusl-cricket/attendance-bot/internal/export"
	"github.com/rusl-cricket/attendance-bot/internal/metrics"
	"github.com/rusl-cricket/attendance-bot/internal/models"
	"github.com/rusl-cricket/attendance-bot/internal/reports"
	"github.com/rusl-cricket/attendance-bot/internal/tg"
)

const (
	cbRepDate     = "rep_d:"
	cbRepExport   = "rep_x:"
	cbRepPick     = "rep_pick"
	cbRepOverview = "rep_overview"
	cbRepRefresh  = "rep_refresh"

	chartWidth = 16
)

type reportState struct {
	Report    *reports.Report
	MsgID     int
	AwaitDate bool
}

var reportStates = fsmutil.NewStates[reportState]()

func newReport(c *chat.Chat) *reports.Report {
	opts := []reports.Option{reports.WithLocation(c.Loc)}
	if c.Now != nil {
		opts = append(opts, reports.WithClock(c.Now))
	}
	return reports.New(c.API, opts...)
}

// OpenReports — сводка: статистика, помесячная диаграмма, доля посещаемости.
func OpenReports(ctx context.Context, c *chat.Chat) {
	st := &reportState{Report: newReport(c)}
	reportStates.Set(c.ID, st)
	st.MsgID = c.HTML("⏳ Loading reports…", nil)
	loadOverview(ctx, c, st)
}

func loadOverview(ctx context.Context, c *chat.Chat, st *reportState) {
	if err := st.Report.LoadOverview(ctx); err != nil && c.Fail(ctx, err, "Failed to load report data") {
		return
	}
	st.Report.ClearDate()
	renderOverview(c, st)
}

func exportRow() []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬇️ PDF", cbRepExport+"pdf"),
		tgbotapi.NewInlineKeyboardButtonData("⬇️ Excel", cbRepExport+"xlsx"),
	)
}

func renderOverview(c *chat.Chat, st *reportState) {
	stats, monthly := st.Report.Overview()
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("📅 Daily report", cbRepPick)),
		exportRow(),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🔄 Refresh", cbRepRefresh)),
	)
	st.MsgID = c.Edit(st.MsgID, renderOverviewText(stats, monthly), &kb)
}

func renderOverviewText(stats *models.DashboardStats, monthly []models.MonthlyAttendance) string {
	var b strings.Builder
	b.WriteString("📈 <b>Attendance reports</b>\n")
	if stats == nil {
		b.WriteString("\nNo report data loaded.")
		return b.String()
	}
	fmt.Fprintf(&b, "\nPractice days: <b>%d</b> · Players: <b>%d</b>\n", stats.TotalPracticeDays, stats.TotalPlayers)

	b.WriteString("\n<b>Monthly attendance</b> (█ present, ░ absent)\n")
	if chart := reports.BarChart(monthly, chartWidth); chart != "" {
		b.WriteString("<pre>" + escape(chart) + "</pre>\n")
	} else {
		b.WriteString("No monthly data yet.\n")
	}

	b.WriteString("\n<b>Average attendance</b>\n")
	b.WriteString("<pre>" + escape(reports.PieChart(stats.AverageAttendance, chartWidth)) + "</pre>")
	return b.String()
}

func renderDailyText(d reports.Daily) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📅 <b>Daily report · %s</b>\n\n", d.Date)
	switch d.State {
	case reports.DailyLoading:
		b.WriteString("⏳ Loading…")
	case reports.DailyNotFound:
		b.WriteString("🚫 No practice session found for this date.")
	case reports.DailyFailed:
		b.WriteString("⚠️ Failed to load daily attendance.")
	case reports.DailyLoaded:
		fmt.Fprintf(&b, "Present: <b>%d/%d</b>\n\n", d.Present, len(d.Records))
		if len(d.Records) == 0 {
			b.WriteString("No attendance was recorded for this session.")
		}
		for i, r := range d.Records {
			if i == maxListLines {
				fmt.Fprintf(&b, "… and %d more, export the report for the full list\n", len(d.Records)-maxListLines)
				break
			}
			fmt.Fprintf(&b, "%s %s · %s\n", presenceMark(r.IsPresent),
				escape(fsmutil.Truncate(r.StudentRegID, 20)), escape(fsmutil.Truncate(r.StudentName, 40)))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func presenceMark(p bool) string {
	if p {
		return "✅"
	}
	return "❌"
}

func selectReportDate(ctx context.Context, c *chat.Chat, st *reportState, date string) {
	st.AwaitDate = false
	st.MsgID = c.Edit(st.MsgID, "⏳ Loading attendance for "+date+"…", nil)
	err := st.Report.SelectDate(ctx, date)
	if errors.Is(err, reports.ErrStale) {
		return
	}
	if err != nil && c.Fail(ctx, err, "Failed to load daily attendance") {
		return
	}
	d := st.Report.Daily()
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Overview", cbRepOverview),
			tgbotapi.NewInlineKeyboardButtonData("📅 Other date", cbRepPick),
		),
		exportRow(),
	)
	st.MsgID = c.Edit(st.MsgID, renderDailyText(d), &kb)
}

func handleReportsCallback(ctx context.Context, c *chat.Chat, cb *tgbotapi.CallbackQuery) {
	data := cb.Data
	st := reportStates.Get(c.ID)
	if st == nil {
		tg.Answer(c.Bot, cb.ID, "This screen has expired")
		OpenReports(ctx, c)
		return
	}
	if cb.Message != nil {
		st.MsgID = cb.Message.MessageID
	}

	switch {
	case strings.HasPrefix(data, cbRepExport):
		exportReport(ctx, c, st, cb.ID, strings.TrimPrefix(data, cbRepExport))

	case strings.HasPrefix(data, cbRepDate):
		tg.Answer(c.Bot, cb.ID, "")
		if date, ok := parseDate(strings.TrimPrefix(data, cbRepDate), c.Loc); ok {
			selectReportDate(ctx, c, st, date)
		}

	case data == cbRepPick:
		tg.Answer(c.Bot, cb.ID, "")
		st.AwaitDate = true
		kb := datePicker(cbRepDate, c.Today(),
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("⬅️ Overview", cbRepOverview)))
		st.MsgID = c.Edit(st.MsgID, "Pick a date or type it as YYYY-MM-DD:", &kb)

	case data == cbRepOverview:
		tg.Answer(c.Bot, cb.ID, "")
		st.AwaitDate = false
		st.Report.ClearDate()
		renderOverview(c, st)

	case data == cbRepRefresh:
		tg.Answer(c.Bot, cb.ID, "")
		loadOverview(ctx, c, st)

	default:
		tg.Answer(c.Bot, cb.ID, "")
	}
}

// exportReport — выгрузка того, что уже загружено. Без данных ничего не делает.
func exportReport(ctx context.Context, c *chat.Chat, st *reportState, callbackID, format string) {
	t := st.Report.Table()
	if t.Empty() {
		tg.Answer(c.Bot, callbackID, "Nothing to export yet")
		return
	}
	if !fsmutil.SetPending(c.ID, "export") {
		tg.Answer(c.Bot, callbackID, "Export is already in progress")
		return
	}
	defer fsmutil.ClearPending(c.ID, "export")
	tg.Answer(c.Bot, callbackID, "")

	var (
		file    export.File
		err     error
		done    string
		failure string
	)
	switch format {
	case "pdf":
		file, err = export.PDF(t, c.Today())
		done, failure = "📄 PDF report downloaded", "Failed to generate PDF"
	case "xlsx":
		file, err = export.XLSX(t)
		done, failure = "📊 Excel export downloaded", "Failed to generate Excel file"
	default:
		return
	}
	if err == nil {
		err = tg.Document(c.Bot, c.ID, file.Name, file.Data, done)
	}
	if err != nil {
		c.Fail(ctx, err, failure)
		return
	}
	metrics.Exports.WithLabelValues(format).Inc()
}
