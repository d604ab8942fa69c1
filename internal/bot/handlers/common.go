package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rusl-cricket/attendance-bot/internal/bot/menu"
	"github.com/rusl-cricket/attendance-bot/internal/bot/shared/chat"
	"github.com/rusl-cricket/attendance-bot/internal/models"
)

// pickerDays — сколько дней назад (включая сегодня) показывает выбор даты.
const pickerDays = 14

// Open — единая точка входа в экран из главного меню.
// Права роли проверяет вызывающий (menu.Allowed).
func Open(ctx context.Context, c *chat.Chat, u *models.User, s menu.Screen) {
	// переход по меню прерывает незаконченный ввод на других экранах
	studentForms.Delete(c.ID)
	switch s {
	case menu.Dashboard:
		ShowDashboard(ctx, c, u)
	case menu.Students:
		OpenStudents(ctx, c)
	case menu.Attendance:
		OpenAttendance(ctx, c)
	case menu.Reports:
		OpenReports(ctx, c)
	}
}

// Telegram не принимает сообщения длиннее 4096 символов и клавиатуры больше ~100 кнопок.
const (
	maxListLines   = 50
	maxListButtons = 90
)

// ScreenOf — экран, которому принадлежит колбэк ("" — не наш).
func ScreenOf(data string) menu.Screen {
	switch {
	case strings.HasPrefix(data, "stu_"):
		return menu.Students
	case strings.HasPrefix(data, "att_"):
		return menu.Attendance
	case strings.HasPrefix(data, "rep_"):
		return menu.Reports
	case strings.HasPrefix(data, "dash_"):
		return menu.Dashboard
	}
	return ""
}

// HandleText — свободный ввод на экранах (формы, поиск, дата). false — текст не наш.
func HandleText(ctx context.Context, c *chat.Chat, u *models.User, msg *tgbotapi.Message) bool {
	if studentForms.Get(c.ID) != nil {
		handleStudentFormText(ctx, c, msg)
		return true
	}
	if st := studentStates.Get(c.ID); st != nil && st.AwaitSearch {
		handleStudentSearch(ctx, c, st, msg.Text)
		return true
	}
	if st := attendanceStates.Get(c.ID); st != nil && st.AwaitDate {
		if date, ok := parseDate(msg.Text, c.Loc); ok {
			selectAttendanceDate(ctx, c, st, date)
			return true
		}
	}
	if st := reportStates.Get(c.ID); st != nil && st.AwaitDate {
		if date, ok := parseDate(msg.Text, c.Loc); ok {
			selectReportDate(ctx, c, st, date)
			return true
		}
	}
	return false
}

// HandleCallback раздаёт колбэки экранам.
func HandleCallback(ctx context.Context, c *chat.Chat, u *models.User, cb *tgbotapi.CallbackQuery) {
	switch ScreenOf(cb.Data) {
	case menu.Students:
		handleStudentsCallback(ctx, c, cb)
	case menu.Attendance:
		handleAttendanceCallback(ctx, c, cb)
	case menu.Reports:
		handleReportsCallback(ctx, c, cb)
	case menu.Dashboard:
		handleDashboardCallback(ctx, c, u, cb)
	}
}

// datePicker — сегодня и предыдущие дни, по две кнопки в ряд. Будущих дат нет.
func datePicker(prefix string, today time.Time, extra ...[]tgbotapi.InlineKeyboardButton) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for i := 0; i < pickerDays; i++ {
		d := today.AddDate(0, 0, -i)
		label := d.Format("Mon 02 Jan")
		if i == 0 {
			label = "Today · " + d.Format("02 Jan")
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, prefix+d.Format(models.DateLayout)))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, extra...)
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// parseDate принимает YYYY-MM-DD.
func parseDate(s string, loc *time.Location) (string, bool) {
	if loc == nil {
		loc = time.Local
	}
	d, err := time.ParseInLocation(models.DateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return "", false
	}
	return d.Format(models.DateLayout), true
}

func parseID(data, prefix string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimPrefix(data, prefix), 10, 64)
	return id, err == nil && id > 0
}

func escape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}

func percent(v float64) string { return fmt.Sprintf("%.1f%%", v) }

func presence(p bool) string {
	if p {
		return "✅ Present"
	}
	return "❌ Absent"
}
