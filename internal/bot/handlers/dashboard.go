package handlers

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rusl-cricket/attendance-bot/internal/bot/shared/chat"
	"github.com/rusl-cricket/attendance-bot/internal/models"
	"github.com/rusl-cricket/attendance-bot/internal/tg"
)

const cbDashRefresh = "dash_refresh"

// dashboards — одна точка ветвления по роли.
var dashboards = map[models.Role]func(context.Context, *chat.Chat, *models.User){
	models.RoleStudent:       studentDashboard,
	models.RoleAdmin:         staffDashboard,
	models.RoleCoach:         staffDashboard,
	models.RoleSportsOfficer: staffDashboard,
}

func ShowDashboard(ctx context.Context, c *chat.Chat, u *models.User) {
	if show, ok := dashboards[u.Role]; ok {
		show(ctx, c, u)
		return
	}
	c.HTML(fmt.Sprintf("🏏 Signed in as <b>%s</b>.\nThere is no dashboard for the role %s.",
		escape(u.Email), escape(string(u.Role))), nil)
}

func refreshKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🔄 Refresh", cbDashRefresh),
	))
}

func staffDashboard(ctx context.Context, c *chat.Chat, u *models.User) {
	stats, err := c.API.DashboardStats(ctx)
	if err != nil {
		c.Fail(ctx, err, "Failed to load dashboard")
		return
	}
	c.HTML(renderStaffDashboard(u, stats), refreshKeyboard())
}

func renderStaffDashboard(u *models.User, s *models.DashboardStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🏏 <b>Dashboard</b> · %s\n\n", escape(u.Role.Title()))
	fmt.Fprintf(&b, "📅 Total practice days: <b>%d</b>\n", s.TotalPracticeDays)
	fmt.Fprintf(&b, "👥 Total players: <b>%d</b>\n", s.TotalPlayers)
	fmt.Fprintf(&b, "📈 Average attendance: <b>%s</b>\n", percent(s.AverageAttendance))
	if s.TopAttendee != nil && s.TopAttendee.Name != "" {
		fmt.Fprintf(&b, "🏆 Top attendee: <b>%s</b> (%s)\n", escape(s.TopAttendee.Name), percent(s.TopAttendee.AttendancePercentage))
	} else {
		b.WriteString("🏆 Top attendee: N/A\n")
	}
	b.WriteString("\nUse the menu to manage students, mark attendance or view reports.")
	return b.String()
}

func studentDashboard(ctx context.Context, c *chat.Chat, u *models.User) {
	stats, err := c.API.PersonalStats(ctx)
	if err != nil {
		c.Fail(ctx, err, "Failed to load dashboard")
		return
	}
	recent, err := c.API.RecentAttendance(ctx)
	if err != nil {
		c.Fail(ctx, err, "Failed to load recent practices")
		return
	}
	c.HTML(renderStudentDashboard(stats, recent), refreshKeyboard())
}

func renderStudentDashboard(s *models.StudentStats, recent []models.PracticeAttendance) string {
	var b strings.Builder
	b.WriteString("🏏 <b>My attendance</b>\n\n")
	fmt.Fprintf(&b, "📈 Attendance rate: <b>%s</b>\n", percent(s.AttendancePercentage))
	fmt.Fprintf(&b, "🏅 Sessions attended: <b>%d</b>\n", s.SessionsAttended)
	fmt.Fprintf(&b, "📅 Total sessions: <b>%d</b>\n", s.TotalSessions)
	if len(s.RecentAttendance) > 0 {
		last := s.RecentAttendance[0]
		fmt.Fprintf(&b, "🕒 Last session: %s (%s)\n", presence(last.IsPresent), last.Date)
	} else {
		b.WriteString("🕒 Last session: No sessions yet\n")
	}

	if len(s.RecentAttendance) > 0 {
		b.WriteString("\n<b>My recent attendance</b>\n")
		for _, r := range s.RecentAttendance {
			fmt.Fprintf(&b, "%s — %s\n", r.Date, presence(r.IsPresent))
		}
	}
	if len(recent) > 0 {
		b.WriteString("\n<b>Who attended recent practices</b>\n")
		for _, p := range recent {
			names := "nobody"
			if len(p.PresentStudentNames) > 0 {
				names = escape(strings.Join(p.PresentStudentNames, ", "))
			}
			fmt.Fprintf(&b, "%s: %s\n", p.Date, names)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func handleDashboardCallback(ctx context.Context, c *chat.Chat, u *models.User, cb *tgbotapi.CallbackQuery) {
	tg.Answer(c.Bot, cb.ID, "")
	if cb.Data == cbDashRefresh {
		ShowDashboard(ctx, c, u)
	}
}
