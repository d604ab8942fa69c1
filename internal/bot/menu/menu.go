package menu

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rusl-cricket/attendance-bot/internal/models"
)

type Screen string

const (
	Dashboard  Screen = "dashboard"
	Students   Screen = "students"
	Attendance Screen = "attendance"
	Reports    Screen = "reports"
	Logout     Screen = "logout"
)

// Item — кнопка главного меню.
type Item struct {
	Screen Screen
	Label  string
}

var (
	itemDashboard  = Item{Dashboard, "📊 Dashboard"}
	itemStudents   = Item{Students, "👥 Students"}
	itemAttendance = Item{Attendance, "✅ Attendance"}
	itemReports    = Item{Reports, "📈 Reports"}
	itemLogout     = Item{Logout, "🚪 Logout"}

	all = []Item{itemDashboard, itemStudents, itemAttendance, itemReports, itemLogout}
)

// Items — пункты меню роли. Неизвестная роль видит только Dashboard и Logout.
func Items(role models.Role) []Item {
	if role.IsStaff() {
		return []Item{itemDashboard, itemStudents, itemAttendance, itemReports, itemLogout}
	}
	return []Item{itemDashboard, itemLogout}
}

// Allowed — можно ли роли открыть экран.
func Allowed(role models.Role, s Screen) bool {
	for _, it := range Items(role) {
		if it.Screen == s {
			return true
		}
	}
	return false
}

// ScreenByLabel — экран по тексту кнопки (то, что пришло из reply-клавиатуры).
func ScreenByLabel(text string) (Screen, bool) {
	for _, it := range all {
		if it.Label == text {
			return it.Screen, true
		}
	}
	return "", false
}

// Label — подпись кнопки экрана.
func Label(s Screen) string {
	for _, it := range all {
		if it.Screen == s {
			return it.Label
		}
	}
	return string(s)
}

// GetRoleMenu возвращает меню в зависимости от роли пользователя.
func GetRoleMenu(role models.Role) tgbotapi.ReplyKeyboardMarkup {
	items := Items(role)
	var rows [][]tgbotapi.KeyboardButton
	for i := 0; i < len(items); i += 2 {
		row := []tgbotapi.KeyboardButton{tgbotapi.NewKeyboardButton(items[i].Label)}
		if i+1 < len(items) {
			row = append(row, tgbotapi.NewKeyboardButton(items[i+1].Label))
		}
		rows = append(rows, row)
	}
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	return kb
}
