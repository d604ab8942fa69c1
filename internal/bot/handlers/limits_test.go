package handlers

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rusl-cricket/attendance-bot/internal/attendance"
	"github.com/rusl-cricket/attendance-bot/internal/models"
	"github.com/rusl-cricket/attendance-bot/internal/reports"
)

const bigRoster = 150

func buttons(kb tgbotapi.InlineKeyboardMarkup) int {
	n := 0
	for _, row := range kb.InlineKeyboard {
		n += len(row)
	}
	return n
}

func manyStudents() []models.Student {
	out := make([]models.Student, bigRoster)
	for i := range out {
		out[i] = models.Student{
			ID:        int64(i + 1),
			StudentID: fmt.Sprintf("TG/2021/%03d", i+1),
			Name:      "Student with a fairly long name " + strings.Repeat("x", 30),
		}
	}
	return out
}

func TestDailyTextFitsMessage(t *testing.T) {
	d := reports.Daily{State: reports.DailyLoaded, Date: "2025-03-10"}
	for i, s := range manyStudents() {
		d.Records = append(d.Records, models.StudentAttendanceRecord{
			StudentID: s.ID, StudentRegID: s.StudentID, StudentName: s.Name, IsPresent: i%2 == 0,
		})
	}
	text := renderDailyText(d)
	if n := utf8.RuneCountInString(text); n > 4096 {
		t.Fatalf("сообщение длиннее лимита Telegram: %d", n)
	}
	if !strings.Contains(text, fmt.Sprintf("… and %d more", bigRoster-maxListLines)) {
		t.Fatal("нет строки об оставшихся записях")
	}
}

func TestSheetKeyboardCapped(t *testing.T) {
	v := attendance.View{State: attendance.Editing, Date: "2025-03-10"}
	for _, s := range manyStudents() {
		v.Rows = append(v.Rows, attendance.Row{Student: s})
	}
	text, kb := sheetMessage(v, "")
	if n := buttons(kb); n > 100 {
		t.Fatalf("кнопок %d, Telegram не примет", n)
	}
	if !strings.Contains(text, fmt.Sprintf("for the other %d", bigRoster-maxListButtons)) {
		t.Fatalf("нет подсказки про остальных: %q", text)
	}
	last := kb.InlineKeyboard[len(kb.InlineKeyboard)-1]
	if *last[0].CallbackData != cbAttSave {
		t.Fatal("кнопка сохранения должна остаться")
	}
}

func TestStudentListKeyboardCapped(t *testing.T) {
	st := &studentsState{List: manyStudents()}
	if n := buttons(studentListKeyboard(st)); n > 100 {
		t.Fatalf("кнопок %d", n)
	}
	if !strings.Contains(renderStudentList(st), "use 🔍 Search") {
		t.Fatal("нет подсказки про поиск")
	}
}
