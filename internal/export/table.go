// Package export — выгрузка уже загруженного отчёта в XLSX и PDF. Сеть не трогает.
package export

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/rusl-cricket/attendance-bot/internal/models"
)

// ErrEmpty — нечего выгружать: файл не создаётся.
var ErrEmpty = errors.New("export: no rows loaded")

const (
	StatusPresent = "Present"
	StatusAbsent  = "Absent"
)

// Table — форма отчёта, общая для обоих форматов.
type Table struct {
	Title    string
	Sheet    string
	FileBase string
	Header   []string
	Rows     [][]string

	// Numeric — колонки, которые в XLSX пишем числами.
	Numeric map[int]bool
}

// File — готовый документ для отправки в чат.
type File struct {
	Name string
	Data []byte
}

// Daily — состав тренировки на дату со статусами.
func Daily(date string, records []models.StudentAttendanceRecord) Table {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		status := StatusAbsent
		if r.IsPresent {
			status = StatusPresent
		}
		rows = append(rows, []string{r.StudentRegID, r.StudentName, status})
	}
	return Table{
		Title:    "Attendance Report - " + date,
		Sheet:    "Attendance",
		FileBase: "cricket_attendance_" + strings.ReplaceAll(date, "-", "_"),
		Header:   []string{"Reg ID", "Name", "Status"},
		Rows:     rows,
	}
}

// Monthly — помесячная сводка присутствий.
func Monthly(data []models.MonthlyAttendance) Table {
	rows := make([][]string, 0, len(data))
	for _, m := range data {
		rows = append(rows, []string{
			m.Month,
			strconv.FormatInt(m.Present, 10),
			strconv.FormatInt(m.Absent, 10),
		})
	}
	return Table{
		Title:    "RUSL Cricket Monthly Attendance Report",
		Sheet:    "Monthly Summary",
		FileBase: "cricket_monthly_summary",
		Header:   []string{"Month", "Present", "Absent"},
		Rows:     rows,
		Numeric:  map[int]bool{1: true, 2: true},
	}
}

func (t Table) Empty() bool { return len(t.Rows) == 0 }

func (t Table) fileName(ext string) string {
	base := sanitizeFileName(t.FileBase)
	if base == "" {
		base = "report"
	}
	return base + "." + ext
}

// cell — значение строки r в колонке c; короткие строки дополняются пустыми ячейками.
func (t Table) cell(r, c int) string {
	row := t.Rows[r]
	if c < len(row) {
		return row[c]
	}
	return ""
}

func columnName(n int) string {
	// 1 -> A; 27 -> AA
	s := ""
	for n > 0 {
		n--
		s = string(rune('A'+(n%26))) + s
		n /= 26
	}
	return s
}

// visualLen — ширина текста в символах, таб считаем за 4.
func visualLen(s string) int {
	n := 0
	for _, r := range s {
		if r == '\t' {
			n += 4
		} else {
			n++
		}
	}
	return n
}

var invalidFileRe = regexp.MustCompile(`[\\/:*?"<>|]+`)

func sanitizeFileName(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Join(strings.Fields(s), "_")
	return invalidFileRe.ReplaceAllString(s, "_")
}
