package reports

import (
	"fmt"
	"strings"

	"github.com/rusl-cricket/attendance-bot/internal/models"
)

const (
	barFull  = "█"
	barEmpty = "░"
)

// BarChart — текстовая столбчатая диаграмма present/absent по месяцам.
// Каждая строка: месяц, полоса присутствий, полоса отсутствий, числа.
func BarChart(rows []models.MonthlyAttendance, width int) string {
	if len(rows) == 0 {
		return ""
	}
	if width <= 0 {
		width = 20
	}
	var maxTotal int64
	monthW := 0
	for _, m := range rows {
		if t := m.Present + m.Absent; t > maxTotal {
			maxTotal = t
		}
		if len(m.Month) > monthW {
			monthW = len(m.Month)
		}
	}
	var b strings.Builder
	for _, m := range rows {
		p, a := scale(m.Present, maxTotal, width), scale(m.Absent, maxTotal, width)
		fmt.Fprintf(&b, "%-*s %s%s %d/%d\n", monthW, m.Month,
			strings.Repeat(barFull, p), strings.Repeat(barEmpty, a), m.Present, m.Absent)
	}
	return strings.TrimRight(b.String(), "\n")
}

// PieChart — доля средней посещаемости против отсутствий одной полосой.
func PieChart(average float64, width int) string {
	if width <= 0 {
		width = 20
	}
	if average < 0 {
		average = 0
	}
	if average > 100 {
		average = 100
	}
	full := int(average/100*float64(width) + 0.5)
	return fmt.Sprintf("%s%s\nAttendance %.1f%% · Absence %.1f%%",
		strings.Repeat(barFull, full), strings.Repeat(barEmpty, width-full), average, 100-average)
}

func scale(v, maxTotal int64, width int) int {
	if maxTotal <= 0 || v <= 0 {
		return 0
	}
	n := int(v * int64(width) / maxTotal)
	if n == 0 {
		n = 1
	}
	return n
}
