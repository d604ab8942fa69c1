package export

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf16"

	"github.com/xuri/excelize/v2"

	"github.com/rusl-cricket/attendance-bot/internal/models"
)

func dailyTable() Table {
	return Daily("2025-03-10", []models.StudentAttendanceRecord{
		{StudentID: 1, StudentRegID: "TG/2021/001", StudentName: "Kamal Perera", IsPresent: true},
		{StudentID: 2, StudentRegID: "TG/2021/002", StudentName: "Nimal Silva"},
		{StudentID: 3, StudentRegID: "TG/2021/003", StudentName: "Sunil Fernando", IsPresent: true},
	})
}

func TestDailyShape(t *testing.T) {
	tb := dailyTable()
	if tb.Title != "Attendance Report - 2025-03-10" || tb.FileBase != "cricket_attendance_2025_03_10" {
		t.Fatalf("заголовок/файл: %q %q", tb.Title, tb.FileBase)
	}
	if tb.Rows[1][2] != StatusAbsent || tb.Rows[0][2] != StatusPresent {
		t.Fatalf("статусы: %v", tb.Rows)
	}
}

func TestEmptyProducesNoFile(t *testing.T) {
	empty := Monthly(nil)
	if _, err := XLSX(empty); !errors.Is(err, ErrEmpty) {
		t.Fatalf("xlsx: ожидали ErrEmpty, получили %v", err)
	}
	if _, err := PDF(empty, time.Now()); !errors.Is(err, ErrEmpty) {
		t.Fatalf("pdf: ожидали ErrEmpty, получили %v", err)
	}
}

func TestXLSXRoundTrip(t *testing.T) {
	monthly := Monthly([]models.MonthlyAttendance{
		{Month: "Jan", Present: 40, Absent: 10},
		{Month: "Feb", Present: 35, Absent: 15},
	})
	tables := map[string]Table{
		"daily":   dailyTable(),
		"monthly": monthly,
	}
	for name, tb := range tables {
		t.Run(name, func(t *testing.T) {
			file, err := XLSX(tb)
			if err != nil {
				t.Fatal(err)
			}
			if file.Name != tb.FileBase+".xlsx" {
				t.Fatalf("имя файла: %s", file.Name)
			}
			f, err := excelize.OpenReader(bytes.NewReader(file.Data))
			if err != nil {
				t.Fatal(err)
			}
			defer func() { _ = f.Close() }()

			rows, err := f.GetRows(tb.Sheet)
			if err != nil {
				t.Fatal(err)
			}
			if len(rows) != len(tb.Rows)+1 {
				t.Fatalf("ожидали %d строк, получили %d", len(tb.Rows)+1, len(rows))
			}
			if strings.Join(rows[0], "|") != strings.Join(tb.Header, "|") {
				t.Fatalf("шапка: %v", rows[0])
			}
			for i, row := range tb.Rows {
				if strings.Join(rows[i+1], "|") != strings.Join(row, "|") {
					t.Fatalf("строка %d: %v, ожидали %v", i, rows[i+1], row)
				}
			}

			styleID, err := f.GetCellStyle(tb.Sheet, "A1")
			if err != nil {
				t.Fatal(err)
			}
			st, err := f.GetStyle(styleID)
			if err != nil {
				t.Fatal(err)
			}
			if st.Font == nil || !st.Font.Bold || len(st.Fill.Color) == 0 {
				t.Fatalf("шапка должна быть жирной и с заливкой: %+v", st)
			}
		})
	}
}

func TestPDFRows(t *testing.T) {
	tb := dailyTable()
	now := time.Date(2025, 3, 10, 18, 30, 0, 0, time.UTC)
	file, err := renderPDF(tb, now, false)
	if err != nil {
		t.Fatal(err)
	}
	if file.Name != "cricket_attendance_2025_03_10.pdf" {
		t.Fatalf("имя файла: %s", file.Name)
	}
	body := string(file.Data)
	if !strings.HasPrefix(body, "%PDF-") {
		t.Fatal("это не PDF")
	}
	if !strings.Contains(body, pdfText("Generated on: 2025-03-10 18:30")) {
		t.Fatal("нет времени генерации")
	}

	// колонки в порядке шапки
	last := -1
	for _, h := range tb.Header {
		i := strings.Index(body, pdfText(h))
		if i < 0 || i < last {
			t.Fatalf("колонка %q не на своём месте", h)
		}
		last = i
	}
	// ровно по одной строке на запись
	for _, row := range tb.Rows {
		if n := strings.Count(body, pdfText(row[1])); n != 1 {
			t.Fatalf("%s встречается %d раз", row[1], n)
		}
	}
	if n := strings.Count(body, pdfText(StatusPresent)); n != 2 {
		t.Fatalf("Present: %d", n)
	}
}

func TestPDFKeepsNonLatinNames(t *testing.T) {
	tb := Daily("2025-03-10", []models.StudentAttendanceRecord{
		{StudentID: 1, StudentRegID: "TG/2021/010", StudentName: "Kumar Śrī", IsPresent: true},
		{StudentID: 2, StudentRegID: "TG/2021/011", StudentName: "Иван Петров"},
	})
	file, err := renderPDF(tb, time.Date(2025, 3, 10, 18, 30, 0, 0, time.UTC), false)
	if err != nil {
		t.Fatal(err)
	}
	body := string(file.Data)
	for _, name := range []string{"Kumar Śrī", "Иван Петров"} {
		if !strings.Contains(body, pdfText(name)) {
			t.Fatalf("имя %q потеряно в PDF", name)
		}
	}
	if strings.Contains(body, "(Kumar .r.)") {
		t.Fatal("имя заменено точками")
	}
}

// pdfText — строка так, как её пишет fpdf для UTF-8 шрифта: UTF-16BE в скобках.
func pdfText(s string) string {
	var b strings.Builder
	for _, u := range utf16.Encode([]rune(s)) {
		for _, c := range []byte{byte(u >> 8), byte(u)} {
			switch c {
			case '\\', '(', ')':
				b.WriteByte('\\')
				b.WriteByte(c)
			case '\r':
				b.WriteString(`\r`)
			default:
				b.WriteByte(c)
			}
		}
	}
	return "(" + b.String() + ")"
}

func TestSanitizeFileName(t *testing.T) {
	if got := sanitizeFileName(" monthly: report/2025 "); got != "monthly__report_2025" {
		t.Fatalf("получили %q", got)
	}
}
