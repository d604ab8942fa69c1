package export

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// HeaderFill — фирменный тёмно-синий цвет шапки.
const HeaderFill = "#0A1F44"

// XLSX — одна страница: шапка в первой строке, по строке на запись.
func XLSX(t Table) (File, error) {
	if t.Empty() {
		return File{}, ErrEmpty
	}
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := t.Sheet
	if sheet == "" {
		sheet = "Report"
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return File{}, fmt.Errorf("rename sheet: %w", err)
	}

	for c, h := range t.Header {
		cell := fmt.Sprintf("%s1", columnName(c+1))
		if err := f.SetCellStr(sheet, cell, h); err != nil {
			return File{}, fmt.Errorf("set cell %s: %w", cell, err)
		}
	}
	for r := range t.Rows {
		for c := range t.Header {
			cell := fmt.Sprintf("%s%d", columnName(c+1), r+2)
			v := t.cell(r, c)
			var err error
			if n, perr := strconv.ParseInt(v, 10, 64); t.Numeric[c] && perr == nil {
				err = f.SetCellValue(sheet, cell, n)
			} else {
				err = f.SetCellStr(sheet, cell, v)
			}
			if err != nil {
				return File{}, fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
	}

	if err := applyHeaderStyle(f, sheet, len(t.Header)); err != nil {
		return File{}, err
	}
	applyWidths(f, sheet, t)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return File{}, fmt.Errorf("write xlsx: %w", err)
	}
	return File{Name: t.fileName("xlsx"), Data: buf.Bytes()}, nil
}

// applyHeaderStyle: жирная белая шапка на тёмной заливке + автофильтр по первой строке.
func applyHeaderStyle(f *excelize.File, sheet string, cols int) error {
	if cols == 0 {
		return nil
	}
	style, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{HeaderFill}},
		Alignment: &excelize.Alignment{Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	end := columnName(cols) + "1"
	if err := f.SetCellStyle(sheet, "A1", end, style); err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	_ = f.AutoFilter(sheet, "A1:"+end, nil)
	return nil
}

// applyWidths — эвристическая ширина колонок по длине текста.
func applyWidths(f *excelize.File, sheet string, t Table) {
	for c := range t.Header {
		w := float64(visualLen(t.Header[c]))*1.1 + 1.5
		for r := range t.Rows {
			if l := float64(visualLen(t.cell(r, c))) * 1.1; l > w {
				w = l
			}
		}
		if w < 12 {
			w = 12
		}
		if w > 60 {
			w = 60
		}
		col := columnName(c + 1)
		_ = f.SetColWidth(sheet, col, col, w)
	}
}
