package export

import (
	"bytes"
	_ "embed"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

const (
	pdfTableWidth = 180.0 // A4 минус поля 15 мм
	pdfFont       = "DejaVu"
)

// UTF-8 шрифт: имена в ростере не ограничены cp1252.
var (
	//go:embed fonts/DejaVuSansCondensed.ttf
	fontRegular []byte
	//go:embed fonts/DejaVuSansCondensed-Bold.ttf
	fontBold []byte
)

// PDF — заголовок, время генерации и таблица с шапкой.
func PDF(t Table, now time.Time) (File, error) {
	return renderPDF(t, now, true)
}

func renderPDF(t Table, now time.Time, compress bool) (File, error) {
	if t.Empty() {
		return File{}, ErrEmpty
	}
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(compress)
	pdf.SetMargins(15, 15, 15)
	pdf.SetCreator("RUSL Cricket attendance bot", false)
	pdf.AddUTF8FontFromBytes(pdfFont, "", fontRegular)
	pdf.AddUTF8FontFromBytes(pdfFont, "B", fontBold)
	pdf.AddPage()

	pdf.SetFont(pdfFont, "B", 16)
	pdf.CellFormat(0, 10, t.Title, "", 1, "L", false, 0, "")
	pdf.SetFont(pdfFont, "", 10)
	pdf.SetTextColor(90, 90, 90)
	pdf.CellFormat(0, 6, "Generated on: "+now.Format("2006-01-02 15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	widths := pdfWidths(t)

	// шапка
	pdf.SetFont(pdfFont, "B", 11)
	pdf.SetFillColor(10, 31, 68)
	pdf.SetTextColor(255, 255, 255)
	for c, h := range t.Header {
		pdf.CellFormat(widths[c], 8, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	// строки, через одну с заливкой
	pdf.SetFont(pdfFont, "", 10)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFillColor(240, 243, 248)
	for r := range t.Rows {
		fill := r%2 == 1
		for c := range t.Header {
			pdf.CellFormat(widths[c], 7, t.cell(r, c), "1", 0, "L", fill, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return File{}, fmt.Errorf("write pdf: %w", err)
	}
	return File{Name: t.fileName("pdf"), Data: buf.Bytes()}, nil
}

// pdfWidths делит ширину таблицы пропорционально самому длинному тексту колонки.
func pdfWidths(t Table) []float64 {
	weights := make([]float64, len(t.Header))
	var total float64
	for c, h := range t.Header {
		w := visualLen(h)
		for r := range t.Rows {
			if l := visualLen(t.cell(r, c)); l > w {
				w = l
			}
		}
		if w < 6 {
			w = 6
		}
		if w > 40 {
			w = 40
		}
		weights[c] = float64(w)
		total += weights[c]
	}
	for c := range weights {
		weights[c] = weights[c] / total * pdfTableWidth
	}
	return weights
}
