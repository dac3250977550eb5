package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"

	"coverletter-backend/internal/shared/telemetry"
)

// PDF layout in points on an A4 page.
const (
	pdfMargin   = 56.0
	pdfFontSize = 11.0
	pdfLeading  = 16.0
)

// PDF lays text out on a single A4 page using font. Lines are split on "\n"
// and wrapped to the text width; lines past the bottom margin are dropped.
func PDF(text, title string, font *Font) (out []byte, err error) {
	if font == nil {
		return nil, fmt.Errorf("%w: font not configured", ErrRenderFailed)
	}
	if err := font.Covers(text); err != nil {
		return nil, err
	}
	defer func() {
		if rec := recover(); rec != nil {
			out = nil
			err = fmt.Errorf("%w: pdf writer panic: %v", ErrRenderFailed, rec)
		}
	}()

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	pdf.SetTitle(title, true)
	pdf.SetCreator("coverletter-backend", true)
	pdf.AddUTF8FontFromBytes(font.Name, "", font.Bytes())
	pdf.SetFont(font.Name, "", pdfFontSize)
	pdf.AddPage()

	pageW, pageH := pdf.GetPageSize()
	textW := pageW - 2*pdfMargin
	bottom := pageH - pdfMargin

	y := pdfMargin + pdfFontSize
	dropped := 0
	for _, paragraph := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		lines := []string{""}
		if strings.TrimSpace(paragraph) != "" {
			lines = pdf.SplitText(paragraph, textW)
		}
		for _, line := range lines {
			if y > bottom {
				dropped++
				continue
			}
			if line != "" {
				pdf.Text(pdfMargin, y, line)
			}
			y += pdfLeading
		}
	}
	if dropped > 0 {
		telemetry.Warn("render.pdf.truncated", map[string]any{
			"dropped_lines": dropped,
			"title":         title,
		})
	}

	if pdf.Err() {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, pdf.Error())
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	return buf.Bytes(), nil
}
