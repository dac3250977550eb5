package render

import (
	"bytes"
	"fmt"
	"image/color"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
)

// Preview thumbnail geometry, A4 aspect ratio.
const (
	previewWidth    = 420
	previewHeight   = 594
	previewMargin   = 32.0
	previewFontSize = 9.0
	previewLeading  = 1.5
)

// PreviewPNG rasterizes the first part of the letter into a PNG thumbnail.
func PreviewPNG(text string, font *Font) ([]byte, error) {
	if font == nil {
		return nil, fmt.Errorf("%w: font not configured", ErrRenderFailed)
	}
	if err := font.Covers(text); err != nil {
		return nil, err
	}
	parsed, err := truetype.Parse(font.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%w: preview font: %v", ErrRenderFailed, err)
	}
	face := truetype.NewFace(parsed, &truetype.Options{Size: previewFontSize})
	defer face.Close()

	dc := gg.NewContext(previewWidth, previewHeight)
	dc.SetColor(color.White)
	dc.Clear()
	dc.SetFontFace(face)
	dc.SetColor(color.NRGBA{R: 0x11, G: 0x11, B: 0x11, A: 0xFF})

	maxW := float64(previewWidth) - 2*previewMargin
	lineH := dc.FontHeight() * previewLeading
	y := previewMargin + dc.FontHeight()
	bottom := float64(previewHeight) - previewMargin

draw:
	for _, paragraph := range strings.Split(text, "\n") {
		lines := []string{""}
		if strings.TrimSpace(paragraph) != "" {
			lines = dc.WordWrap(paragraph, maxW)
		}
		for _, line := range lines {
			if y > bottom {
				break draw
			}
			dc.DrawString(line, previewMargin, y)
			y += lineH
		}
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("%w: encode preview: %v", ErrRenderFailed, err)
	}
	return buf.Bytes(), nil
}
