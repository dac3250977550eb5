package render

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/image/font/sfnt"
)

//go:generate sh -c "python3 fonts/build.py $(go env GOMODCACHE)/golang.org/x/image@v0.33.0/font/gofont/ttfs/Go-Regular.ttf fonts/GoHangul-Regular.ttf"

const defaultFontName = "GoHangul"

// Go Regular with Hangul syllables and compatibility jamo appended.
//
//go:embed fonts/GoHangul-Regular.ttf
var defaultFontTTF []byte

// Font is an embeddable TrueType font shared by the PDF writer and the
// preview rasterizer.
type Font struct {
	Name string
	data []byte
	face *sfnt.Font
}

// DefaultFont returns the bundled font. It covers the Go Regular repertoire
// plus Hangul syllables U+AC00-U+D7A3 and compatibility jamo U+3131-U+3163.
func DefaultFont() (*Font, error) {
	return ParseFont(defaultFontName, defaultFontTTF)
}

// LoadFont reads a TrueType font from disk.
func LoadFont(path string) (*Font, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read font: %w", err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return ParseFont(name, data)
}

// ParseFont validates font bytes.
func ParseFont(name string, data []byte) (*Font, error) {
	face, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", name, err)
	}
	if strings.TrimSpace(name) == "" {
		name = defaultFontName
	}
	return &Font{Name: name, data: data, face: face}, nil
}

// Bytes returns the raw font file.
func (f *Font) Bytes() []byte { return f.data }

// Covers reports the first rune the font has no glyph for. Whitespace and
// control characters are laid out by the writer and are not checked.
func (f *Font) Covers(text string) error {
	var buf sfnt.Buffer
	for _, r := range text {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			continue
		}
		idx, err := f.face.GlyphIndex(&buf, r)
		if err != nil {
			return fmt.Errorf("%w: glyph lookup %U: %v", ErrRenderFailed, r, err)
		}
		if idx == 0 {
			return fmt.Errorf("%w: font %s has no glyph for %q (%U)", ErrRenderFailed, f.Name, r, r)
		}
	}
	return nil
}
