package render

// Renderer holds the fonts used for every export.
type Renderer struct {
	Font           *Font
	DOCXFontFamily string
}

// NewRenderer loads fontPath when set and falls back to the bundled font.
func NewRenderer(fontPath, docxFontFamily string) (*Renderer, error) {
	var (
		font *Font
		err  error
	)
	if fontPath != "" {
		font, err = LoadFont(fontPath)
	} else {
		font, err = DefaultFont()
	}
	if err != nil {
		return nil, err
	}
	if docxFontFamily == "" {
		docxFontFamily = DefaultDOCXFontFamily
	}
	return &Renderer{Font: font, DOCXFontFamily: docxFontFamily}, nil
}

// Render produces the document bytes for format.
func (r *Renderer) Render(format Format, title, text string) ([]byte, error) {
	switch format {
	case FormatWord:
		return DOCX(text, r.DOCXFontFamily)
	case FormatPDF:
		return PDF(text, title, r.Font)
	default:
		return nil, ErrUnsupportedFormat
	}
}

// Preview produces a PNG thumbnail of text.
func (r *Renderer) Preview(text string) ([]byte, error) {
	return PreviewPNG(text, r.Font)
}
