// Package render turns generated cover letter text into downloadable documents.
package render

import (
	"errors"
	"strings"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrRenderFailed      = errors.New("render failed")
)

// Format is an export format accepted by the download endpoint.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatWord Format = "word"
)

const (
	ContentTypePDF  = "application/pdf"
	ContentTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// ParseFormat accepts "pdf" or "word" case-insensitively.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case FormatPDF:
		return FormatPDF, nil
	case FormatWord:
		return FormatWord, nil
	default:
		return "", ErrUnsupportedFormat
	}
}

// ContentType returns the MIME type of the rendered bytes.
func (f Format) ContentType() string {
	if f == FormatWord {
		return ContentTypeDOCX
	}
	return ContentTypePDF
}

// Extension returns the file extension including the dot.
func (f Format) Extension() string {
	if f == FormatWord {
		return ".docx"
	}
	return ".pdf"
}
