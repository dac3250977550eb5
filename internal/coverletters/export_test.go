package coverletters

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/ledongthuc/pdf"

	"coverletter-backend/internal/render"
)

func newTestExporter(t *testing.T, repo Repo) *Exporter {
	t.Helper()
	renderer, err := render.NewRenderer("", "")
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return &Exporter{Repo: repo, Renderer: renderer}
}

func successDoc() CoverLetter {
	cl := CoverLetter{ID: "cl-9", OwnerID: "user-1", Title: "Platform role", Status: StatusSuccess}
	cl.Sections = cl.Sections.WithGenerated("Hello there.\nSecond line.")
	return cl
}

func TestRenderChecksStatusBeforeFormat(t *testing.T) {
	exporter := newTestExporter(t, NewMemoryRepo())
	for _, status := range []Status{StatusDraft, StatusProcessing, StatusFailed} {
		doc := successDoc()
		doc.Status = status
		if _, err := exporter.Render(doc, "bogus"); !errors.Is(err, ErrNotGenerated) {
			t.Fatalf("%s: expected ErrNotGenerated, got %v", status, err)
		}
		if _, err := exporter.Render(doc, "pdf"); !errors.Is(err, ErrNotGenerated) {
			t.Fatalf("%s: expected ErrNotGenerated for pdf, got %v", status, err)
		}
	}
}

func TestRenderRejectsUnknownFormat(t *testing.T) {
	exporter := newTestExporter(t, NewMemoryRepo())
	for _, format := range []string{"", "docx", "html", "txt"} {
		if _, err := exporter.Render(successDoc(), format); !errors.Is(err, ErrUnsupportedFormat) {
			t.Fatalf("%q: expected ErrUnsupportedFormat, got %v", format, err)
		}
	}
}

func TestRenderContentTypes(t *testing.T) {
	exporter := newTestExporter(t, NewMemoryRepo())

	doc, err := exporter.Render(successDoc(), "PDF")
	if err != nil {
		t.Fatalf("Render pdf: %v", err)
	}
	if doc.ContentType != "application/pdf" || doc.FileName != "cover-letter-cl-9.pdf" {
		t.Fatalf("unexpected pdf artifact %s %s", doc.ContentType, doc.FileName)
	}

	word, err := exporter.Render(successDoc(), "Word")
	if err != nil {
		t.Fatalf("Render word: %v", err)
	}
	if word.ContentType != "application/vnd.openxmlformats-officedocument.wordprocessingml.document" {
		t.Fatalf("unexpected word content type %s", word.ContentType)
	}
	if word.FileName != "cover-letter-cl-9.docx" {
		t.Fatalf("unexpected word file name %s", word.FileName)
	}
	body := docxBody(t, word.Bytes)
	if !strings.Contains(body, "Platform role") || !strings.Contains(body, "Hello there.") {
		t.Fatalf("expected title and text in document.xml, got %s", body)
	}
}

func TestRenderUsesPlaceholderWhenTextMissing(t *testing.T) {
	exporter := newTestExporter(t, NewMemoryRepo())
	doc := CoverLetter{ID: "cl-2", Status: StatusSuccess}

	art, err := exporter.Render(doc, "word")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	body := docxBody(t, art.Bytes)
	if !strings.Contains(body, DefaultTitle) || !strings.Contains(body, MissingTextPlaceholder) {
		t.Fatalf("expected fallback title and placeholder, got %s", body)
	}
}

func TestRenderPDFUsesPlaceholderWhenTextMissing(t *testing.T) {
	exporter := newTestExporter(t, NewMemoryRepo())
	doc := CoverLetter{ID: "cl-2", Status: StatusSuccess}

	art, err := exporter.Render(doc, "pdf")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	text := pdfText(t, art.Bytes)
	if !strings.Contains(text, DefaultTitle) || !strings.Contains(text, MissingTextPlaceholder) {
		t.Fatalf("expected fallback title and placeholder, got %q", text)
	}
}

func TestRenderPDFKeepsKoreanText(t *testing.T) {
	exporter := newTestExporter(t, NewMemoryRepo())
	doc := CoverLetter{ID: "cl-3", Title: "네이버 백엔드 지원", Status: StatusSuccess}
	doc.Sections = doc.Sections.WithGenerated("안녕하세요.\n저는 결제 시스템을 운영해 온 개발자입니다.")

	art, err := exporter.Render(doc, "pdf")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	text := pdfText(t, art.Bytes)
	for _, want := range []string{"네이버 백엔드 지원", "안녕하세요.", "운영해 온 개발자입니다."} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in pdf text, got %q", want, text)
		}
	}
}

func TestDownloadNotFoundForOtherOwner(t *testing.T) {
	repo := NewMemoryRepo()
	if err := repo.Create(context.Background(), successDoc()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	exporter := newTestExporter(t, repo)
	if _, err := exporter.Download(context.Background(), "intruder", "cl-9", "pdf"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// pdfText returns the text shown on each page, one line per text operator.
func pdfText(t *testing.T, data []byte) string {
	t.Helper()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("pdf.NewReader: %v", err)
	}
	var out strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		pdf.Interpret(reader.Page(i).V.Key("Contents"), func(stk *pdf.Stack, op string) {
			args := make([]pdf.Value, stk.Len())
			for j := len(args) - 1; j >= 0; j-- {
				args[j] = stk.Pop()
			}
			if op == "Tj" && len(args) == 1 {
				out.WriteString(args[0].TextFromUTF16())
				out.WriteByte('\n')
			}
		})
	}
	return out.String()
}

func docxBody(t *testing.T, data []byte) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open docx: %v", err)
	}
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open document.xml: %v", err)
		}
		defer rc.Close()
		b, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("read document.xml: %v", err)
		}
		return string(b)
	}
	t.Fatalf("word/document.xml missing")
	return ""
}
