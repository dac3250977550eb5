package respond

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestErrorEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	resp := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(resp)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/cover-letters/x", nil)

	Error(c, http.StatusNotFound, "not_found", "cover letter not found", map[string]string{"id": "x"})

	if resp.Code != http.StatusNotFound || !c.IsAborted() {
		t.Fatalf("expected aborted 404, got %d aborted=%v", resp.Code, c.IsAborted())
	}
	var body ErrorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "not_found" || body.Error.Message != "cover letter not found" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestAttachmentDisposition(t *testing.T) {
	gin.SetMode(gin.TestMode)
	resp := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(resp)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	Attachment(c, "cover-letter-1.pdf", "application/pdf", []byte("%PDF"))

	if got := resp.Header().Get("Content-Disposition"); got != `attachment; filename=cover-letter-1.pdf` {
		t.Fatalf("unexpected disposition %q", got)
	}
	if resp.Header().Get("Content-Type") != "application/pdf" || resp.Body.String() != "%PDF" {
		t.Fatalf("unexpected response %q %q", resp.Header().Get("Content-Type"), resp.Body.String())
	}

	resp2 := httptest.NewRecorder()
	c2, _ := gin.CreateTestContext(resp2)
	c2.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	Attachment(c2, "자기소개서.pdf", "application/pdf", nil)
	if got := resp2.Header().Get("Content-Disposition"); !strings.Contains(got, "filename*=utf-8''") {
		t.Fatalf("expected encoded filename, got %q", got)
	}
}
