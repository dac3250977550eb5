package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"coverletter-backend/internal/coverletters"
	"coverletter-backend/internal/shared/config"
	localstore "coverletter-backend/internal/shared/storage/object/local"
)

func newTestRouter(t *testing.T) (http.Handler, *localstore.Store) {
	t.Helper()
	store := localstore.New(t.TempDir())
	repo := coverletters.NewMemoryRepo()
	handler := coverletters.NewHandler(&coverletters.Service{Repo: repo}, &coverletters.Orchestrator{Repo: repo}, &coverletters.Exporter{Repo: repo}, nil)
	router := NewRouter(RouterDeps{
		Config:       config.Config{Env: "dev", GenerateRatePerMinute: 1},
		Store:        store,
		CoverLetters: handler,
	})
	return router, store
}

func TestHealthAndMetricsAreOpen(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, path := range []string{"/api/v1/health", "/metrics"} {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, resp.Code)
		}
	}
}

func TestMeRequiresIdentity(t *testing.T) {
	router, _ := newTestRouter(t)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/me", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("X-Guest-Id", "g1")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	var body map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &body)
	if resp.Code != http.StatusOK || body["userId"] != "guest:g1" || body["isGuest"] != true {
		t.Fatalf("unexpected /me response %d %s", resp.Code, resp.Body.String())
	}
	generation, _ := body["generation"].(map[string]any)
	if generation["mode"] != "sync" || generation["ratePerMinute"] != float64(1) {
		t.Fatalf("unexpected generation info %v", body["generation"])
	}
}

func TestFilesServesStoredObjects(t *testing.T) {
	router, store := newTestRouter(t)
	if _, err := store.SaveWithKey(context.Background(), "previews/h/cl-1.png", "image/png", bytes.NewReader([]byte("\x89PNG"))); err != nil {
		t.Fatalf("SaveWithKey: %v", err)
	}

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/files/previews/h/cl-1.png", nil))
	if resp.Code != http.StatusOK || resp.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("expected png, got %d %s", resp.Code, resp.Header().Get("Content-Type"))
	}

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/files/previews/h/missing.png", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestGenerateIsRateLimited(t *testing.T) {
	router, _ := newTestRouter(t)

	var last *httptest.ResponseRecorder
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/cover-letters/missing/generate", nil)
		req.Header.Set("X-Guest-Id", "g1")
		last = httptest.NewRecorder()
		router.ServeHTTP(last, req)
	}
	if last.Code != http.StatusTooManyRequests || !strings.Contains(last.Body.String(), "rate_limited") {
		t.Fatalf("expected 429 on second generate, got %d %s", last.Code, last.Body.String())
	}
}

func TestAddr(t *testing.T) {
	cases := map[string]string{"": ":8080", "9000": ":9000", ":7000": ":7000"}
	for in, want := range cases {
		if got := Addr(in); got != want {
			t.Fatalf("Addr(%q) = %q, want %q", in, got, want)
		}
	}
}
