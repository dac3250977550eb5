package aiservice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"coverletter-backend/internal/llm"
	"coverletter-backend/internal/resumedata"
	"coverletter-backend/internal/shared/telemetry"
)

const generatePath = "/api/coverletter/generate"

// maxErrorBody bounds how much of a failed response is echoed into errors.
const maxErrorBody = 512

// Client calls the standalone AI generation service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a client for the service rooted at baseURL.
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("AI_BASE_URL is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 150 * time.Second}
	}
	return &Client{baseURL: trimmed, httpClient: httpClient}, nil
}

type essay struct {
	Question string `json:"question"`
	Tone     string `json:"tone"`
	Length   int    `json:"length"`
}

type generateRequest struct {
	Data  resumedata.Record `json:"data"`
	Essay essay             `json:"essay"`
}

type generateResponse struct {
	CoverLetter any `json:"cover_letter"`
}

// GenerateCoverLetter posts the normalized resume and essay settings and
// returns the coerced cover letter text.
func (c *Client) GenerateCoverLetter(ctx context.Context, input llm.GenerateInput) (string, error) {
	payload, err := json.Marshal(generateRequest{
		Data: input.Resume,
		Essay: essay{
			Question: input.Question,
			Tone:     input.Tone,
			Length:   input.Length,
		},
	})
	if err != nil {
		return "", fmt.Errorf("encode generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+generatePath, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("ai service request timeout: %w", err)
		}
		return "", fmt.Errorf("ai service request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("ai service read body: %w", err)
	}
	telemetry.Info("llm.aiservice.response", map[string]any{
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
		"body_len":    len(body),
	})

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := strings.TrimSpace(string(body))
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return "", &StatusError{StatusCode: resp.StatusCode, Body: snippet}
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("ai service response parse: %w", err)
	}
	text := llm.CoerceText(parsed.CoverLetter)
	if text == "" {
		return "", llm.ErrEmptyOutput
	}
	return text, nil
}

// StatusError reports a non-2xx reply from the AI service.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ai service http status %d: %s", e.StatusCode, e.Body)
}

var _ llm.Client = (*Client)(nil)
