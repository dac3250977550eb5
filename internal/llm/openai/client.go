package openai

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"coverletter-backend/internal/llm"
	"coverletter-backend/internal/shared/telemetry"
)

var apiURL = "https://api.openai.com/v1/chat/completions"

// Client implements llm.Client using OpenAI Chat Completions.
type Client struct {
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient constructs a new OpenAI client.
func NewClient(apiKey, model string) (*Client, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for OpenAI")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	return &Client{
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 150 * time.Second},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    *float32       `json:"temperature,omitempty"`
	ResponseFormat responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *chatUsage `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

type coverLetterReply struct {
	CoverLetter any `json:"cover_letter"`
}

// errTemperatureUnsupported marks a request rejected only because of the
// temperature parameter.
var errTemperatureUnsupported = errors.New("temperature unsupported")

// GenerateCoverLetter asks the model for a JSON reply, coerces cover_letter
// to text and clamps it to the requested length window.
func (c *Client) GenerateCoverLetter(ctx context.Context, input llm.GenerateInput) (string, error) {
	messages := BuildPrompt(input)
	promptHash := hashPromptString(promptStringFromMessages(messages))

	withTemp := !omitTemperature(c.model)
	content, usage, err := c.complete(ctx, messages, withTemp)
	if errors.Is(err, errTemperatureUnsupported) && withTemp {
		content, usage, err = c.complete(ctx, messages, false)
	}
	if err != nil {
		return "", err
	}
	logUsage(c.model, promptHash, usage)

	var reply coverLetterReply
	if err := json.Unmarshal([]byte(content), &reply); err != nil {
		return "", fmt.Errorf("openai reply is not JSON: %w", err)
	}
	text := llm.CoerceText(reply.CoverLetter)
	if text == "" {
		return "", llm.ErrEmptyOutput
	}
	return llm.ClampLength(text, input.Length), nil
}

func (c *Client) complete(ctx context.Context, messages []Message, withTemp bool) (string, *chatUsage, error) {
	reqMessages := make([]chatMessage, 0, len(messages))
	for _, m := range messages {
		reqMessages = append(reqMessages, chatMessage{Role: m.Role, Content: m.Content})
	}
	reqBody := chatRequest{
		Model:    c.model,
		Messages: reqMessages,
		ResponseFormat: responseFormat{
			Type: "json_object",
		},
	}
	if withTemp {
		temp := float32(0.3)
		reqBody.Temperature = &temp
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(payload))
	if err != nil {
		return "", nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return "", nil, fmt.Errorf("openai request timeout: %w", err)
		}
		return "", nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, err
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		if resp.StatusCode >= 400 {
			return "", nil, fmt.Errorf("openai http status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return "", nil, fmt.Errorf("openai response parse: %w", err)
	}
	if parsed.Error != nil {
		if isTemperatureError(parsed.Error.Message) {
			return "", nil, fmt.Errorf("%w: %s", errTemperatureUnsupported, parsed.Error.Message)
		}
		return "", nil, fmt.Errorf("openai error: %s (%s)", parsed.Error.Message, parsed.Error.Type)
	}
	if resp.StatusCode >= 400 {
		return "", nil, fmt.Errorf("openai http status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if len(parsed.Choices) == 0 {
		return "", nil, fmt.Errorf("openai response missing choices")
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", nil, llm.ErrEmptyOutput
	}
	return content, parsed.Usage, nil
}

func logUsage(model, promptHash string, usage *chatUsage) {
	fields := map[string]any{
		"model":       model,
		"prompt_hash": promptHash,
	}
	if usage != nil {
		fields["prompt_tokens"] = usage.PromptTokens
		fields["completion_tokens"] = usage.CompletionTokens
		fields["total_tokens"] = usage.TotalTokens
	}
	telemetry.Info("llm.openai.response", fields)
}

func isTemperatureError(message string) bool {
	lower := strings.ToLower(message)
	return strings.Contains(lower, "temperature") && strings.Contains(lower, "unsupported")
}

// omitTemperature reports whether model rejects a non-default temperature,
// either because it is a gpt-5 model or because LLM_NO_TEMP0_MODELS lists it.
func omitTemperature(model string) bool {
	if isGPT5(model) {
		return true
	}
	normalized := strings.ToLower(strings.TrimSpace(model))
	for _, m := range strings.Split(os.Getenv("LLM_NO_TEMP0_MODELS"), ",") {
		if strings.ToLower(strings.TrimSpace(m)) == normalized && normalized != "" {
			return true
		}
	}
	return false
}

func isGPT5(model string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "gpt-5")
}

func hashPromptString(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}

var _ llm.Client = (*Client)(nil)
