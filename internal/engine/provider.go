package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/javariai/javari-core/internal/config"
	"github.com/javariai/javari-core/pkg/models"
)

// ProviderError is returned when a model provider call fails with a
// non-success HTTP status.
type ProviderError struct {
	Provider string
	Status   int
	Message  string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.Status, e.Message)
}

// Caller sends a conversation to a model and returns its text reply.
type Caller interface {
	Call(ctx context.Context, modelID string, messages []models.ChatMessage) (string, error)
}

// HTTPCaller talks to the OpenAI and Anthropic chat APIs directly. The model
// id decides the provider: claude-* goes to Anthropic, everything else to the
// OpenAI-compatible endpoint.
type HTTPCaller struct {
	OpenAIBaseURL    string
	AnthropicBaseURL string
	MaxTokens        int
	client           *http.Client
}

// NewHTTPCaller creates a caller with the public provider endpoints.
func NewHTTPCaller() *HTTPCaller {
	return &HTTPCaller{
		OpenAIBaseURL:    "https://api.openai.com/v1",
		AnthropicBaseURL: "https://api.anthropic.com",
		MaxTokens:        4096,
		client:           &http.Client{Timeout: 120 * time.Second},
	}
}

func (h *HTTPCaller) Call(ctx context.Context, modelID string, messages []models.ChatMessage) (string, error) {
	if strings.HasPrefix(modelID, "claude-") {
		return h.callAnthropic(ctx, modelID, messages)
	}
	return h.callOpenAI(ctx, modelID, messages)
}

// ── OpenAI ──────────────────────────────────────────────────

type openAIRequest struct {
	Model    string               `json:"model"`
	Messages []models.ChatMessage `json:"messages"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (h *HTTPCaller) callOpenAI(ctx context.Context, model string, messages []models.ChatMessage) (string, error) {
	apiKey := os.Getenv(config.EnvOpenAIKey)
	if apiKey == "" {
		return "", fmt.Errorf("openai: %s not set", config.EnvOpenAIKey)
	}

	body, _ := json.Marshal(openAIRequest{Model: model, Messages: messages})

	url := h.OpenAIBaseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("openai: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

	httpResp, err := h.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("openai: request failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(httpResp.Body)
		return "", &ProviderError{Provider: "openai", Status: httpResp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	var oaiResp openAIResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&oaiResp); err != nil {
		return "", fmt.Errorf("openai: decode response: %w", err)
	}

	if len(oaiResp.Choices) == 0 {
		return "", fmt.Errorf("openai: empty response for model %s", model)
	}
	return oaiResp.Choices[0].Message.Content, nil
}

// ── Anthropic ───────────────────────────────────────────────

type anthropicRequest struct {
	Model     string               `json:"model"`
	Messages  []models.ChatMessage `json:"messages"`
	MaxTokens int                  `json:"max_tokens"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (h *HTTPCaller) callAnthropic(ctx context.Context, model string, messages []models.ChatMessage) (string, error) {
	apiKey := os.Getenv(config.EnvAnthropicKey)
	if apiKey == "" {
		return "", fmt.Errorf("anthropic: %s not set", config.EnvAnthropicKey)
	}

	body, _ := json.Marshal(anthropicRequest{Model: model, Messages: messages, MaxTokens: h.MaxTokens})

	url := h.AnthropicBaseURL + "/v1/messages"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("anthropic: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	httpResp, err := h.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("anthropic: request failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(httpResp.Body)
		return "", &ProviderError{Provider: "anthropic", Status: httpResp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	var anthResp anthropicResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&anthResp); err != nil {
		return "", fmt.Errorf("anthropic: decode response: %w", err)
	}

	var content strings.Builder
	for _, c := range anthResp.Content {
		if c.Type == "text" {
			content.WriteString(c.Text)
		}
	}
	if content.Len() == 0 {
		return "", fmt.Errorf("anthropic: empty response for model %s", model)
	}
	return content.String(), nil
}
