package modelapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"answer-engine/internal/domain"
)

const generationTemperature = 0.0

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// GeneratorClient implements domain.LLMClient against an OpenAI-compatible
// chat completions endpoint. Calls are rate limited so a burst of
// concurrent answers cannot saturate the generation service.
type GeneratorClient struct {
	BaseURL string
	Model   string
	APIKey  string
	Client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewGeneratorClient constructs a GeneratorClient allowing requestsPerSecond
// sustained calls with a burst of the same size. A requestsPerSecond of zero
// or less disables limiting. If client is nil, a default http.Client is
// created with the given timeout.
func NewGeneratorClient(baseURL, model, apiKey string, requestsPerSecond float64, timeout time.Duration, logger *slog.Logger, client ...*http.Client) *GeneratorClient {
	var c *http.Client
	if len(client) > 0 && client[0] != nil {
		c = client[0]
	} else {
		c = &http.Client{Timeout: timeout}
	}
	limit := rate.Inf
	burst := 1
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
		burst = int(requestsPerSecond)
		if burst < 1 {
			burst = 1
		}
	}
	return &GeneratorClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		APIKey:  apiKey,
		Client:  c,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}
}

// Generate sends the grounded prompt to the chat completions endpoint and
// returns the assistant message.
func (g *GeneratorClient) Generate(ctx context.Context, genReq domain.GenerationRequest) (*domain.LLMResponse, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("generation rate limit wait: %w", err)
	}

	startTime := time.Now()

	reqBody := chatCompletionRequest{
		Model: g.Model,
		Messages: []chatMessage{
			{Role: "system", Content: genReq.SystemInstructions},
			{Role: "user", Content: genReq.Context},
		},
		Temperature: generationTemperature,
		MaxTokens:   genReq.MaxTokens,
	}

	jsonPayload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/chat/completions", g.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonPayload))
	if err != nil {
		return nil, fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.APIKey)
	}

	resp, err := g.Client.Do(req)
	if err != nil {
		g.logger.Warn("generation_failed",
			slog.String("error", err.Error()),
			slog.Int64("elapsed_ms", time.Since(startTime).Milliseconds()))
		return nil, fmt.Errorf("failed to call generation endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		g.logger.Warn("generation_failed",
			slog.Int("status_code", resp.StatusCode),
			slog.String("body", truncateString(string(body), 500)),
			slog.Int64("elapsed_ms", time.Since(startTime).Milliseconds()))
		return nil, fmt.Errorf("generation endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var chatResp chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("failed to decode generation response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("generation endpoint returned no choices")
	}

	choice := chatResp.Choices[0]
	content := strings.TrimSpace(choice.Message.Content)

	g.logger.Info("generation_completed",
		slog.String("finish_reason", choice.FinishReason),
		slog.Int("content_length", len(content)),
		slog.Int64("elapsed_ms", time.Since(startTime).Milliseconds()))

	return &domain.LLMResponse{
		Text: content,
		Done: choice.FinishReason != "length",
	}, nil
}

// Version returns the generation model identifier.
func (g *GeneratorClient) Version() string {
	return g.Model
}

var _ domain.LLMClient = (*GeneratorClient)(nil)
