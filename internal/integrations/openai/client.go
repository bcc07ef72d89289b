package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"shop-assistant/internal/domain"
	"shop-assistant/internal/metrics"
)

const defaultBaseURL = "https://api.openai.com/v1"

// functionCallAuto lets the model choose any declared function, or none.
const functionCallAuto = "auto"

// HTTPStatusError captures non-2xx upstream responses with status-aware context.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("openai: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// chatAPI is the subset of *goopenai.Client used by Client.
type chatAPI interface {
	CreateChatCompletion(ctx context.Context, req goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error)
}

// Client is a focused OpenAI-compatible client for chat completions with
// function calling.
type Client struct {
	baseURL    string
	httpClient *http.Client
	api        chatAPI
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSpace(baseURL)
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a Client authenticated with apiKey. The key is required.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("openai: api key must not be empty")
	}
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}

	cfg := goopenai.DefaultConfig(apiKey)
	cfg.BaseURL = apiBaseURL(c.baseURL)
	if c.httpClient != nil {
		cfg.HTTPClient = c.httpClient
	}
	c.api = goopenai.NewClientWithConfig(cfg)
	return c, nil
}

// apiBaseURL normalizes a base URL so that it always ends in /v1.
func apiBaseURL(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		return defaultBaseURL
	}
	if strings.HasSuffix(base, "/v1") {
		return base
	}
	return base + "/v1"
}

func chatURL(baseURL string) string {
	return apiBaseURL(baseURL) + "/chat/completions"
}

// Complete sends one chat completion request and returns the first choice.
// Functions, when non-empty, are declared with function_call "auto".
func (c *Client) Complete(ctx context.Context, model string, messages []domain.ChatMessage, functions []domain.FunctionDefinition) (domain.Completion, error) {
	if model == "" {
		return domain.Completion{}, errors.New("openai: model must not be empty")
	}

	req := goopenai.ChatCompletionRequest{
		Model:    model,
		Messages: toChatMessages(messages),
	}
	if len(functions) > 0 {
		req.Functions = toFunctionDefinitions(functions)
		req.FunctionCall = functionCallAuto
	}

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, req)
	metrics.UpstreamRequestDuration.WithLabelValues("openai").Observe(time.Since(start).Seconds())
	if err != nil {
		return domain.Completion{}, fmt.Errorf("openai: request failed: %w", c.parseAPIError(err))
	}
	if len(resp.Choices) == 0 {
		return domain.Completion{}, errors.New("openai: no choices in response")
	}

	return toCompletion(resp.Choices[0].Message), nil
}

func toChatMessages(messages []domain.ChatMessage) []goopenai.ChatCompletionMessage {
	out := make([]goopenai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, goopenai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	return out
}

func toFunctionDefinitions(functions []domain.FunctionDefinition) []goopenai.FunctionDefinition {
	out := make([]goopenai.FunctionDefinition, 0, len(functions))
	for _, f := range functions {
		out = append(out, goopenai.FunctionDefinition{
			Name:        f.Name,
			Description: f.Description,
			Parameters:  f.Parameters,
		})
	}
	return out
}

// toCompletion maps the provider message. Some OpenAI-compatible backends
// answer a functions request with tool_calls; the first function tool call is
// treated the same as function_call.
func toCompletion(msg goopenai.ChatCompletionMessage) domain.Completion {
	out := domain.Completion{Content: msg.Content}
	switch {
	case msg.FunctionCall != nil && msg.FunctionCall.Name != "":
		out.FunctionCall = &domain.FunctionCall{
			Name:      msg.FunctionCall.Name,
			Arguments: msg.FunctionCall.Arguments,
		}
	case len(msg.ToolCalls) > 0 && msg.ToolCalls[0].Type == goopenai.ToolTypeFunction:
		out.FunctionCall = &domain.FunctionCall{
			Name:      msg.ToolCalls[0].Function.Name,
			Arguments: msg.ToolCalls[0].Function.Arguments,
		}
	}
	return out
}

// parseAPIError converts go-openai status errors into *HTTPStatusError so
// callers can branch on the upstream status code.
func (c *Client) parseAPIError(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		return &HTTPStatusError{
			StatusCode: apiErr.HTTPStatusCode,
			URL:        chatURL(c.baseURL),
			Body:       apiErr.Message,
		}
	}

	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		return &HTTPStatusError{
			StatusCode: reqErr.HTTPStatusCode,
			URL:        chatURL(c.baseURL),
			Body:       string(reqErr.Body),
		}
	}
	return err
}
