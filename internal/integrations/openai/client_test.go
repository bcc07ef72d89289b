package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"shop-assistant/internal/domain"
)

// ---------------------------------------------------------------------------
// URL helpers
// ---------------------------------------------------------------------------

func TestChatURL(t *testing.T) {
	cases := []struct {
		base string
		want string
	}{
		{"https://api.openai.com/v1", "https://api.openai.com/v1/chat/completions"},
		{"https://api.openai.com/v1/", "https://api.openai.com/v1/chat/completions"},
		{"http://localhost:8080", "http://localhost:8080/v1/chat/completions"},
		{"", "https://api.openai.com/v1/chat/completions"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, chatURL(tc.base), "base=%q", tc.base)
	}
}

// ---------------------------------------------------------------------------
// NewClient
// ---------------------------------------------------------------------------

func TestNewClient_EmptyKey(t *testing.T) {
	_, err := NewClient("  ")
	require.Error(t, err)
	require.Contains(t, err.Error(), "api key")
}

func TestNewClient_Valid(t *testing.T) {
	c, err := NewClient("sk-test")
	require.NoError(t, err)
	require.Equal(t, "https://api.openai.com/v1", c.baseURL)
	require.NotNil(t, c.api)
}

// ---------------------------------------------------------------------------
// Client.Complete
// ---------------------------------------------------------------------------

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := NewClient(
		"sk-test",
		WithBaseURL(srv.URL),
		WithHTTPClient(&http.Client{Timeout: 2 * time.Second}),
	)
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func searchFunction() domain.FunctionDefinition {
	return domain.FunctionDefinition{
		Name:        "searchProducts",
		Description: "Search the catalog",
		Parameters:  json.RawMessage(`{"type":"object","properties":{"query":{"type":"string"}},"required":["query"]}`),
	}
}

func TestClient_Complete_TextReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		reqBody, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.Contains(t, string(reqBody), `"model":"gpt-mock"`)
		require.NotContains(t, string(reqBody), `"functions"`)
		require.NotContains(t, string(reqBody), `"function_call"`)

		writeJSON(w, http.StatusOK, `{
			"id": "chatcmpl-123",
			"object": "chat.completion",
			"created": 1670000000,
			"choices": [{
				"index": 0,
				"message": { "role": "assistant", "content": "Hello from mock" },
				"finish_reason": "stop"
			}]
		}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	out, err := c.Complete(context.Background(), "gpt-mock", []domain.ChatMessage{{Role: "user", Content: "hi"}}, nil)
	require.NoError(t, err)
	require.Equal(t, "Hello from mock", out.Content)
	require.Nil(t, out.FunctionCall)
}

func TestClient_Complete_DeclaresFunctionsAndParsesCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "auto", body["function_call"])

		functions, ok := body["functions"].([]any)
		require.True(t, ok)
		require.Len(t, functions, 1)
		fn := functions[0].(map[string]any)
		require.Equal(t, "searchProducts", fn["name"])
		params := fn["parameters"].(map[string]any)
		require.Equal(t, []any{"query"}, params["required"])

		writeJSON(w, http.StatusOK, `{
			"choices": [{
				"index": 0,
				"message": {
					"role": "assistant",
					"content": null,
					"function_call": {"name": "searchProducts", "arguments": "{\"query\":\"phone\"}"}
				},
				"finish_reason": "function_call"
			}]
		}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	out, err := c.Complete(context.Background(), "gpt-mock",
		[]domain.ChatMessage{{Role: "user", Content: "find me a phone"}},
		[]domain.FunctionDefinition{searchFunction()},
	)
	require.NoError(t, err)
	require.Empty(t, out.Content)
	require.NotNil(t, out.FunctionCall)
	require.Equal(t, "searchProducts", out.FunctionCall.Name)
	require.JSONEq(t, `{"query":"phone"}`, out.FunctionCall.Arguments)
}

func TestClient_Complete_ToolCallFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{
			"choices": [{
				"index": 0,
				"message": {
					"role": "assistant",
					"tool_calls": [{
						"id": "call_1",
						"type": "function",
						"function": {"name": "convertCurrencies", "arguments": "{\"amount\":5}"}
					}]
				}
			}]
		}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	out, err := c.Complete(context.Background(), "gpt-mock", nil, []domain.FunctionDefinition{searchFunction()})
	require.NoError(t, err)
	require.NotNil(t, out.FunctionCall)
	require.Equal(t, "convertCurrencies", out.FunctionCall.Name)
}

func TestClient_Complete_StatusErrors(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusTooManyRequests, http.StatusInternalServerError} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, status, `{"error":{"message":"upstream said no","type":"server_error"}}`)
		}))

		c := newTestClient(t, srv)
		_, err := c.Complete(context.Background(), "gpt-mock", []domain.ChatMessage{{Role: "user", Content: "hi"}}, nil)
		srv.Close()

		require.Error(t, err)
		var statusErr *HTTPStatusError
		require.ErrorAs(t, err, &statusErr)
		require.Equal(t, status, statusErr.HTTPStatusCode())
		require.Contains(t, err.Error(), "unexpected status")
	}
}

func TestClient_Complete_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `not-a-json`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.Complete(context.Background(), "gpt-mock", nil, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "request failed")
}

func TestClient_Complete_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"choices":[]}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.Complete(context.Background(), "gpt-mock", nil, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no choices")
}

func TestClient_Complete_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		writeJSON(w, http.StatusOK, `{"choices":[]}`)
	}))
	defer srv.Close()

	c, err := NewClient("sk-test", WithBaseURL(srv.URL), WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}))
	require.NoError(t, err)
	_, err = c.Complete(context.Background(), "gpt-mock", nil, nil)
	require.Error(t, err)
}

func TestClient_Complete_EmptyModel(t *testing.T) {
	c, err := NewClient("sk-test")
	require.NoError(t, err)
	_, err = c.Complete(context.Background(), "", nil, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "model")
}
