package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"

	"github.com/ram70099/ChatBot/internal/config"
)

type mockLLM struct {
	calls    []openai.ChatCompletionResponse
	err      error
	requests []openai.ChatCompletionRequest
}

func (m *mockLLM) CreateChatCompletion(ctx context.Context, r openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	m.requests = append(m.requests, r)
	if m.err != nil {
		return openai.ChatCompletionResponse{}, m.err
	}
	if len(m.calls) == 0 {
		panic("mockLLM: no more responses configured for request: " + r.Messages[0].Content)
	}
	resp := m.calls[0]
	m.calls = m.calls[1:]
	return resp, nil
}

func reply(text string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: text}}}}
}

func TestGenerate_Ok(t *testing.T) {
	client := &mockLLM{calls: []openai.ChatCompletionResponse{reply("Hello there")}}
	m := NewModel(client, "gemini-1.5-flash")

	res := m.Generate(context.Background(), "User: hi\nAI:")
	require.False(t, res.Failed())
	require.Equal(t, "Hello there", res.Text())
	require.Empty(t, res.Reason())

	require.Len(t, client.requests, 1)
	req := client.requests[0]
	require.Equal(t, "gemini-1.5-flash", req.Model)
	require.Len(t, req.Messages, 1)
	require.Equal(t, openai.ChatMessageRoleUser, req.Messages[0].Role)
	require.Equal(t, "User: hi\nAI:", req.Messages[0].Content)
	require.Empty(t, req.Tools)
	require.False(t, req.Stream)
}

func TestGenerate_ErrorBecomesFailed(t *testing.T) {
	client := &mockLLM{err: errors.New("quota exceeded")}
	res := NewModel(client, "m").Generate(context.Background(), "p")

	require.True(t, res.Failed())
	require.Equal(t, "quota exceeded", res.Reason())
	require.True(t, strings.HasPrefix(res.Text(), FailureMarker))
	require.Equal(t, FailureMarker+"quota exceeded", res.Text())
	require.Len(t, client.requests, 1, "no retries")
}

func TestGenerate_NoChoices(t *testing.T) {
	client := &mockLLM{calls: []openai.ChatCompletionResponse{{}}}
	res := NewModel(client, "m").Generate(context.Background(), "p")
	require.True(t, res.Failed())
	require.Contains(t, res.Text(), "no choices")
}

func TestNewClient_UsesBaseURLAndKey(t *testing.T) {
	var gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(reply("from server"))
	}))
	defer srv.Close()

	client := NewClient(config.LLMConfig{BaseURL: srv.URL + "/v1beta/openai/"}, "secret")
	res := NewModel(client, "gemini-1.5-flash").Generate(context.Background(), "User: hi\nAI:")

	require.False(t, res.Failed(), res.Reason())
	require.Equal(t, "from server", res.Text())
	require.Equal(t, "Bearer secret", gotAuth)
	require.Equal(t, "/v1beta/openai/chat/completions", gotPath)
}
