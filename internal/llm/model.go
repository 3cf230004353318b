package llm

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai"

	"github.com/ram70099/ChatBot/internal/logger"
)

// FailureMarker prefixes the text of a failed generation.
const FailureMarker = "❌ Error generating response: "

var errEmptyResponse = errors.New("model returned no choices")

// Client is the one openai.Client method Model needs; tests substitute a fake.
type Client interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Result is the outcome of one generation: either Ok with the model's text
// or Failed with a reason.
type Result struct {
	text   string
	reason string
	failed bool
}

// Ok wraps generated text.
func Ok(text string) Result { return Result{text: text} }

// Failed wraps the reason a generation did not complete.
func Failed(reason string) Result { return Result{reason: reason, failed: true} }

// Failed reports whether this is the failure variant.
func (r Result) Failed() bool { return r.failed }

// Reason is the failure reason, empty for Ok.
func (r Result) Reason() string { return r.reason }

// Text is the displayable reply. For failures it is the reason behind FailureMarker.
func (r Result) Text() string {
	if r.failed {
		return FailureMarker + r.reason
	}
	return r.text
}

// Model sends a flattened prompt to a chat completion endpoint.
type Model struct {
	client Client
	name   string
}

// NewModel binds a client to a model name.
func NewModel(client Client, name string) *Model {
	return &Model{client: client, name: name}
}

// Name returns the model identifier sent with each request.
func (m *Model) Name() string { return m.name }

// Generate makes exactly one request carrying prompt as a single user message.
// Errors never escape: they come back as a Failed result.
func (m *Model) Generate(ctx context.Context, prompt string) Result {
	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: m.name,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		logger.L.Error("LLM call failed", "model", m.name, "error", err)
		return Failed(err.Error())
	}
	if len(resp.Choices) == 0 {
		logger.L.Warn("LLM returned no choices", "model", m.name)
		return Failed(errEmptyResponse.Error())
	}
	logger.L.Debug("LLM response received", "model", m.name, "finish_reason", resp.Choices[0].FinishReason, "total_tokens", resp.Usage.TotalTokens)
	return Ok(resp.Choices[0].Message.Content)
}
