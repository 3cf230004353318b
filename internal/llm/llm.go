package llm

import (
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/ram70099/ChatBot/internal/config"
)

// NewClient creates an OpenAI-protocol client for the configured endpoint.
// A zero timeout leaves the call unbounded. A trailing slash on the base URL
// is dropped since the client appends paths beginning with "/".
func NewClient(cfg config.LLMConfig, apiKey string) *openai.Client {
	config := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		config.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.Timeout > 0 {
		config.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return openai.NewClientWithConfig(config)
}
