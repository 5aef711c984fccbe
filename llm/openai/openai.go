// Package openai registers the "openai" chat completion dialect, which
// speaks the /chat/completions format shared by OpenAI and compatible servers.
package openai

import (
	"encoding/json"
	"fmt"

	"github.com/kbukum/audioscribe/llm"
)

// DialectName is the registered name of this dialect.
const DialectName = "openai"

func init() {
	llm.RegisterDialect(DialectName, &Dialect{})
}

// Dialect maps llm types to the OpenAI chat completions format.
type Dialect struct{}

// Name returns the dialect name.
func (d *Dialect) Name() string { return DialectName }

// ChatPath returns the chat completions path relative to the base URL.
func (d *Dialect) ChatPath() string { return "/chat/completions" }

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []llm.Message `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message llm.Message `json:"message"`
	} `json:"choices"`
	Usage llm.Usage `json:"usage"`
}

// BuildRequest builds {model, messages, temperature, max_tokens}.
func (d *Dialect) BuildRequest(req llm.CompletionRequest) (any, error) {
	if req.Model == "" {
		return nil, fmt.Errorf("openai: model is required")
	}
	msgs := req.AllMessages()
	if len(msgs) == 0 {
		return nil, fmt.Errorf("openai: at least one message is required")
	}
	return chatRequest{
		Model:       req.Model,
		Messages:    msgs,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}, nil
}

// ParseResponse returns choices[0].message.content.
func (d *Dialect) ParseResponse(body []byte) (*llm.CompletionResponse, error) {
	var r chatResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, err
	}
	if len(r.Choices) == 0 {
		return nil, fmt.Errorf("openai: response has no choices")
	}
	return &llm.CompletionResponse{
		Content: r.Choices[0].Message.Content,
		Model:   r.Model,
		Usage:   r.Usage,
	}, nil
}

var _ llm.Dialect = (*Dialect)(nil)
