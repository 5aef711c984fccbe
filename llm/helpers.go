package llm

import (
	"context"
	"strings"

	"github.com/kbukum/audioscribe/provider"
)

// Chat is any chat completion backend, wrapped or not.
type Chat = provider.RequestResponse[CompletionRequest, CompletionResponse]

// Prompt is one system instruction and one user message. An empty System
// sends the user message alone.
type Prompt struct {
	System string
	User   string
}

func (p Prompt) request() CompletionRequest {
	return CompletionRequest{
		SystemPrompt: p.System,
		Messages:     []Message{{Role: RoleUser, Content: p.User}},
	}
}

// TextProvider narrows chat to prompt in, trimmed text out.
func TextProvider(chat Chat, name string) provider.RequestResponse[Prompt, string] {
	return provider.Adapt(chat, name,
		func(_ context.Context, p Prompt) (CompletionRequest, error) { return p.request(), nil },
		func(resp CompletionResponse) (string, error) { return strings.TrimSpace(resp.Content), nil },
	)
}

// Complete sends system and user prompts and returns the trimmed response.
func Complete(ctx context.Context, chat Chat, system, user string) (string, error) {
	return TextProvider(chat, chat.Name()).Execute(ctx, Prompt{System: system, User: user})
}
