package openai

import (
	"encoding/json"
	"testing"

	"github.com/kbukum/audioscribe/llm"
)

func TestRegistered(t *testing.T) {
	d, err := llm.GetDialect(DialectName)
	if err != nil || d.Name() != "openai" {
		t.Fatalf("GetDialect = %v, %v", d, err)
	}
}

func TestBuildRequest(t *testing.T) {
	body, err := (&Dialect{}).BuildRequest(llm.CompletionRequest{
		Model:        "gpt-4-turbo",
		SystemPrompt: "You are a professional translator.",
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: "hola"}},
		Temperature:  0.3,
		MaxTokens:    4000,
	})
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}
	raw, _ := json.Marshal(body)
	var got map[string]any
	_ = json.Unmarshal(raw, &got)
	if got["model"] != "gpt-4-turbo" || got["temperature"] != 0.3 || got["max_tokens"] != float64(4000) {
		t.Errorf("unexpected body %s", raw)
	}
	msgs := got["messages"].([]any)
	if len(msgs) != 2 || msgs[0].(map[string]any)["role"] != "system" {
		t.Errorf("unexpected messages %v", msgs)
	}
}

func TestBuildRequest_Validation(t *testing.T) {
	if _, err := (&Dialect{}).BuildRequest(llm.CompletionRequest{Messages: []llm.Message{{Role: "user", Content: "x"}}}); err == nil {
		t.Error("expected error without model")
	}
	if _, err := (&Dialect{}).BuildRequest(llm.CompletionRequest{Model: "m"}); err == nil {
		t.Error("expected error without messages")
	}
}

func TestParseResponse(t *testing.T) {
	resp, err := (&Dialect{}).ParseResponse([]byte(`{"model":"gpt-4-turbo","choices":[{"message":{"role":"assistant","content":"привет"}}],"usage":{"total_tokens":12}}`))
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if resp.Content != "привет" || resp.Usage.TotalTokens != 12 {
		t.Errorf("unexpected response %+v", resp)
	}
	if _, err := (&Dialect{}).ParseResponse([]byte(`{"choices":[]}`)); err == nil {
		t.Error("expected error for empty choices")
	}
}
