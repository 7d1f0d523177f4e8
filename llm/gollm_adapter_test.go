package llm

import (
	"context"
	"strings"
	"testing"
)

func TestNewGollmAdapterRejectsUnknownProvider(t *testing.T) {
	_, err := NewGollmAdapter(GollmConfig{Provider: "carrier-pigeon"})
	if KindOf(err) != KindConfiguration {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if !strings.Contains(err.Error(), "openai, anthropic, ollama") {
		t.Errorf("expected supported providers in message, got %q", err.Error())
	}
}

func TestGollmAdapterEmptyPrompt(t *testing.T) {
	adapter := &GollmAdapter{provider: "openai"}
	_, err := adapter.Complete(context.Background(), Request{Messages: []Message{SystemMessage("only system")}})
	if KindOf(err) != KindInvalidRequest {
		t.Fatalf("expected invalid request, got %v", err)
	}
}

func TestGollmAdapterResponse(t *testing.T) {
	adapter := &GollmAdapter{provider: "anthropic", model: "claude-sonnet-4-5"}
	resp := adapter.response("hello there friend", "reply text")

	if resp.Text != "reply text" || resp.Provider != "anthropic" {
		t.Errorf("unexpected response %+v", resp)
	}
	if resp.Model != "claude-sonnet-4-5" {
		t.Errorf("expected adapter model, got %q", resp.Model)
	}
	if !strings.HasPrefix(resp.ID, "resp_") || len(resp.ID) != len("resp_")+8 {
		t.Errorf("unexpected response id %q", resp.ID)
	}
	if resp.Usage.InputTokens != 5 || resp.Usage.OutputTokens != 3 || resp.Usage.TotalTokens != 8 {
		t.Errorf("unexpected usage %+v", resp.Usage)
	}
}

func TestEstimateTokens(t *testing.T) {
	for s, want := range map[string]int{"": 0, "a": 1, "abcd": 1, "abcde": 2} {
		if got := estimateTokens(s); got != want {
			t.Errorf("estimateTokens(%q) = %d, want %d", s, got, want)
		}
	}
}

func TestTranscriptJoinsUserTurns(t *testing.T) {
	system, prompt := Transcript([]Message{
		SystemMessage("be terse"),
		UserMessage("line one"),
		UserMessage(""),
		UserMessage("line three"),
		AssistantMessage("earlier reply"),
	})
	if system != "be terse" {
		t.Errorf("unexpected system %q", system)
	}
	want := "line one\n\nline three\n[Assistant]: earlier reply"
	if prompt != want {
		t.Errorf("expected %q, got %q", want, prompt)
	}
}
