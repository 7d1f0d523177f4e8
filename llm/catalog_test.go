package llm

import "testing"

func TestGetModelInfo(t *testing.T) {
	if info := GetModelInfo("gpt-4o"); info == nil || info.Provider != "openai" {
		t.Errorf("expected gpt-4o in openai, got %+v", info)
	}
	if info := GetModelInfo("haiku"); info == nil || info.ID != "claude-haiku-4-5" {
		t.Errorf("expected alias lookup, got %+v", info)
	}
	if GetModelInfo("") != nil || GetModelInfo("no-such-model") != nil {
		t.Error("expected nil for unknown models")
	}
}

func TestDefaultModel(t *testing.T) {
	for _, p := range Providers {
		info := DefaultModel(p)
		if info == nil {
			t.Errorf("provider %q has no default model", p)
			continue
		}
		if info.Provider != p {
			t.Errorf("default for %q belongs to %q", p, info.Provider)
		}
	}
	if DefaultModel("nope") != nil {
		t.Error("expected nil for unknown provider")
	}
}

func TestKnownProvider(t *testing.T) {
	if !KnownProvider("anthropic") || KnownProvider("gemini") {
		t.Error("unexpected KnownProvider result")
	}
}
