package llm

// ModelInfo describes a known model in the catalog.
type ModelInfo struct {
	ID            string   `json:"id"`
	Provider      string   `json:"provider"`
	DisplayName   string   `json:"display_name"`
	ContextWindow int      `json:"context_window"`
	Aliases       []string `json:"aliases,omitempty"`
}

// Models is the built-in catalog used to pick default models and to infer a
// provider from a bare model name. Order within a provider is newest first.
var Models = []ModelInfo{
	{ID: "claude-sonnet-4-5", Provider: "anthropic", DisplayName: "Claude Sonnet 4.5", ContextWindow: 200000, Aliases: []string{"sonnet", "claude-sonnet"}},
	{ID: "claude-haiku-4-5", Provider: "anthropic", DisplayName: "Claude Haiku 4.5", ContextWindow: 200000, Aliases: []string{"haiku"}},
	{ID: "gpt-4o", Provider: "openai", DisplayName: "GPT-4o", ContextWindow: 128000},
	{ID: "gpt-4o-mini", Provider: "openai", DisplayName: "GPT-4o Mini", ContextWindow: 128000, Aliases: []string{"4o-mini"}},
	{ID: "llama3.1", Provider: "ollama", DisplayName: "Llama 3.1 (local)", ContextWindow: 128000},
}

// Providers lists the provider identifiers the gollm adapter is configured for.
var Providers = []string{"openai", "anthropic", "ollama"}

// GetModelInfo looks up a model by ID or alias. Returns nil if not found.
func GetModelInfo(modelID string) *ModelInfo {
	if modelID == "" {
		return nil
	}
	for i := range Models {
		if Models[i].ID == modelID {
			return &Models[i]
		}
		for _, alias := range Models[i].Aliases {
			if alias == modelID {
				return &Models[i]
			}
		}
	}
	return nil
}

// DefaultModel returns the first catalog entry for provider, or nil.
func DefaultModel(provider string) *ModelInfo {
	for i := range Models {
		if Models[i].Provider == provider {
			return &Models[i]
		}
	}
	return nil
}

// KnownProvider reports whether provider is one the adapter supports.
func KnownProvider(provider string) bool {
	for _, p := range Providers {
		if p == provider {
			return true
		}
	}
	return false
}
