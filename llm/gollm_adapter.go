package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/teilomillet/gollm"
)

// GollmConfig configures a GollmAdapter.
type GollmConfig struct {
	Provider    string
	APIKey      string // empty lets gollm read the provider's usual env var
	Model       string // empty picks the catalog default for Provider
	MaxTokens   int
	Temperature float64
	Extra       []gollm.ConfigOption
}

// GollmAdapter is the production ProviderAdapter. gollm takes one prompt
// string, so the message list is flattened with Transcript.
type GollmAdapter struct {
	provider string
	llm      gollm.LLM

	// Per-request options mutate the shared gollm client, so calls are
	// serialized.
	mu    sync.Mutex
	model string
}

// NewGollmAdapter builds a gollm client for cfg.Provider. gollm's own retries
// are disabled; RetryMiddleware owns that policy.
func NewGollmAdapter(cfg GollmConfig) (*GollmAdapter, error) {
	if !KnownProvider(cfg.Provider) {
		return nil, &Error{Kind: KindConfiguration, Provider: cfg.Provider,
			Message: fmt.Sprintf("unsupported provider (supported: %s)", strings.Join(Providers, ", "))}
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel(cfg.Provider).ID
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	opts := []gollm.ConfigOption{
		gollm.SetProvider(cfg.Provider),
		gollm.SetModel(model),
		gollm.SetMaxTokens(maxTokens),
		gollm.SetTemperature(cfg.Temperature),
		gollm.SetMaxRetries(0),
		gollm.SetLogLevel(gollm.LogLevelWarn),
	}
	if cfg.APIKey != "" {
		opts = append(opts, gollm.SetAPIKey(cfg.APIKey))
	}
	opts = append(opts, cfg.Extra...)

	l, err := gollm.NewLLM(opts...)
	if err != nil {
		return nil, &Error{Kind: KindConfiguration, Provider: cfg.Provider, Message: "creating gollm client", Cause: err}
	}
	return &GollmAdapter{provider: cfg.Provider, llm: l, model: model}, nil
}

// Name returns the provider identifier.
func (a *GollmAdapter) Name() string {
	return a.provider
}

// Complete sends req as a single gollm prompt.
func (a *GollmAdapter) Complete(ctx context.Context, req Request) (*Response, error) {
	system, text := Transcript(req.Messages)
	if strings.TrimSpace(text) == "" {
		return nil, &Error{Kind: KindInvalidRequest, Provider: a.provider, Message: "prompt is empty"}
	}

	var promptOpts []gollm.PromptOption
	if system != "" {
		promptOpts = append(promptOpts, gollm.WithSystemPrompt(system, gollm.CacheTypeEphemeral))
	}
	if req.MaxTokens != nil {
		promptOpts = append(promptOpts, gollm.WithMaxLength(*req.MaxTokens))
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if req.Model != "" && req.Model != a.model {
		a.llm.SetOption("model", req.Model)
		a.model = req.Model
	}
	if req.Temperature != nil {
		a.llm.SetOption("temperature", *req.Temperature)
	}

	reply, err := a.llm.Generate(ctx, gollm.NewPrompt(text, promptOpts...))
	if err != nil {
		return nil, ClassifyError(err, a.provider)
	}
	return a.response(system+text, reply), nil
}

func (a *GollmAdapter) response(prompt, reply string) *Response {
	in, out := estimateTokens(prompt), estimateTokens(reply)
	return &Response{
		ID:           "resp_" + uuid.New().String()[:8],
		Model:        a.model,
		Provider:     a.provider,
		Text:         reply,
		FinishReason: FinishReason{Reason: "stop"},
		Usage:        Usage{InputTokens: in, OutputTokens: out, TotalTokens: in + out},
	}
}

// estimateTokens approximates four characters per token; gollm does not
// report usage.
func estimateTokens(s string) int {
	return (len(s) + 3) / 4
}
