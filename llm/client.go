package llm

import (
	"context"
	"fmt"
)

// Handler completes one request.
type Handler func(ctx context.Context, req Request) (*Response, error)

// Middleware wraps a Handler. It may inspect or alter the request, call next
// zero or more times, and inspect the response.
type Middleware func(ctx context.Context, req Request, next Handler) (*Response, error)

// Client is one provider adapter behind a middleware chain. The chain is
// built once, at construction.
type Client struct {
	adapter      ProviderAdapter
	defaultModel string
	middleware   []Middleware
	handler      Handler
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithMiddleware appends middleware. The first one registered runs outermost.
func WithMiddleware(mw ...Middleware) ClientOption {
	return func(c *Client) {
		c.middleware = append(c.middleware, mw...)
	}
}

// WithDefaultModel sets the model used when a request names none.
func WithDefaultModel(model string) ClientOption {
	return func(c *Client) {
		c.defaultModel = model
	}
}

// NewClient wraps adapter.
func NewClient(adapter ProviderAdapter, opts ...ClientOption) (*Client, error) {
	if adapter == nil {
		return nil, &Error{Kind: KindConfiguration, Message: "no provider adapter"}
	}
	c := &Client{adapter: adapter}
	for _, opt := range opts {
		opt(c)
	}
	c.handler = chain(adapter.Complete, c.middleware)
	return c, nil
}

func chain(h Handler, mw []Middleware) Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		m, next := mw[i], h
		h = func(ctx context.Context, req Request) (*Response, error) {
			return m(ctx, req, next)
		}
	}
	return h
}

// Complete fills in the provider and model, resolves model aliases, and sends
// req through the middleware chain.
func (c *Client) Complete(ctx context.Context, req Request) (*Response, error) {
	provider := c.adapter.Name()
	if len(req.Messages) == 0 {
		return nil, &Error{Kind: KindInvalidRequest, Provider: provider, Message: "request has no messages"}
	}
	if req.Provider != "" && req.Provider != provider {
		return nil, &Error{Kind: KindConfiguration, Message: fmt.Sprintf("provider %q is not configured (client uses %q)", req.Provider, provider)}
	}
	req.Provider = provider

	if req.Model == "" {
		req.Model = c.defaultModel
	}
	if info := GetModelInfo(req.Model); info != nil {
		if info.Provider != provider {
			return nil, &Error{Kind: KindConfiguration, Provider: provider,
				Message: fmt.Sprintf("model %q belongs to provider %q", req.Model, info.Provider)}
		}
		req.Model = info.ID
	}

	return c.handler(ctx, req)
}

// Close releases the adapter's resources, if it holds any.
func (c *Client) Close() error {
	if closer, ok := c.adapter.(Closer); ok {
		return closer.Close()
	}
	return nil
}
