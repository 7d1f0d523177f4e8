// Package llm is the model boundary used by the coder loop. It wraps the gollm
// library (github.com/teilomillet/gollm) behind a small provider-agnostic
// client so the loop only ever sees an ordered message list going in and a
// single text reply coming out.
//
// # Architecture
//
//   - ProviderAdapter: one backend (GollmAdapter is the production one)
//   - Client: one adapter behind a middleware chain; fills in the provider
//     and default model and resolves model aliases
//   - Middleware: cross-cutting wrappers such as TranscriptMiddleware
//     (appends every reply to the system log) and RetryMiddleware
//
// # Quick Start
//
//	adapter, _ := llm.NewGollmAdapter(llm.GollmConfig{Provider: "openai"})
//	client, _ := llm.NewClient(adapter,
//	    llm.WithMiddleware(llm.TranscriptMiddleware(logFile)),
//	)
//
//	resp, _ := client.Complete(ctx, llm.Request{
//	    Messages: []llm.Message{llm.UserMessage("Hello")},
//	})
//	fmt.Println(resp.Text)
//
// Errors returned by Complete are *Error values carrying an ErrorKind; use
// KindOf and IsRetryable to classify them.
package llm
