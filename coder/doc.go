// Package coder drives a bounded, iterative conversation with a language
// model to produce or revise one target file.
//
// Each epoch the Controller asks the Pipeline to render the transcript from
// the RunState, sends it across the llm.Completer boundary, hands the reply
// to the Parser and decides whether to persist and whether to continue. A run
// ends when the reply carries the stop token after epoch 0 and the content
// is persisted, or when the epoch budget is exhausted.
//
// # Quick Start
//
//	ws, _ := coder.NewWorkspace("~/temp/simple_coder")
//	state, _ := coder.Prepare(ws, coder.Inputs{
//	    Requirements: "print hello world",
//	    Target:       "hello.py",
//	    RoleConfig:   roleText,
//	    ForceCode:    true,
//	})
//	ctrl := coder.NewController(state, client, ws.Persister(coder.DefaultStopToken), ws)
//	result, err := ctrl.Run(ctx)
//
// Only the first code block of a reply is ever used. Replies that carry
// several blocks lose everything after the first one.
package coder
