package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a failure at the model boundary.
type ErrorKind string

const (
	KindAuthentication ErrorKind = "authentication"
	KindAccessDenied   ErrorKind = "access_denied"
	KindNotFound       ErrorKind = "not_found"
	KindInvalidRequest ErrorKind = "invalid_request"
	KindContextLength  ErrorKind = "context_length"
	KindContentFilter  ErrorKind = "content_filter"
	KindRateLimit      ErrorKind = "rate_limit"
	KindServer         ErrorKind = "server"
	KindTimeout        ErrorKind = "timeout"
	KindAborted        ErrorKind = "aborted"
	KindConfiguration  ErrorKind = "configuration"
	KindUnknown        ErrorKind = "unknown"
)

// Retryable reports whether a failure of this kind may succeed on retry.
func (k ErrorKind) Retryable() bool {
	switch k {
	case KindRateLimit, KindServer, KindTimeout, KindUnknown:
		return true
	}
	return false
}

// Error is returned by everything in this package that talks to a provider.
type Error struct {
	Kind     ErrorKind
	Provider string
	Status   int // HTTP status when known
	Message  string
	Cause    error
}

func (e *Error) Error() string {
	var sb strings.Builder
	if e.Provider != "" {
		fmt.Fprintf(&sb, "[%s] ", e.Provider)
	}
	sb.WriteString(string(e.Kind))
	if e.Status != 0 {
		fmt.Fprintf(&sb, " (status %d)", e.Status)
	}
	if e.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	}
	if e.Cause != nil && e.Cause.Error() != e.Message {
		fmt.Fprintf(&sb, ": %v", e.Cause)
	}
	return sb.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

var statusKinds = map[int]ErrorKind{
	400: KindInvalidRequest,
	401: KindAuthentication,
	403: KindAccessDenied,
	404: KindNotFound,
	408: KindTimeout,
	413: KindContextLength,
	422: KindInvalidRequest,
	429: KindRateLimit,
	500: KindServer,
	502: KindServer,
	503: KindServer,
	504: KindServer,
}

// ErrorFromStatusCode maps an HTTP status to an *Error.
func ErrorFromStatusCode(status int, message, provider string) error {
	return statusError(status, message, provider)
}

func statusError(status int, message, provider string) *Error {
	kind, ok := statusKinds[status]
	if !ok {
		kind = KindUnknown
	}
	return &Error{Kind: kind, Provider: provider, Status: status, Message: message}
}

// messageRules classify backend errors that only carry text. The first rule
// with a matching needle wins. A rule with a status is resolved through
// statusKinds; the rest name their kind directly.
var messageRules = []struct {
	status  int
	kind    ErrorKind
	needles []string
}{
	{status: 401, needles: []string{"401", "unauthorized", "invalid api key"}},
	{status: 403, needles: []string{"403", "forbidden"}},
	{status: 404, needles: []string{"404", "not found"}},
	{status: 429, needles: []string{"429", "rate limit"}},
	{status: 413, needles: []string{"413", "context length", "too many tokens"}},
	{status: 502, needles: []string{"502", "bad gateway"}},
	{status: 503, needles: []string{"503", "service unavailable", "overloaded"}},
	{status: 500, needles: []string{"500", "internal server"}},
	{kind: KindTimeout, needles: []string{"timeout"}},
	{kind: KindContentFilter, needles: []string{"content filter", "safety"}},
}

// ClassifyError wraps a backend error as an *Error, inferring the kind from
// context cancellation or the error text.
func ClassifyError(err error, provider string) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return err
	}
	switch {
	case errors.Is(err, context.Canceled):
		return &Error{Kind: KindAborted, Provider: provider, Cause: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindTimeout, Provider: provider, Cause: err}
	}

	msg := err.Error()
	lower := strings.ToLower(msg)
	for _, rule := range messageRules {
		for _, needle := range rule.needles {
			if !strings.Contains(lower, needle) {
				continue
			}
			if rule.status != 0 {
				e := statusError(rule.status, msg, provider)
				e.Cause = err
				return e
			}
			return &Error{Kind: rule.kind, Provider: provider, Message: msg, Cause: err}
		}
	}
	return &Error{Kind: KindUnknown, Provider: provider, Message: msg, Cause: err}
}

// IsRetryable reports whether err is safe to retry. Cancellation never is;
// errors from outside this package are assumed transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if kind := KindOf(err); kind != "" {
		return kind.Retryable()
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
