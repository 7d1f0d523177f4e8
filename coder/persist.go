package coder

import "context"

// Payload is what gets written to the target. An empty FileName binds the
// body to the run's target. A nil Body is structurally invalid.
type Payload struct {
	FileName string
	Body     *string
}

// PayloadFromBlock builds a payload from an extracted or loaded block.
func PayloadFromBlock(b *CodeBlock) Payload {
	if b == nil {
		return Payload{}
	}
	body := b.Body
	return Payload{FileName: b.FileName, Body: &body}
}

// TextPayload binds a raw body to the target.
func TextPayload(body string) Payload {
	return Payload{Body: &body}
}

// PersistOutcome discriminates PersistResult.
type PersistOutcome int

const (
	// Persisted means the payload was written, or there was nothing to write
	// (a stop-token body).
	Persisted PersistOutcome = iota
	// PolicyDeclined is a recognised, recoverable refusal. The loop keeps running.
	PolicyDeclined
	// Invalid means the payload itself was malformed.
	Invalid
)

func (o PersistOutcome) String() string {
	switch o {
	case Persisted:
		return "persisted"
	case PolicyDeclined:
		return "declined"
	default:
		return "invalid"
	}
}

// PersistResult reports what a Persister did.
type PersistResult struct {
	Outcome PersistOutcome
	Path    string // resolved destination, when known
	Wrote   bool   // false for the stop-token no-op
	Reason  string // why a payload was declined or invalid
}

// Persister writes a payload for target. Filesystem failures are returned as
// errors; policy and validation outcomes are reported in the result.
type Persister interface {
	Persist(ctx context.Context, target string, p Payload) (PersistResult, error)
}
