package coder

import "fmt"

// PreconditionError reports a required RunState field that was empty when
// the transcript was composed.
type PreconditionError struct {
	Field string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("precondition failed: %s is not set", e.Field)
}

// TransportError wraps a failure of the model-completion call.
type TransportError struct {
	Epoch int
	Cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("model call failed in epoch %d: %v", e.Epoch, e.Cause)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// PersistValidationError reports a structurally invalid persist payload.
type PersistValidationError struct {
	Target string
	Reason string
}

func (e *PersistValidationError) Error() string {
	return fmt.Sprintf("invalid payload for %s: %s", e.Target, e.Reason)
}
