package coder

import "github.com/google/uuid"

const (
	// DefaultStopToken is the literal the model emits when the target meets
	// the requirements.
	DefaultStopToken = "JOBDONE"

	// DefaultMaxEpoch is the epoch budget; the run is forced to end once the
	// epoch index exceeds it.
	DefaultMaxEpoch = 10
)

// CodeBlock is one block extracted from a model reply, or the pre-existing
// content of the target file.
type CodeBlock struct {
	Kind     string `json:"kind"`
	FileName string `json:"file_name,omitempty"` // set by the tag grammar only
	Body     string `json:"body"`
}

// RunState is the single mutable record of a run. It is owned by the
// Controller for the lifetime of Run.
type RunState struct {
	ID             string
	Requirements   string
	TargetName     string
	ReferenceNames []string
	RoleConfig     string
	CurrentContent *CodeBlock
	ForceCode      bool
	LastOutput     string
	HasLastOutput  bool
	Epoch          int
}

// NewRunState returns a state with a fresh run ID.
func NewRunState(requirements, target, roleConfig string) *RunState {
	return &RunState{
		ID:           uuid.New().String(),
		Requirements: requirements,
		TargetName:   target,
		RoleConfig:   roleConfig,
		ForceCode:    true,
	}
}

// Validate checks the fields that must be present before composing.
func (s *RunState) Validate() error {
	switch {
	case s.Requirements == "":
		return &PreconditionError{Field: "requirements"}
	case s.TargetName == "":
		return &PreconditionError{Field: "target_name"}
	case s.RoleConfig == "":
		return &PreconditionError{Field: "role_config"}
	}
	return nil
}

// HasContent reports whether the target has known content.
func (s *RunState) HasContent() bool {
	return s.CurrentContent != nil
}

func (s *RunState) clone() RunState {
	c := *s
	c.ReferenceNames = append([]string(nil), s.ReferenceNames...)
	if s.CurrentContent != nil {
		block := *s.CurrentContent
		c.CurrentContent = &block
	}
	return c
}
