package coder

import (
	"fmt"
	"strings"

	"github.com/martinemde/simplecoder/llm"
)

// FileReader resolves a reference name to its current contents.
type FileReader interface {
	ReadFile(name string) (string, error)
}

// Pipeline renders the transcript sent to the model each epoch.
type Pipeline struct {
	Files     FileReader
	StopToken string
}

// NewPipeline returns a Pipeline that reads references through files.
func NewPipeline(files FileReader, stopToken string) *Pipeline {
	if stopToken == "" {
		stopToken = DefaultStopToken
	}
	return &Pipeline{Files: files, StopToken: stopToken}
}

// Compose builds the ordered message list for state: role lines, references,
// target state, requirements, end-of-turn control. It does not modify state.
func (p *Pipeline) Compose(state *RunState) ([]llm.Message, error) {
	if state == nil {
		return nil, &PreconditionError{Field: "state"}
	}
	if err := state.Validate(); err != nil {
		return nil, err
	}

	refs, err := p.referenceMessages(state)
	if err != nil {
		return nil, err
	}

	lines := strings.Split(state.RoleConfig, "\n")
	messages := make([]llm.Message, 0, len(lines)+len(refs)+3)
	for _, line := range lines {
		messages = append(messages, llm.UserMessage(line))
	}
	messages = append(messages, refs...)
	messages = append(messages,
		p.targetMessage(state),
		requirementsMessage(state),
		p.controlMessage(state),
	)
	return messages, nil
}

func (p *Pipeline) referenceMessages(state *RunState) ([]llm.Message, error) {
	if len(state.ReferenceNames) == 0 {
		return nil, nil
	}
	if p.Files == nil {
		return nil, fmt.Errorf("compose: %d reference files but no file reader", len(state.ReferenceNames))
	}
	out := make([]llm.Message, 0, len(state.ReferenceNames))
	for _, name := range state.ReferenceNames {
		content, err := p.Files.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("compose: reading reference %s: %w", name, err)
		}
		out = append(out, llm.UserMessage(fmt.Sprintf(
			"This is one of our project files:\n<input file='%s'>\n%s</input>", name, content)))
	}
	return out, nil
}

func (p *Pipeline) targetMessage(state *RunState) llm.Message {
	if state.HasContent() {
		return llm.UserMessage(fmt.Sprintf(
			"This is our output file:\n<output file_name='%s'>\n%s</output>",
			state.TargetName, state.CurrentContent.Body))
	}
	return llm.UserMessage(fmt.Sprintf("Our output file is %s and it is empty", state.TargetName))
}

func requirementsMessage(state *RunState) llm.Message {
	return llm.UserMessage(fmt.Sprintf(
		"The following are requirements for our output file. <requirements>%s</requirements>",
		state.Requirements))
}

func (p *Pipeline) controlMessage(state *RunState) llm.Message {
	var sb strings.Builder
	if state.HasContent() {
		fmt.Fprintf(&sb, "Analyze the contents of the output file %s. ", state.TargetName)
	}
	if state.ForceCode {
		sb.WriteString("Generate code to meet the specified requirements. ")
	} else {
		sb.WriteString("Generate output for the file contents that is consistent with the specified requirements.  ")
	}
	fmt.Fprintf(&sb, "Reply with %s only if the file is not empty and it meets the defined requirements.", p.StopToken)
	return llm.UserMessage(sb.String())
}
