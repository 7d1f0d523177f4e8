package coder

import (
	"fmt"
	"os"
	"strings"
)

// requirementsFilePrefix marks requirements that name a file to read.
const requirementsFilePrefix = ">>"

// Inputs are the caller-supplied pieces of a run.
type Inputs struct {
	Requirements string   // literal text, or ">>path" to read it from the workspace
	Target       string   // file to produce
	References   []string // read-only context files
	RoleConfig   string   // instruction text
	ForceCode    bool
}

// Prepare builds the initial RunState. Requirements given as ">>path" are
// loaded from the workspace, and an existing target's content becomes the
// starting content. A missing target is created empty.
func Prepare(ws *Workspace, in Inputs) (*RunState, error) {
	requirements, err := ResolveRequirements(ws, in.Requirements)
	if err != nil {
		return nil, err
	}

	state := NewRunState(requirements, strings.TrimSpace(in.Target), in.RoleConfig)
	state.ForceCode = in.ForceCode
	state.ReferenceNames = append([]string(nil), in.References...)

	if state.TargetName != "" {
		content, err := ws.ReadFile(state.TargetName)
		if err != nil {
			return nil, fmt.Errorf("loading target: %w", err)
		}
		if content != "" {
			state.CurrentContent = &CodeBlock{Kind: "file", FileName: state.TargetName, Body: content}
		}
	}
	return state, nil
}

// ResolveRequirements returns req, or the contents of the file it names when
// it starts with ">>".
func ResolveRequirements(ws *Workspace, req string) (string, error) {
	if !strings.HasPrefix(req, requirementsFilePrefix) {
		return req, nil
	}
	name, ok := RequirementsFile(req)
	if !ok {
		return "", fmt.Errorf("requirements: %q names no file", req)
	}
	text, err := ws.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("requirements: %w", err)
	}
	return text, nil
}

// RequirementsFile returns the file named by a ">>path" requirement.
func RequirementsFile(req string) (string, bool) {
	if !strings.HasPrefix(req, requirementsFilePrefix) {
		return "", false
	}
	name := strings.TrimSpace(strings.TrimPrefix(req, requirementsFilePrefix))
	return name, name != ""
}

// SplitReferenceNames accepts names given either as separate values or as
// whitespace-separated lists, and flattens them in order.
func SplitReferenceNames(values ...string) []string {
	var names []string
	for _, v := range values {
		names = append(names, strings.Fields(v)...)
	}
	return names
}

// LoadRoleConfig reads the instruction file. Unlike workspace files it is
// resolved against the process directory and must exist.
func LoadRoleConfig(path string) (string, error) {
	expanded, err := ExpandHome(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return "", fmt.Errorf("role config: %w", err)
	}
	return string(data), nil
}
