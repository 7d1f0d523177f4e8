package coder

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Workspace resolves file names against a working directory and performs
// all file I/O for a run.
type Workspace struct {
	root string
}

// NewWorkspace returns a workspace rooted at dir. A leading ~ is expanded
// and the directory is created if missing.
func NewWorkspace(dir string) (*Workspace, error) {
	root, err := ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	if root == "" {
		root, err = os.Getwd()
		if err != nil {
			return nil, err
		}
	}
	root, err = filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("workspace: %w", err)
	}
	return &Workspace{root: root}, nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expanding %s: %w", path, err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// Root returns the absolute working directory.
func (w *Workspace) Root() string {
	return w.root
}

// Resolve maps a file name to an absolute path. Absolute names and ~ are
// honoured; everything else is relative to the root.
func (w *Workspace) Resolve(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("empty file name")
	}
	expanded, err := ExpandHome(name)
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(expanded) {
		return filepath.Clean(expanded), nil
	}
	return filepath.Join(w.root, expanded), nil
}

// Contains reports whether path lies inside the root.
func (w *Workspace) Contains(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// ReadFile returns the contents of name. A missing file is created empty and
// reads as "".
func (w *Workspace) ReadFile(name string) (string, error) {
	path, err := w.Resolve(name)
	if err != nil {
		return "", fmt.Errorf("read_file: %w", err)
	}
	data, err := os.ReadFile(path)
	if err == nil {
		return string(data), nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("read_file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("read_file: failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, nil, 0644); err != nil {
		return "", fmt.Errorf("read_file: %w", err)
	}
	return "", nil
}

// WriteFile replaces name with content. The write goes to a temporary file
// in the same directory which is then renamed over the destination.
func (w *Workspace) WriteFile(name string, content string) (string, error) {
	path, err := w.Resolve(name)
	if err != nil {
		return "", fmt.Errorf("write_file: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("write_file: failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("write_file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write_file: %w", err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write_file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("write_file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return "", fmt.Errorf("write_file: %w", err)
	}
	return path, nil
}

// OpenAppend opens name for appending, creating it and its parents.
func (w *Workspace) OpenAppend(name string) (*os.File, error) {
	path, err := w.Resolve(name)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
}

// Persister returns a Persister that writes into this workspace.
func (w *Workspace) Persister(stopToken string) *FilePersister {
	if stopToken == "" {
		stopToken = DefaultStopToken
	}
	return &FilePersister{ws: w, stopToken: stopToken}
}

// FilePersister writes payloads as files under a Workspace.
type FilePersister struct {
	ws        *Workspace
	stopToken string
}

// Persist writes p for target. One trailing newline is folded into the line
// break the file always ends with; further blank lines are kept.
func (f *FilePersister) Persist(ctx context.Context, target string, p Payload) (PersistResult, error) {
	if err := ctx.Err(); err != nil {
		return PersistResult{}, err
	}
	if p.Body == nil {
		return PersistResult{Outcome: Invalid, Reason: "payload has no body"}, nil
	}
	body := *p.Body
	if body == f.stopToken {
		return PersistResult{Outcome: Persisted}, nil
	}

	name := p.FileName
	if strings.TrimSpace(name) == "" {
		name = target
	}
	path, err := f.ws.Resolve(name)
	if err != nil {
		return PersistResult{Outcome: Invalid, Reason: err.Error()}, nil
	}
	if !f.ws.Contains(path) {
		return PersistResult{Outcome: PolicyDeclined, Path: path, Reason: "destination is outside the working directory"}, nil
	}
	if strings.TrimSpace(body) == "" {
		return PersistResult{Outcome: PolicyDeclined, Path: path, Reason: "body is empty"}, nil
	}

	written, err := f.ws.WriteFile(path, strings.TrimSuffix(body, "\n")+"\n")
	if err != nil {
		return PersistResult{}, err
	}
	return PersistResult{Outcome: Persisted, Path: written, Wrote: true}, nil
}
