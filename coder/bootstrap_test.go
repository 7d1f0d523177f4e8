package coder

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPrepareEmptyTarget(t *testing.T) {
	ws := newTestWorkspace(t)

	state, err := Prepare(ws, Inputs{
		Requirements: "print hello world",
		Target:       " hello.py ",
		References:   []string{"a.py"},
		RoleConfig:   "role",
		ForceCode:    true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.TargetName != "hello.py" {
		t.Errorf("expected trimmed target, got %q", state.TargetName)
	}
	if state.HasContent() {
		t.Errorf("expected no content, got %+v", state.CurrentContent)
	}
	if state.Epoch != 0 || state.HasLastOutput || !state.ForceCode {
		t.Errorf("unexpected initial state %+v", state)
	}
	if state.ID == "" {
		t.Error("expected a run ID")
	}
	if _, err := os.Stat(filepath.Join(ws.Root(), "hello.py")); err != nil {
		t.Errorf("expected the missing target to be created: %v", err)
	}
}

func TestPrepareExistingTarget(t *testing.T) {
	ws := newTestWorkspace(t)
	if _, err := ws.WriteFile("app.go", "package app\n"); err != nil {
		t.Fatal(err)
	}

	state, err := Prepare(ws, Inputs{Requirements: "r", Target: "app.go", RoleConfig: "role"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := &CodeBlock{Kind: "file", FileName: "app.go", Body: "package app\n"}
	if diff := cmp.Diff(want, state.CurrentContent); diff != "" {
		t.Errorf("content mismatch (-want +got):\n%s", diff)
	}
	if state.ForceCode {
		t.Error("ForceCode should follow the inputs")
	}
}

func TestPrepareRequirementsFile(t *testing.T) {
	ws := newTestWorkspace(t)
	if _, err := ws.WriteFile("reqs/todo.md", "- add a CLI\n"); err != nil {
		t.Fatal(err)
	}

	state, err := Prepare(ws, Inputs{Requirements: ">> reqs/todo.md", Target: "cli.go", RoleConfig: "role"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Requirements != "- add a CLI\n" {
		t.Errorf("unexpected requirements %q", state.Requirements)
	}

	if _, err := Prepare(ws, Inputs{Requirements: ">>", Target: "cli.go", RoleConfig: "role"}); err == nil {
		t.Error("expected an error for a bare >>")
	}
}

func TestRequirementsFile(t *testing.T) {
	tests := []struct {
		in   string
		name string
		ok   bool
	}{
		{">>spec.txt", "spec.txt", true},
		{">>  spaced.txt ", "spaced.txt", true},
		{"write >>x", "", false},
		{"plain", "", false},
		{">>", "", false},
	}
	for _, tt := range tests {
		name, ok := RequirementsFile(tt.in)
		if name != tt.name || ok != tt.ok {
			t.Errorf("RequirementsFile(%q) = %q, %v; want %q, %v", tt.in, name, ok, tt.name, tt.ok)
		}
	}
}

func TestSplitReferenceNames(t *testing.T) {
	got := SplitReferenceNames("a.py b.py", "c.py", "  ", "d.py\te.py")
	want := []string{"a.py", "b.py", "c.py", "d.py", "e.py"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
	if SplitReferenceNames() != nil {
		t.Error("expected nil for no values")
	}
}

func TestLoadRoleConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "role.txt")
	if err := os.WriteFile(path, []byte("You are a coder.\nBe terse."), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadRoleConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "You are a coder.\nBe terse." {
		t.Errorf("unexpected role config %q", got)
	}

	if _, err := LoadRoleConfig(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected an error for a missing role config")
	}
}
