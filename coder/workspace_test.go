package coder

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func newTestWorkspace(t *testing.T) *Workspace {
	t.Helper()
	ws, err := NewWorkspace(t.TempDir())
	if err != nil {
		t.Fatalf("NewWorkspace: %v", err)
	}
	return ws
}

func readBack(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

func TestNewWorkspaceCreatesRoot(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "work")
	ws, err := NewWorkspace(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info, err := os.Stat(ws.Root()); err != nil || !info.IsDir() {
		t.Fatalf("expected root directory to exist: %v", err)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	got, err := ExpandHome("~/temp/simple_coder")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := filepath.Join(home, "temp", "simple_coder"); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if got, _ := ExpandHome("relative/~x"); got != "relative/~x" {
		t.Errorf("unexpected expansion %q", got)
	}
}

func TestReadFileCreatesMissing(t *testing.T) {
	ws := newTestWorkspace(t)

	content, err := ws.ReadFile("sub/new.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if content != "" {
		t.Errorf("expected empty content, got %q", content)
	}
	if _, err := os.Stat(filepath.Join(ws.Root(), "sub", "new.txt")); err != nil {
		t.Errorf("expected file to be created: %v", err)
	}
}

func TestWriteFileReplaces(t *testing.T) {
	ws := newTestWorkspace(t)

	if _, err := ws.WriteFile("a.txt", "one"); err != nil {
		t.Fatal(err)
	}
	path, err := ws.WriteFile("a.txt", "two")
	if err != nil {
		t.Fatal(err)
	}
	if got := readBack(t, path); got != "two" {
		t.Errorf("expected %q, got %q", "two", got)
	}
	entries, _ := os.ReadDir(ws.Root())
	if len(entries) != 1 {
		t.Errorf("expected no temporary files left behind, found %d entries", len(entries))
	}
}

func TestPersistRoundTrip(t *testing.T) {
	ws := newTestWorkspace(t)
	p := ws.Persister(DefaultStopToken)

	tests := []struct {
		body string
		want string
	}{
		{"print(1)", "print(1)\n"},
		{"print(1)\n", "print(1)\n"},
		{"print(1)\n\n\n", "print(1)\n\n\n"},
		{"x\n\n\n", "x\n\n\n"},
		{"\tindented\n", "\tindented\n"},
		{"a\n\nb", "a\n\nb\n"},
	}
	for _, tt := range tests {
		res, err := p.Persist(context.Background(), "out.py", TextPayload(tt.body))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Outcome != Persisted || !res.Wrote {
			t.Fatalf("expected a write, got %+v", res)
		}
		if got := readBack(t, res.Path); got != tt.want {
			t.Errorf("body %q: expected %q on disk, got %q", tt.body, tt.want, got)
		}
	}
}

func TestPersistStopTokenIsNoop(t *testing.T) {
	ws := newTestWorkspace(t)
	p := ws.Persister("")

	path, err := ws.WriteFile("keep.txt", "original\n")
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		res, err := p.Persist(context.Background(), "keep.txt", TextPayload(DefaultStopToken))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Outcome != Persisted || res.Wrote {
			t.Errorf("expected persisted without a write, got %+v", res)
		}
	}
	if got := readBack(t, path); got != "original\n" {
		t.Errorf("file changed to %q", got)
	}
}

func TestPersistCreatesParents(t *testing.T) {
	ws := newTestWorkspace(t)
	p := ws.Persister(DefaultStopToken)

	res, err := p.Persist(context.Background(), "ignored.txt", Payload{FileName: "pkg/deep/mod.go", Body: strPtr("package deep")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := filepath.Join(ws.Root(), "pkg", "deep", "mod.go")
	if res.Path != want {
		t.Errorf("expected path %q, got %q", want, res.Path)
	}
	if got := readBack(t, want); got != "package deep\n" {
		t.Errorf("unexpected content %q", got)
	}
}

func TestPersistDeclines(t *testing.T) {
	ws := newTestWorkspace(t)
	p := ws.Persister(DefaultStopToken)

	tests := []struct {
		name    string
		payload Payload
	}{
		{"blank body", TextPayload(" \n\t")},
		{"parent escape", Payload{FileName: "../escape.txt", Body: strPtr("x")}},
		{"absolute outside root", Payload{FileName: filepath.Join(os.TempDir(), "elsewhere", "x.txt"), Body: strPtr("x")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := p.Persist(context.Background(), "out.txt", tt.payload)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Outcome != PolicyDeclined {
				t.Errorf("expected declined, got %v", res.Outcome)
			}
			if res.Reason == "" {
				t.Error("expected a reason")
			}
			if res.Wrote {
				t.Error("declined payload must not be written")
			}
		})
	}
}

func TestPersistInvalid(t *testing.T) {
	ws := newTestWorkspace(t)
	p := ws.Persister(DefaultStopToken)

	res, err := p.Persist(context.Background(), "out.txt", Payload{FileName: "out.txt"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != Invalid {
		t.Errorf("expected invalid, got %v", res.Outcome)
	}

	res, err = p.Persist(context.Background(), "  ", TextPayload("x"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != Invalid {
		t.Errorf("expected invalid for an empty destination, got %v", res.Outcome)
	}
}

func TestPersistCancelled(t *testing.T) {
	ws := newTestWorkspace(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := ws.Persister("").Persist(ctx, "x.txt", TextPayload("x")); err == nil {
		t.Fatal("expected context error")
	}
}

func TestOpenAppend(t *testing.T) {
	ws := newTestWorkspace(t)

	for _, line := range []string{"a\n", "b\n"} {
		f, err := ws.OpenAppend("logs/system-log.txt")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := f.WriteString(line); err != nil {
			t.Fatal(err)
		}
		f.Close()
	}
	if got := readBack(t, filepath.Join(ws.Root(), "logs", "system-log.txt")); got != "a\nb\n" {
		t.Errorf("unexpected log content %q", got)
	}
}

func strPtr(s string) *string { return &s }
