package llm

import (
	"bytes"
	"context"
	"testing"
	"time"
)

func TestTranscriptMiddlewareAppendsReplies(t *testing.T) {
	var buf bytes.Buffer
	fixed := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	client := mustClient(t, newMockAdapter("test", "print('hi')"),
		WithMiddleware(transcriptMiddleware(&buf, func() time.Time { return fixed })))

	for i := 0; i < 2; i++ {
		if _, err := client.Complete(context.Background(), hi); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	entry := "2024-03-09 14:05:07\n\nRESPONSE: print('hi')\n\n"
	if got := buf.String(); got != entry+entry {
		t.Errorf("unexpected transcript:\n%q", got)
	}
}

func TestTranscriptMiddlewareSkipsErrors(t *testing.T) {
	var buf bytes.Buffer
	mock := newMockAdapter("test", "")
	mock.err = &Error{Kind: KindServer}
	client := mustClient(t, mock, WithMiddleware(TranscriptMiddleware(&buf)))

	if _, err := client.Complete(context.Background(), hi); err == nil {
		t.Fatal("expected error")
	}
	if buf.Len() != 0 {
		t.Errorf("expected nothing written, got %q", buf.String())
	}
}
