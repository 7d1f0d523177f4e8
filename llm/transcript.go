package llm

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// TranscriptTimeFormat is the timestamp layout written before each entry.
const TranscriptTimeFormat = "2006-01-02 15:04:05"

// TranscriptMiddleware appends every successful reply to w as
//
//	<timestamp>\n\nRESPONSE: <text>\n\n
//
// Write failures are ignored; the transcript is a diagnostic, not part of
// the run's result.
func TranscriptMiddleware(w io.Writer) Middleware {
	return transcriptMiddleware(w, time.Now)
}

func transcriptMiddleware(w io.Writer, now func() time.Time) Middleware {
	var mu sync.Mutex
	return func(ctx context.Context, req Request, next Handler) (*Response, error) {
		resp, err := next(ctx, req)
		if err != nil || w == nil {
			return resp, err
		}
		mu.Lock()
		_, _ = fmt.Fprintf(w, "%s\n\nRESPONSE: %s\n\n", now().Format(TranscriptTimeFormat), resp.Text)
		mu.Unlock()
		return resp, nil
	}
}
