package dispatch

import (
	"bytes"
	"log/slog"
	"sync"
)

// lockedBuffer is a goroutine-safe log sink; zombie handlers may log after
// the dispatch under test already returned.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// captureLogger returns a logger writing to an in-memory sink and a func
// reading everything logged so far.
func captureLogger() (*slog.Logger, func() string) {
	buf := &lockedBuffer{}
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger, buf.String
}
