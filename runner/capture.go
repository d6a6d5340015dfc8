package runner

import (
	"sync"
)

// CaptureBuffer keeps the first maxBytes written to it and discards the rest.
// Writes never fail, so a chatty child cannot break its own capture.
type CaptureBuffer struct {
	maxBytes int

	mu       sync.Mutex
	total    int64
	contents []byte
}

// NewCaptureBuffer creates a buffer holding at most maxBytes.
// A non-positive maxBytes keeps nothing.
func NewCaptureBuffer(maxBytes int) *CaptureBuffer {
	if maxBytes < 0 {
		maxBytes = 0
	}
	return &CaptureBuffer{
		maxBytes: maxBytes,
		contents: make([]byte, 0, min(maxBytes, 4096)),
	}
}

func (b *CaptureBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.total += int64(len(p))
	if room := b.maxBytes - len(b.contents); room > 0 {
		if len(p) > room {
			b.contents = append(b.contents, p[:room]...)
		} else {
			b.contents = append(b.contents, p...)
		}
	}
	return len(p), nil
}

func (b *CaptureBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	cp := make([]byte, len(b.contents))
	copy(cp, b.contents)
	return cp
}

func (b *CaptureBuffer) String() string {
	return string(b.Bytes())
}

func (b *CaptureBuffer) TotalBytes() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.total
}

// Truncated reports whether any written bytes were discarded
func (b *CaptureBuffer) Truncated() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return int64(len(b.contents)) < b.total
}
