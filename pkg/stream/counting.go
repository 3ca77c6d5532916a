package stream

import (
	"io"
	"sync"
	"sync/atomic"
)

// CountingReader wraps an open byte stream and measures the bytes read
// through it. When the stream ends (EOF, error, or Close), the onDone
// callback fires exactly once with the total byte count, which is how
// streamed response bodies get accounted without buffering.
type CountingReader struct {
	src    io.ReadCloser
	n      atomic.Int64
	once   sync.Once
	onDone func(n int64)
}

// NewCountingReader wraps src. onDone may be nil.
func NewCountingReader(src io.ReadCloser, onDone func(n int64)) *CountingReader {
	return &CountingReader{src: src, onDone: onDone}
}

// Read implements io.Reader.
func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.src.Read(p)
	if n > 0 {
		c.n.Add(int64(n))
	}
	if err != nil {
		c.fire()
	}
	return n, err
}

// Close implements io.Closer. Closing also fires the completion callback,
// covering relays cut short by client cancellation.
func (c *CountingReader) Close() error {
	err := c.src.Close()
	c.fire()
	return err
}

// Count returns the bytes read so far.
func (c *CountingReader) Count() int64 {
	return c.n.Load()
}

func (c *CountingReader) fire() {
	c.once.Do(func() {
		if c.onDone != nil {
			c.onDone(c.n.Load())
		}
	})
}
