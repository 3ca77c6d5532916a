package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// relayBufferSize is the chunk size for incremental forwarding. Small enough
// to keep event-stream latency low, large enough to not thrash on bulk
// bodies.
const relayBufferSize = 32 * 1024

// Relay copies src to dst incrementally, flushing after every chunk so
// event-stream payloads reach the client as they arrive. It stops promptly
// when ctx is cancelled (client connection closed) and always closes src.
//
// Returns the number of bytes relayed. A cancelled relay returns ctx.Err().
func Relay(ctx context.Context, dst io.Writer, src io.ReadCloser) (int64, error) {
	defer src.Close()

	flusher, _ := dst.(http.Flusher)
	buf := make([]byte, relayBufferSize)
	var written int64

	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		n, readErr := src.Read(buf)
		if n > 0 {
			wn, writeErr := dst.Write(buf[:n])
			written += int64(wn)
			if writeErr != nil {
				return written, fmt.Errorf("relaying stream: %w", writeErr)
			}
			if flusher != nil {
				flusher.Flush()
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return written, nil
			}
			// Cancellation surfaces as a read error on the upstream body;
			// report the context error for callers that care about the
			// distinction.
			if ctxErr := ctx.Err(); ctxErr != nil {
				return written, ctxErr
			}
			return written, fmt.Errorf("reading stream: %w", readErr)
		}
	}
}
