package stream

import (
	"mime"
	"net/http"
	"strings"
)

// DefaultContentTypes are the content types treated as streams when none are
// configured.
var DefaultContentTypes = []string{"text/event-stream"}

// Gate decides, from response headers and the request path, whether a
// response body must be forwarded as an unbounded byte stream rather than
// buffered. It is immutable after construction and safe for concurrent use.
type Gate struct {
	contentTypes []string
	pathMarkers  []string
}

// NewGate creates a gate. contentTypes defaults to text/event-stream when
// empty; pathMarkers is the configured list of streaming path fragments and
// may be empty.
func NewGate(contentTypes, pathMarkers []string) *Gate {
	if len(contentTypes) == 0 {
		contentTypes = DefaultContentTypes
	}
	normalized := make([]string, len(contentTypes))
	for i, ct := range contentTypes {
		normalized[i] = strings.ToLower(strings.TrimSpace(ct))
	}
	return &Gate{contentTypes: normalized, pathMarkers: pathMarkers}
}

// ShouldStream reports whether the response must be relayed incrementally.
// It is true when the response content type is one of the configured stream
// types, or when the request path contains any configured streaming marker.
func (g *Gate) ShouldStream(respHeader http.Header, reqPath string) bool {
	if ct := respHeader.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil {
			mediaType = strings.ToLower(strings.TrimSpace(ct))
		}
		for _, want := range g.contentTypes {
			if mediaType == want {
				return true
			}
		}
	}

	for _, marker := range g.pathMarkers {
		if marker != "" && strings.Contains(reqPath, marker) {
			return true
		}
	}

	return false
}
