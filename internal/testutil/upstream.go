// Package testutil holds shared helpers for exercising the relay against a
// fake upstream.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// Upstream is a scripted fake upstream. Each incoming request consumes the
// next scripted reply; once the script is exhausted the last reply repeats.
type Upstream struct {
	Server *httptest.Server

	mu       sync.Mutex
	replies  []Reply
	requests []*http.Request
	bodies   [][]byte
}

// Reply is one scripted upstream response.
type Reply struct {
	// Status is the response status code.
	Status int

	// Header holds extra response headers.
	Header http.Header

	// Body is the response body.
	Body []byte
}

// NewUpstream starts a scripted upstream that is torn down with the test.
func NewUpstream(t *testing.T, replies ...Reply) *Upstream {
	t.Helper()
	if len(replies) == 0 {
		replies = []Reply{{Status: http.StatusOK}}
	}

	u := &Upstream{replies: replies}
	u.Server = httptest.NewServer(http.HandlerFunc(u.serve))
	t.Cleanup(u.Server.Close)
	return u
}

// URL returns the upstream base URL.
func (u *Upstream) URL() string {
	return u.Server.URL
}

func (u *Upstream) serve(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	idx := len(u.requests)
	if idx >= len(u.replies) {
		idx = len(u.replies) - 1
	}
	reply := u.replies[idx]
	u.requests = append(u.requests, r.Clone(r.Context()))

	body := make([]byte, 0)
	if r.Body != nil {
		buf := make([]byte, 64*1024)
		for {
			n, err := r.Body.Read(buf)
			body = append(body, buf[:n]...)
			if err != nil {
				break
			}
		}
	}
	u.bodies = append(u.bodies, body)
	u.mu.Unlock()

	for name, values := range reply.Header {
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}
	w.WriteHeader(reply.Status)
	if len(reply.Body) > 0 {
		w.Write(reply.Body)
	}
}

// RequestCount returns how many requests the upstream has served.
func (u *Upstream) RequestCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.requests)
}

// Request returns the i-th recorded request.
func (u *Upstream) Request(i int) *http.Request {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.requests[i]
}

// AuthHeader returns the named header of the i-th recorded request.
func (u *Upstream) AuthHeader(i int, name string) string {
	return u.Request(i).Header.Get(name)
}
