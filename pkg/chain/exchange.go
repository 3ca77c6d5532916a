package chain

import (
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"helios-hq/relay/pkg/rules"
)

// Request is the mutable outgoing half of an Exchange. The transport hands
// it over already decrypted; stages may rewrite headers and body in place
// before it is forwarded.
type Request struct {
	// Method is the HTTP method.
	Method string

	// URL is the full request URL as seen by the client.
	URL string

	// Path is the request path component, used for stream and monitor
	// matching.
	Path string

	// Header holds the request headers. http.Header gives the
	// case-insensitive, last-write-wins semantics the exchange model
	// requires (writes go through Set).
	Header http.Header

	// Body is the buffered request body; nil when the request has none.
	Body []byte
}

// Response is the upstream half of an Exchange. Exactly one of Body and
// Stream carries the payload: buffered responses use Body, streamed
// responses expose the open byte stream in Stream and are relayed without
// buffering.
type Response struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Header holds the response headers.
	Header http.Header

	// Body is the buffered response body; nil for streamed responses.
	Body []byte

	// Stream is the open response body for streamed responses; nil
	// otherwise. The relay, not the chain, is responsible for closing it.
	Stream io.ReadCloser

	// Streamed records the stream gate's decision for this response.
	Streamed bool
}

// Exchange is the unit of work flowing through the chain: one request paired
// with its eventually-produced response. It lives for a single proxied cycle
// and is owned by the chain for that duration.
type Exchange struct {
	// ID uniquely identifies the exchange in logs and events.
	ID string

	// Request is the outgoing request. Never nil.
	Request *Request

	// Response is the upstream response; nil until the response phase.
	Response *Response

	// Verdict is the rule classification for the request URL, recorded by
	// the rule gate stage for downstream stages.
	Verdict rules.Action

	// AccountID is the id of the account whose credential is attached,
	// recorded by the credential stage for downstream stages.
	AccountID string

	// Retried is set once the failover stage has re-issued the request;
	// it caps the exchange at a single retry.
	Retried bool

	// StartedAt is when the exchange entered the chain.
	StartedAt time.Time
}

// NewExchange creates an exchange around an outgoing request, assigning a
// fresh id.
func NewExchange(req *Request) *Exchange {
	if req.Header == nil {
		req.Header = make(http.Header)
	}
	return &Exchange{
		ID:        uuid.NewString(),
		Request:   req,
		Verdict:   rules.ActionAllow,
		StartedAt: time.Now(),
	}
}

// SetHeader rewrites a request header, overwriting any prior value.
func (r *Request) SetHeader(name, value string) {
	if r.Header == nil {
		r.Header = make(http.Header)
	}
	r.Header.Set(name, value)
}

// BodyLen returns the buffered request body length in bytes, zero when the
// body is absent.
func (r *Request) BodyLen() int64 {
	return int64(len(r.Body))
}

// BodyLen returns the buffered response body length in bytes. Streamed
// responses report zero here; their bytes are counted by the relay as they
// pass through.
func (r *Response) BodyLen() int64 {
	return int64(len(r.Body))
}
