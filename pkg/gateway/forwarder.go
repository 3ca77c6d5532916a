package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"helios-hq/relay/pkg/chain"
)

// Forwarder sends chain requests upstream over an http.Client. It implements
// chain.Forwarder, so the failover stage can re-issue a request through the
// same transport the handler uses.
type Forwarder struct {
	client      *http.Client
	maxBodySize int64
}

// NewForwarder creates a forwarder over client. maxBodySize caps buffered
// response bodies; zero means no cap.
func NewForwarder(client *http.Client, maxBodySize int64) *Forwarder {
	if client == nil {
		client = http.DefaultClient
	}
	return &Forwarder{client: client, maxBodySize: maxBodySize}
}

// Forward implements chain.Forwarder. The returned response always carries
// the open upstream body in Stream; the caller decides whether to buffer it
// or relay it, via BufferResponse or the stream relay.
func (f *Forwarder) Forward(ctx context.Context, req *chain.Request) (*chain.Response, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("building upstream request: %w", err)
	}
	for name, values := range req.Header {
		httpReq.Header[name] = values
	}

	httpResp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("upstream request: %w", err)
	}

	return &chain.Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Stream:     httpResp.Body,
	}, nil
}

// BufferResponse drains a forwarded response's stream into Body, so the
// response phase and the writer work with a fully materialized payload.
func (f *Forwarder) BufferResponse(resp *chain.Response) error {
	if resp.Stream == nil {
		return nil
	}
	defer func() {
		resp.Stream.Close()
		resp.Stream = nil
	}()

	reader := io.Reader(resp.Stream)
	if f.maxBodySize > 0 {
		reader = io.LimitReader(reader, f.maxBodySize+1)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("buffering upstream response: %w", err)
	}
	if f.maxBodySize > 0 && int64(len(data)) > f.maxBodySize {
		return fmt.Errorf("upstream response exceeds buffered body cap (%d bytes)", f.maxBodySize)
	}

	resp.Body = data
	return nil
}
