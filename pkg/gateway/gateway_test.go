package gateway

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"helios-hq/relay/internal/testutil"
	"helios-hq/relay/pkg/accounts"
	"helios-hq/relay/pkg/accounts/strategies"
	"helios-hq/relay/pkg/chain"
	"helios-hq/relay/pkg/chain/stages"
	"helios-hq/relay/pkg/rules"
	"helios-hq/relay/pkg/stream"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// relayFixture wires a full proxy pipeline against a scripted upstream.
type relayFixture struct {
	pool    *accounts.Pool
	handler *Handler
	proxy   *httptest.Server
}

func newRelayFixture(t *testing.T, accountList []accounts.Account, ruleList []rules.Rule) *relayFixture {
	t.Helper()
	logger := discardLogger()

	pool, err := accounts.NewPool(accountList, strategies.NewRoundRobin(), accounts.WithLogger(logger))
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}
	matcher, err := rules.NewMatcher(ruleList)
	if err != nil {
		t.Fatalf("NewMatcher() error = %v", err)
	}

	forwarder := NewForwarder(http.DefaultClient, 1<<20)
	credCfg := stages.CredentialConfig{Scheme: "Bearer"}
	c := chain.New(logger,
		stages.NewRuleGate(matcher, logger),
		stages.NewCredential(pool, credCfg, logger, nil),
		stages.NewUsage(pool, logger, nil),
		stages.NewFailover(pool, forwarder, stages.FailoverConfig{Scheme: "Bearer"}, logger, nil),
	)

	handler := NewHandler(c, forwarder, stream.NewGate(nil, nil), HandlerConfig{
		UpstreamTimeout:    5 * time.Second,
		HeaderStageTimeout: 2 * time.Second,
		MaxBodySize:        1 << 20,
	}, logger, nil)

	proxy := httptest.NewServer(withRecovery(logger, withRequestID(handler)))
	t.Cleanup(proxy.Close)

	return &relayFixture{pool: pool, handler: handler, proxy: proxy}
}

// proxiedRequest sends a request through the relay, targeting the given
// upstream host via the Host header (origin-form deployment).
func (f *relayFixture) proxiedRequest(t *testing.T, method, upstreamURL, path string, body io.Reader) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, f.proxy.URL+path, body)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Host = strings.TrimPrefix(upstreamURL, "http://")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("sending request: %v", err)
	}
	return resp
}

func TestProxyRewritesCredentialAndForwards(t *testing.T) {
	upstream := testutil.NewUpstream(t, testutil.Reply{
		Status: http.StatusOK,
		Body:   []byte(`{"result":"ok"}`),
	})

	f := newRelayFixture(t, []accounts.Account{
		{ID: "acct-a", Secret: "sk-aaa"},
	}, nil)

	resp := f.proxiedRequest(t, http.MethodPost, upstream.URL(), "/v1/messages",
		strings.NewReader(`{"prompt":"hi"}`))
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != `{"result":"ok"}` {
		t.Errorf("body = %q", body)
	}
	if resp.Header.Get(RequestIDHeader) == "" {
		t.Error("response missing request id header")
	}

	if upstream.RequestCount() != 1 {
		t.Fatalf("upstream requests = %d, want 1", upstream.RequestCount())
	}
	if got := upstream.AuthHeader(0, "Authorization"); got != "Bearer sk-aaa" {
		t.Errorf("upstream Authorization = %q, want rewritten pool credential", got)
	}

	state := f.pool.Snapshot()[0]
	if state.Usage.Requests != 1 {
		t.Errorf("requests = %d, want 1", state.Usage.Requests)
	}
	if state.Usage.BytesIn != int64(len(`{"prompt":"hi"}`)) {
		t.Errorf("BytesIn = %d, want %d", state.Usage.BytesIn, len(`{"prompt":"hi"}`))
	}
	if state.Usage.BytesOut != int64(len(`{"result":"ok"}`)) {
		t.Errorf("BytesOut = %d, want %d", state.Usage.BytesOut, len(`{"result":"ok"}`))
	}
}

func TestProxyBlocksByRuleWithoutUpstreamContact(t *testing.T) {
	upstream := testutil.NewUpstream(t)

	f := newRelayFixture(t, []accounts.Account{
		{ID: "acct-a", Secret: "sk-aaa"},
	}, []rules.Rule{
		{Kind: rules.MatchContains, Pattern: "sentry.io", Action: rules.ActionBlock},
	})

	req, err := http.NewRequest(http.MethodPost, f.proxy.URL+"/api/1/envelope/", nil)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Host = "o123.ingest.sentry.io"

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("sending request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
	if upstream.RequestCount() != 0 {
		t.Errorf("upstream requests = %d, want 0 for blocked exchange", upstream.RequestCount())
	}

	state := f.pool.Snapshot()[0]
	if state.Usage.Requests != 0 || state.Usage.Total() != 0 {
		t.Errorf("usage = %+v, want none for blocked exchange", state.Usage)
	}
}

func TestProxyRejectsWhenPoolExhausted(t *testing.T) {
	f := newRelayFixture(t, []accounts.Account{
		{ID: "acct-a", Secret: "sk-aaa"},
	}, nil)
	if err := f.pool.MarkExhausted("acct-a"); err != nil {
		t.Fatalf("MarkExhausted() error = %v", err)
	}

	upstream := testutil.NewUpstream(t)
	resp := f.proxiedRequest(t, http.MethodPost, upstream.URL(), "/v1/messages", nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}
	if upstream.RequestCount() != 0 {
		t.Errorf("upstream requests = %d, want 0", upstream.RequestCount())
	}
}

func TestProxyFailoverEndToEnd(t *testing.T) {
	upstream := testutil.NewUpstream(t,
		testutil.Reply{Status: http.StatusTooManyRequests},
		testutil.Reply{Status: http.StatusOK, Body: []byte("second account reply")},
	)

	f := newRelayFixture(t, []accounts.Account{
		{ID: "acct-a", Secret: "sk-aaa"},
		{ID: "acct-b", Secret: "sk-bbb"},
	}, nil)

	resp := f.proxiedRequest(t, http.MethodPost, upstream.URL(), "/v1/messages",
		strings.NewReader("payload"))
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 after failover", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "second account reply" {
		t.Errorf("body = %q", body)
	}

	if upstream.RequestCount() != 2 {
		t.Fatalf("upstream requests = %d, want original + retry", upstream.RequestCount())
	}
	if got := upstream.AuthHeader(0, "Authorization"); got != "Bearer sk-aaa" {
		t.Errorf("first credential = %q, want acct-a", got)
	}
	if got := upstream.AuthHeader(1, "Authorization"); got != "Bearer sk-bbb" {
		t.Errorf("retry credential = %q, want acct-b", got)
	}

	states := f.pool.Snapshot()
	if states[0].Health != accounts.HealthQuotaExceeded {
		t.Errorf("acct-a health = %v, want quota-exceeded", states[0].Health)
	}
	if states[1].Usage.BytesOut != int64(len("second account reply")) {
		t.Errorf("acct-b BytesOut = %d, want retry body length", states[1].Usage.BytesOut)
	}
}

func TestProxyRelaysEventStream(t *testing.T) {
	payload := "data: one\n\ndata: two\n\ndata: [DONE]\n\n"
	upstream := testutil.NewUpstream(t, testutil.Reply{
		Status: http.StatusOK,
		Header: http.Header{"Content-Type": []string{"text/event-stream"}},
		Body:   []byte(payload),
	})

	f := newRelayFixture(t, []accounts.Account{
		{ID: "acct-a", Secret: "sk-aaa"},
	}, nil)

	resp := f.proxiedRequest(t, http.MethodGet, upstream.URL(), "/v1/messages", nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading streamed body: %v", err)
	}
	if string(body) != payload {
		t.Errorf("streamed body = %q, want full payload", body)
	}

	// Streamed bytes land in the pool once the relay finishes.
	deadline := time.Now().Add(2 * time.Second)
	for {
		if got := f.pool.Snapshot()[0].Usage.BytesOut; got == int64(len(payload)) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("BytesOut = %d, want %d", f.pool.Snapshot()[0].Usage.BytesOut, len(payload))
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestProxyRejectsOversizedBody(t *testing.T) {
	upstream := testutil.NewUpstream(t)

	f := newRelayFixture(t, []accounts.Account{
		{ID: "acct-a", Secret: "sk-aaa"},
	}, nil)
	f.handler.cfg.MaxBodySize = 8

	resp := f.proxiedRequest(t, http.MethodPost, upstream.URL(), "/v1/messages",
		strings.NewReader("definitely more than eight bytes"))
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", resp.StatusCode)
	}
	if upstream.RequestCount() != 0 {
		t.Errorf("upstream requests = %d, want 0", upstream.RequestCount())
	}
}
