package chain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
)

// recordingStage appends its name to a shared trace on every invocation and
// returns canned decisions per phase.
type recordingStage struct {
	name     string
	trace    *[]string
	request  Decision
	response Decision
}

func (s *recordingStage) Name() string { return s.name }

func (s *recordingStage) Request(ctx context.Context, ex *Exchange) Decision {
	*s.trace = append(*s.trace, s.name+":request")
	return s.request
}

func (s *recordingStage) Response(ctx context.Context, ex *Exchange) Decision {
	*s.trace = append(*s.trace, s.name+":response")
	return s.response
}

type panickingStage struct{}

func (panickingStage) Name() string                                   { return "boom" }
func (panickingStage) Request(ctx context.Context, ex *Exchange) Decision { panic("unexpected state") }
func (panickingStage) Response(ctx context.Context, ex *Exchange) Decision {
	return Continue()
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testExchange() *Exchange {
	return NewExchange(&Request{
		Method: http.MethodGet,
		URL:    "https://api.example.com/v1/models",
		Path:   "/v1/models",
	})
}

func TestChainRunsStagesInRegistrationOrder(t *testing.T) {
	var trace []string
	c := New(testLogger(),
		&recordingStage{name: "first", trace: &trace, request: Continue(), response: Continue()},
		&recordingStage{name: "second", trace: &trace, request: Continue(), response: Continue()},
		&recordingStage{name: "third", trace: &trace, request: Continue(), response: Continue()},
	)

	ex := testExchange()
	if d := c.Request(context.Background(), ex); d.Kind != KindContinue {
		t.Fatalf("request decision = %v, want continue", d.Kind)
	}
	if d := c.Response(context.Background(), ex); d.Kind != KindContinue {
		t.Fatalf("response decision = %v, want continue", d.Kind)
	}

	want := []string{
		"first:request", "second:request", "third:request",
		"first:response", "second:response", "third:response",
	}
	if len(trace) != len(want) {
		t.Fatalf("trace = %v, want %v", trace, want)
	}
	for i := range want {
		if trace[i] != want[i] {
			t.Fatalf("trace[%d] = %q, want %q (full trace %v)", i, trace[i], want[i], trace)
		}
	}
}

func TestChainShortCircuitStopsPhase(t *testing.T) {
	var trace []string
	blocked := &Response{StatusCode: http.StatusForbidden}
	c := New(testLogger(),
		&recordingStage{name: "first", trace: &trace, request: Continue(), response: Continue()},
		&recordingStage{name: "gate", trace: &trace, request: ShortCircuit(blocked), response: Continue()},
		&recordingStage{name: "never", trace: &trace, request: Continue(), response: Continue()},
	)

	d := c.Request(context.Background(), testExchange())
	if d.Kind != KindShortCircuitResponse {
		t.Fatalf("decision = %v, want short-circuit response", d.Kind)
	}
	if d.Response != blocked {
		t.Error("decision must carry the stage's synthetic response")
	}
	for _, step := range trace {
		if step == "never:request" {
			t.Fatalf("stage after the short-circuit ran: trace %v", trace)
		}
	}
}

func TestChainErrorStopsPhase(t *testing.T) {
	var trace []string
	failure := errors.New("pool corrupted")
	c := New(testLogger(),
		&recordingStage{name: "failing", trace: &trace, request: Fail(failure), response: Continue()},
		&recordingStage{name: "never", trace: &trace, request: Continue(), response: Continue()},
	)

	d := c.Request(context.Background(), testExchange())
	if d.Kind != KindShortCircuitError {
		t.Fatalf("decision = %v, want short-circuit error", d.Kind)
	}
	if !errors.Is(d.Err, failure) {
		t.Errorf("decision error = %v, want %v", d.Err, failure)
	}
	if len(trace) != 1 {
		t.Errorf("trace = %v, want only the failing stage", trace)
	}
}

func TestChainConvertsPanicToError(t *testing.T) {
	var trace []string
	c := New(testLogger(),
		panickingStage{},
		&recordingStage{name: "never", trace: &trace, request: Continue(), response: Continue()},
	)

	d := c.Request(context.Background(), testExchange())
	if d.Kind != KindShortCircuitError {
		t.Fatalf("decision = %v, want short-circuit error from panic", d.Kind)
	}
	if d.Err == nil {
		t.Fatal("panic must surface as a decision error")
	}
	if len(trace) != 0 {
		t.Errorf("stage after the panic ran: trace %v", trace)
	}
}

func TestChainStagesNames(t *testing.T) {
	var trace []string
	c := New(testLogger(),
		&recordingStage{name: "rule_gate", trace: &trace},
		&recordingStage{name: "credential", trace: &trace},
	)

	names := c.Stages()
	if len(names) != 2 || names[0] != "rule_gate" || names[1] != "credential" {
		t.Errorf("Stages() = %v, want [rule_gate credential]", names)
	}
}

func TestNewExchangeDefaults(t *testing.T) {
	ex := NewExchange(&Request{Method: http.MethodGet, URL: "https://example.com/"})
	if ex.ID == "" {
		t.Error("exchange id is empty")
	}
	if ex.Request.Header == nil {
		t.Error("request header map not initialized")
	}
	if ex.StartedAt.IsZero() {
		t.Error("StartedAt not set")
	}

	other := NewExchange(&Request{Method: http.MethodGet, URL: "https://example.com/"})
	if other.ID == ex.ID {
		t.Error("exchange ids must be unique")
	}
}
