package chain

import "fmt"

// DecisionKind enumerates the outcomes a stage can return for one phase of
// an exchange.
type DecisionKind int

const (
	// KindContinue lets the next stage in the phase run.
	KindContinue DecisionKind = iota

	// KindShortCircuitResponse stops the phase and serves the decision's
	// synthetic response without contacting upstream.
	KindShortCircuitResponse

	// KindShortCircuitError stops the phase and propagates a failure to the
	// transport layer, which decides connection handling.
	KindShortCircuitError
)

// String returns the kind name for logs.
func (k DecisionKind) String() string {
	switch k {
	case KindContinue:
		return "continue"
	case KindShortCircuitResponse:
		return "short_circuit_response"
	case KindShortCircuitError:
		return "short_circuit_error"
	default:
		return fmt.Sprintf("decision(%d)", int(k))
	}
}

// Decision is the result a stage returns after processing one phase of an
// exchange. Once any stage returns a short-circuit, no later stage in that
// phase runs.
type Decision struct {
	// Kind is the outcome.
	Kind DecisionKind

	// Response is the synthetic response to serve; set only for
	// KindShortCircuitResponse.
	Response *Response

	// Err is the propagated failure; set only for KindShortCircuitError.
	Err error
}

// Continue returns the decision that lets the phase proceed.
func Continue() Decision {
	return Decision{Kind: KindContinue}
}

// ShortCircuit returns a decision that stops the phase and serves resp.
func ShortCircuit(resp *Response) Decision {
	return Decision{Kind: KindShortCircuitResponse, Response: resp}
}

// Fail returns a decision that stops the phase with an error.
func Fail(err error) Decision {
	return Decision{Kind: KindShortCircuitError, Err: err}
}
