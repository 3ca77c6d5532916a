package chain

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
)

// Chain runs an ordered list of stages over exchanges. The order is fixed at
// construction from configuration; request and response phases walk the same
// order.
type Chain struct {
	stages []Stage
	logger *slog.Logger
}

// New creates a chain over the given stages in registration order.
func New(logger *slog.Logger, stages ...Stage) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{stages: stages, logger: logger}
}

// Stages returns the stage names in execution order.
func (c *Chain) Stages() []string {
	names := make([]string, len(c.stages))
	for i, s := range c.stages {
		names[i] = s.Name()
	}
	return names
}

// Request runs the request phase: stages in registration order until one
// short-circuits or all complete.
func (c *Chain) Request(ctx context.Context, ex *Exchange) Decision {
	return c.run(ctx, ex, "request", func(s Stage) Decision {
		return s.Request(ctx, ex)
	})
}

// Response runs the response phase over the same stage order once the
// upstream response is available. For streamed responses this happens at the
// header level, before the first body byte is relayed.
func (c *Chain) Response(ctx context.Context, ex *Exchange) Decision {
	return c.run(ctx, ex, "response", func(s Stage) Decision {
		return s.Response(ctx, ex)
	})
}

// run walks the stages for one phase, emitting one event per meaningful
// decision. A panicking stage is converted to a short-circuit error so a
// half-mutated exchange is never forwarded.
func (c *Chain) run(ctx context.Context, ex *Exchange, phase string, invoke func(Stage) Decision) Decision {
	for _, stage := range c.stages {
		decision := c.invokeSafe(stage, phase, ex, invoke)

		switch decision.Kind {
		case KindContinue:
			continue

		case KindShortCircuitResponse:
			c.logger.Info("stage short-circuited with response",
				"exchange", ex.ID,
				"stage", stage.Name(),
				"phase", phase,
				"status", decision.Response.StatusCode,
				"verdict", ex.Verdict,
				"account", ex.AccountID,
			)
			return decision

		case KindShortCircuitError:
			c.logger.Error("stage short-circuited with error",
				"exchange", ex.ID,
				"stage", stage.Name(),
				"phase", phase,
				"error", decision.Err,
			)
			return decision

		default:
			return Fail(fmt.Errorf("stage %s returned unknown decision kind %d", stage.Name(), decision.Kind))
		}
	}

	return Continue()
}

// invokeSafe calls one stage, converting a panic into an error decision.
func (c *Chain) invokeSafe(stage Stage, phase string, ex *Exchange, invoke func(Stage) Decision) (decision Decision) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("panic in stage",
				"exchange", ex.ID,
				"stage", stage.Name(),
				"phase", phase,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			decision = Fail(fmt.Errorf("stage %s panicked: %v", stage.Name(), r))
		}
	}()

	return invoke(stage)
}
