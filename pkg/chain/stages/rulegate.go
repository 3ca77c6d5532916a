package stages

import (
	"context"
	"log/slog"
	"net/http"

	"helios-hq/relay/pkg/chain"
	"helios-hq/relay/pkg/rules"
)

// RuleGate classifies the exchange URL against the configured rule set and
// gates the rest of the chain on the verdict. Blocked exchanges are answered
// with a synthetic 403 before any account is selected or any usage recorded;
// log-only exchanges proceed with an event emitted.
type RuleGate struct {
	matcher *rules.Matcher
	logger  *slog.Logger
}

// NewRuleGate creates the rule gate stage.
func NewRuleGate(matcher *rules.Matcher, logger *slog.Logger) *RuleGate {
	if logger == nil {
		logger = slog.Default()
	}
	return &RuleGate{matcher: matcher, logger: logger}
}

// Name implements chain.Stage.
func (s *RuleGate) Name() string { return "rule_gate" }

// Request classifies the URL and records the verdict on the exchange.
func (s *RuleGate) Request(ctx context.Context, ex *chain.Exchange) chain.Decision {
	verdict := s.matcher.Classify(ex.Request.URL)
	ex.Verdict = verdict

	switch verdict {
	case rules.ActionBlock:
		s.logger.Info("request blocked by rule",
			"exchange", ex.ID,
			"url", ex.Request.URL,
			"verdict", verdict,
		)
		return chain.ShortCircuit(syntheticResponse(http.StatusForbidden))

	case rules.ActionLogOnly:
		s.logger.Info("request flagged log-only",
			"exchange", ex.ID,
			"method", ex.Request.Method,
			"url", ex.Request.URL,
		)
	}

	return chain.Continue()
}

// Response is a no-op; the verdict is decided before upstream contact.
func (s *RuleGate) Response(ctx context.Context, ex *chain.Exchange) chain.Decision {
	return chain.Continue()
}
