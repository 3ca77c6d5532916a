package rules

import (
	"errors"
	"testing"
)

func TestNewMatcher_InvalidRules(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
	}{
		{
			name: "empty pattern",
			rule: Rule{Pattern: "", Kind: MatchExact, Action: ActionAllow},
		},
		{
			name: "unknown kind",
			rule: Rule{Pattern: "x", Kind: MatchKind("prefix"), Action: ActionAllow},
		},
		{
			name: "unknown action",
			rule: Rule{Pattern: "x", Kind: MatchExact, Action: Action("deny")},
		},
		{
			name: "invalid regex",
			rule: Rule{Pattern: "([", Kind: MatchRegex, Action: ActionBlock},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMatcher([]Rule{tt.rule})
			if err == nil {
				t.Fatal("NewMatcher() expected error, got nil")
			}
			if !errors.Is(err, ErrInvalidRule) {
				t.Errorf("error %v is not ErrInvalidRule", err)
			}
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Errorf("error %v is not a *ConfigError", err)
			}
		})
	}
}

func TestMatcher_Classify(t *testing.T) {
	ruleList := []Rule{
		{Pattern: "https://api.example.com/v1/health", Kind: MatchExact, Action: ActionLogOnly},
		{Pattern: "sentry.io", Kind: MatchContains, Action: ActionBlock},
		{Pattern: `^https://telemetry\..*\.example\.com/`, Kind: MatchRegex, Action: ActionBlock},
		{Pattern: "https://*.example.com/v?/ai/*", Kind: MatchWildcard, Action: ActionLogOnly},
	}

	matcher, err := NewMatcher(ruleList)
	if err != nil {
		t.Fatalf("NewMatcher() error = %v", err)
	}

	tests := []struct {
		name string
		url  string
		want Action
	}{
		{
			name: "exact match",
			url:  "https://api.example.com/v1/health",
			want: ActionLogOnly,
		},
		{
			name: "exact is case sensitive",
			url:  "https://API.example.com/v1/health",
			want: ActionAllow,
		},
		{
			name: "contains match",
			url:  "https://o1.ingest.sentry.io/api",
			want: ActionBlock,
		},
		{
			name: "regex match",
			url:  "https://telemetry.eu.example.com/collect",
			want: ActionBlock,
		},
		{
			name: "wildcard match",
			url:  "https://app.example.com/v2/ai/chat",
			want: ActionLogOnly,
		},
		{
			name: "wildcard question mark is single character",
			url:  "https://app.example.com/v22/ai/chat",
			want: ActionAllow,
		},
		{
			name: "no rule matches defaults to allow",
			url:  "https://api.example.com/v1/models",
			want: ActionAllow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matcher.Classify(tt.url); got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestMatcher_FirstMatchWins(t *testing.T) {
	// Both rules match the URL; declaration order decides.
	matcher, err := NewMatcher([]Rule{
		{Pattern: "example.com", Kind: MatchContains, Action: ActionAllow},
		{Pattern: "example.com/blocked", Kind: MatchContains, Action: ActionBlock},
	})
	if err != nil {
		t.Fatalf("NewMatcher() error = %v", err)
	}

	if got := matcher.Classify("https://example.com/blocked/path"); got != ActionAllow {
		t.Errorf("Classify() = %q, want %q (first rule in order)", got, ActionAllow)
	}

	// Reversed order flips the verdict.
	matcher, err = NewMatcher([]Rule{
		{Pattern: "example.com/blocked", Kind: MatchContains, Action: ActionBlock},
		{Pattern: "example.com", Kind: MatchContains, Action: ActionAllow},
	})
	if err != nil {
		t.Fatalf("NewMatcher() error = %v", err)
	}

	if got := matcher.Classify("https://example.com/blocked/path"); got != ActionBlock {
		t.Errorf("Classify() = %q, want %q (first rule in order)", got, ActionBlock)
	}
}

func TestMatcher_EmptyRuleList(t *testing.T) {
	matcher, err := NewMatcher(nil)
	if err != nil {
		t.Fatalf("NewMatcher(nil) error = %v", err)
	}
	if got := matcher.Classify("https://anything.example.com"); got != ActionAllow {
		t.Errorf("Classify() = %q, want %q", got, ActionAllow)
	}
	if matcher.Len() != 0 {
		t.Errorf("Len() = %d, want 0", matcher.Len())
	}
}
