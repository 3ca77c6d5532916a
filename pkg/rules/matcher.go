package rules

import (
	"fmt"
	"regexp"
	"strings"
)

// Matcher classifies URLs against a compiled, ordered rule list.
// It is immutable after construction and safe for concurrent use.
type Matcher struct {
	rules []compiledRule
}

// compiledRule pairs a declared rule with its evaluation function.
type compiledRule struct {
	rule  Rule
	match func(url string) bool
}

// NewMatcher compiles the given rules in declaration order.
//
// Regex patterns are compiled eagerly so that malformed expressions surface
// as a *ConfigError here rather than at evaluation time. Wildcard patterns
// are expanded to an equivalent anchored regular expression once.
func NewMatcher(ruleList []Rule) (*Matcher, error) {
	compiled := make([]compiledRule, 0, len(ruleList))

	for i, r := range ruleList {
		if r.Pattern == "" {
			return nil, &ConfigError{Index: i, Rule: r, Cause: fmt.Errorf("pattern is empty")}
		}
		if !r.Kind.Valid() {
			return nil, &ConfigError{Index: i, Rule: r, Cause: fmt.Errorf("unknown match kind %q", r.Kind)}
		}
		if !r.Action.Valid() {
			return nil, &ConfigError{Index: i, Rule: r, Cause: fmt.Errorf("unknown action %q", r.Action)}
		}

		fn, err := compileMatch(r)
		if err != nil {
			return nil, &ConfigError{Index: i, Rule: r, Cause: err}
		}

		compiled = append(compiled, compiledRule{rule: r, match: fn})
	}

	return &Matcher{rules: compiled}, nil
}

// compileMatch builds the evaluation function for a single rule.
func compileMatch(r Rule) (func(string) bool, error) {
	switch r.Kind {
	case MatchExact:
		pattern := r.Pattern
		return func(url string) bool { return url == pattern }, nil

	case MatchContains:
		pattern := r.Pattern
		return func(url string) bool { return strings.Contains(url, pattern) }, nil

	case MatchRegex:
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compiling regex: %w", err)
		}
		return re.MatchString, nil

	case MatchWildcard:
		re, err := regexp.Compile(wildcardToRegex(r.Pattern))
		if err != nil {
			return nil, fmt.Errorf("compiling wildcard: %w", err)
		}
		return re.MatchString, nil

	default:
		return nil, fmt.Errorf("unknown match kind %q", r.Kind)
	}
}

// wildcardToRegex converts a glob pattern to an anchored regular expression.
// `*` matches any run of characters, `?` matches exactly one character, and
// everything else is taken literally.
func wildcardToRegex(pattern string) string {
	var sb strings.Builder
	sb.WriteString("^")
	for _, ch := range pattern {
		switch ch {
		case '*':
			sb.WriteString(".*")
		case '?':
			sb.WriteString(".")
		default:
			sb.WriteString(regexp.QuoteMeta(string(ch)))
		}
	}
	sb.WriteString("$")
	return sb.String()
}

// Classify returns the action of the first rule matching the URL, walking
// rules in declaration order. If no rule matches, it returns ActionAllow.
func (m *Matcher) Classify(url string) Action {
	for _, cr := range m.rules {
		if cr.match(url) {
			return cr.rule.Action
		}
	}
	return ActionAllow
}

// Len returns the number of compiled rules.
func (m *Matcher) Len() int {
	return len(m.rules)
}
