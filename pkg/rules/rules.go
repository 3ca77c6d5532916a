package rules

// Action is the verdict a rule produces for a matched URL.
type Action string

const (
	// ActionAllow lets the exchange proceed through the chain.
	ActionAllow Action = "allow"

	// ActionBlock rejects the exchange with a synthetic response before any
	// upstream contact.
	ActionBlock Action = "block"

	// ActionLogOnly lets the exchange proceed but flags it for logging.
	ActionLogOnly Action = "log_only"
)

// Valid reports whether the action is one of the recognized values.
func (a Action) Valid() bool {
	switch a {
	case ActionAllow, ActionBlock, ActionLogOnly:
		return true
	}
	return false
}

// MatchKind selects how a rule's pattern is compared against a URL.
type MatchKind string

const (
	// MatchExact requires case-sensitive string equality with the full URL.
	MatchExact MatchKind = "exact"

	// MatchContains requires the pattern to appear as a substring of the URL.
	MatchContains MatchKind = "contains"

	// MatchRegex treats the pattern as a regular expression tested against
	// the URL. Invalid expressions are rejected at load time.
	MatchRegex MatchKind = "regex"

	// MatchWildcard treats the pattern as a glob with `*` (any run of
	// characters) and `?` (any single character), compiled to a regular
	// expression at load time.
	MatchWildcard MatchKind = "wildcard"
)

// Valid reports whether the match kind is one of the recognized values.
func (k MatchKind) Valid() bool {
	switch k {
	case MatchExact, MatchContains, MatchRegex, MatchWildcard:
		return true
	}
	return false
}

// Rule is a single classification rule as declared in configuration.
// Rules are immutable once loaded and are evaluated in declaration order.
type Rule struct {
	// Pattern is the string the URL is compared against, interpreted
	// according to Kind.
	Pattern string `yaml:"pattern"`

	// Kind selects the comparison: exact, contains, regex, or wildcard.
	Kind MatchKind `yaml:"kind"`

	// Action is the verdict produced when this rule matches.
	Action Action `yaml:"action"`
}
