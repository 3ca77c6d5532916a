// Package rules implements URL classification against an ordered list of
// pattern rules.
//
// Rules are declared in configuration, compiled once at load time, and are
// immutable afterwards. Each rule pairs a pattern with a match kind (exact,
// contains, regex, wildcard) and an action (allow, block, log-only).
// Classification walks the rules in declaration order and returns the action
// of the first matching rule; if no rule matches, the URL is allowed.
//
// A compiled Matcher is a pure function over its inputs and is safe for
// concurrent use from any number of exchange-handling goroutines.
package rules
