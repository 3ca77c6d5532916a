// Package strategies implements the rotation strategies the account pool
// delegates selection to: round-robin, least-used, interval, and the smart
// composite, plus a switch-after-N decorator that can gate any of them.
//
// All strategies are deterministic functions of the pool snapshot plus their
// own local state; none of them use randomness. They are safe for concurrent
// use.
package strategies
