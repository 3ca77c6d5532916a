// Package accounts owns the credential pool the proxy rotates through.
//
// The Pool is the single piece of shared mutable state in the system. Every
// read and write of account health or usage goes through its synchronized
// interface; no other component touches Account or UsageRecord fields
// directly. Accounts are never destroyed during a process lifetime, only
// marked disabled or quota-exceeded.
//
// Selection is delegated to a RotationStrategy (see the strategies
// subpackage), which receives an immutable snapshot of the selectable
// accounts and returns the id of the one to use.
package accounts
