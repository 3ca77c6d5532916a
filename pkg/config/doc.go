// Package config loads, defaults, and validates the relay's YAML
// configuration.
//
// Loading follows a fixed sequence: read and parse the YAML file, apply
// default values for everything left unset, apply RELAY_* environment
// variable overrides, then validate the final result. Validation collects
// every problem it finds into a single ValidationError so an operator can
// fix a broken file in one pass instead of replaying startup per field.
//
// The loaded configuration is immutable for the process lifetime: rule
// sets, account pools, and stage order are compiled once at startup. A
// Watcher can report on-disk drift so an operator knows a restart is due,
// but it never hot-swaps live state.
package config
