package logging

import "context"

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// ExchangeIDKey is the context key for exchange identifiers.
	ExchangeIDKey contextKey = "exchange_id"

	// AccountKey is the context key for the selected account id.
	AccountKey contextKey = "account"
)

// WithExchangeID adds an exchange id to the context.
func WithExchangeID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ExchangeIDKey, id)
}

// GetExchangeID retrieves the exchange id from the context.
func GetExchangeID(ctx context.Context) string {
	if id, ok := ctx.Value(ExchangeIDKey).(string); ok {
		return id
	}
	return ""
}

// WithAccount adds the selected account id to the context.
func WithAccount(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, AccountKey, id)
}

// GetAccount retrieves the selected account id from the context.
func GetAccount(ctx context.Context) string {
	if id, ok := ctx.Value(AccountKey).(string); ok {
		return id
	}
	return ""
}
