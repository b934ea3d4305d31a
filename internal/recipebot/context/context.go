package contextx

import "context"

// RequireIDKey carries the request id of the message being handled.
type RequireIDKey struct{}

func WithRequireID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequireIDKey{}, id)
}

func GetRequireID(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	if v := ctx.Value(RequireIDKey{}); v != nil {
		if s, ok := v.(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

// UserIDKey carries the chat user the message came from.
type UserIDKey struct{}

func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, UserIDKey{}, id)
}

func GetUserID(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	if v := ctx.Value(UserIDKey{}); v != nil {
		if s, ok := v.(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}
