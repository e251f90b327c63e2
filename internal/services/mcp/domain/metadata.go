package domain

import (
	"context"

	"github.com/google/uuid"
)

type invocationIDKey struct{}

// NewInvocationID generates an identifier for one tool call.
func NewInvocationID() string {
	return uuid.NewString()
}

// WithInvocationID attaches a tool call identifier to ctx.
func WithInvocationID(ctx context.Context, invocationID string) context.Context {
	return context.WithValue(ctx, invocationIDKey{}, invocationID)
}

// InvocationIDFromContext returns the tool call identifier attached to ctx.
func InvocationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	invocationID, _ := ctx.Value(invocationIDKey{}).(string)
	return invocationID
}
