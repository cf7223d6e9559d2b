// Package requestid carries the per-request id through context.Context.
package requestid

import "context"

type key struct{}

// With returns a copy of ctx holding id.
func With(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, key{}, id)
}

// From extracts the request id, or "" when none was set.
func From(ctx context.Context) string {
	if id, ok := ctx.Value(key{}).(string); ok {
		return id
	}
	return ""
}
