package infrastructure

import "context"

// contextKey is a type for context keys
type contextKey string

// runIDContextKey is the key for storing the pipeline run ID in context
const runIDContextKey contextKey = "run_id"

// WithRunID returns a context carrying the pipeline run ID
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDContextKey, runID)
}

// RunIDFromContext extracts the pipeline run ID from context, or ""
func RunIDFromContext(ctx context.Context) string {
	if runID, ok := ctx.Value(runIDContextKey).(string); ok {
		return runID
	}
	return ""
}
