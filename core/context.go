package core

import (
	"context"

	"github.com/huangsam/sonarissues/internal/contract"
)

// Context keys for export options
type contextKey string

const runIDKey contextKey = "runID"

// WithSuppressHeader silences header, progress and summary lines for the export.
func WithSuppressHeader(ctx context.Context) context.Context {
	return contract.WithSuppressHeader(ctx)
}

// shouldSuppressHeader returns whether headers should be suppressed from context
func shouldSuppressHeader(ctx context.Context) bool {
	return contract.ShouldSuppressHeader(ctx)
}

// withRunID sets the export run id in the context
func withRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// getRunID returns the export run id from context, if any
func getRunID(ctx context.Context) (string, bool) {
	val := ctx.Value(runIDKey)
	if val == nil {
		return "", false
	}
	id, ok := val.(string)
	return id, ok && id != ""
}

// hasRunID reports whether the context already carries a run id
func hasRunID(ctx context.Context) bool {
	_, ok := getRunID(ctx)
	return ok
}
