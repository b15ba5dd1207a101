package tracktime

import (
	"context"
	"time"

	"github.com/appbaseio/reindex-orchestrator/errors"
)

type contextKey string

// loggerCtxKey is the key against which the start time of a request is stored.
const loggerCtxKey = contextKey("time_tracker")

// NewTimeTrackerContext returns a new context carrying the current time as the request start time.
func NewTimeTrackerContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, loggerCtxKey, time.Now())
}

// FromTimeTrackerContext retrieves the request start time stored against loggerCtxKey in the context.
func FromTimeTrackerContext(ctx context.Context) (*time.Time, error) {
	ctxRequest := ctx.Value(loggerCtxKey)
	if ctxRequest == nil {
		return nil, errors.NewNotFoundInContextError("AppbaseTimeTracker")
	}
	reqQuery, ok := ctxRequest.(time.Time)
	if !ok {
		return nil, errors.NewInvalidCastError("ctxRequestLogger", "AppbaseTimeTracker")
	}
	return &reqQuery, nil
}
