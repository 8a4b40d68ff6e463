package ctxutil

import (
	"context"
	"time"
)

// Default returns ctx, or context.Background() when ctx is nil, so
// callers deep in the stack never have to nil-check.
func Default(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

type ctxKey string

const (
	traceKey   ctxKey = "trace_data"
	requestKey ctxKey = "request_data"
)

type TraceData struct {
	TraceID   string
	SpanID    string
	RequestID string
}

// RequestData carries the authenticated caller through the request
// lifecycle. UserType gates reviewer-only and admin-only operations.
type RequestData struct {
	UserID      string
	UserType    string
	PhoneNumber string
	ReceivedAt  time.Time
}

func WithTraceData(ctx context.Context, td TraceData) context.Context {
	return context.WithValue(Default(ctx), traceKey, td)
}

func GetTraceData(ctx context.Context) (TraceData, bool) {
	td, ok := Default(ctx).Value(traceKey).(TraceData)
	return td, ok
}

func WithRequestData(ctx context.Context, rd RequestData) context.Context {
	return context.WithValue(Default(ctx), requestKey, rd)
}

func GetRequestData(ctx context.Context) (RequestData, bool) {
	rd, ok := Default(ctx).Value(requestKey).(RequestData)
	return rd, ok
}
