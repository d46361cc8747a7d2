package trace

import (
	"context"

	"github.com/google/uuid"
)

// HeaderName is the HTTP header and AMQP header carrying the trace id.
const HeaderName = "X-Trace-ID"

type traceKey struct{}

// GenerateTraceID 生成一个新的 trace ID
func GenerateTraceID() string {
	return uuid.NewString()
}

// FromContext 从 context 中获取 trace_id
func FromContext(ctx context.Context) string {
	if traceID, ok := ctx.Value(traceKey{}).(string); ok {
		return traceID
	}
	return ""
}

// WithContext 将 trace_id 添加到 context 中
func WithContext(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceKey{}, traceID)
}

// Ensure returns ctx carrying id, or a freshly generated id when id is empty.
func Ensure(ctx context.Context, id string) (context.Context, string) {
	if id == "" {
		id = GenerateTraceID()
	}
	return WithContext(ctx, id), id
}
