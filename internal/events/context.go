package events

import "context"

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	snippetIDKey ctxKey = "snippet_id"
)

// WithRequestID tags ctx with the ID of one CLI invocation. The HTTP client
// forwards it as X-Request-ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the request ID carried by ctx, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithSnippetID tags ctx with the remote snippet being worked on.
func WithSnippetID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, snippetIDKey, id)
}

// SnippetID returns the snippet ID carried by ctx, or "".
func SnippetID(ctx context.Context) string {
	id, _ := ctx.Value(snippetIDKey).(string)
	return id
}

// For returns l with the IDs carried by ctx attached as fields.
func (l *Logger) For(ctx context.Context) *Logger {
	fields := make(map[string]interface{}, 2)
	for _, key := range []ctxKey{requestIDKey, snippetIDKey} {
		if id, _ := ctx.Value(key).(string); id != "" {
			fields[string(key)] = id
		}
	}
	if len(fields) == 0 {
		return l
	}
	return l.WithFields(fields)
}
