package services

import "context"

type contextKey int

const (
	sourcePathKey contextKey = iota
	stageKey
	requestIDKey
)

func withString(ctx context.Context, key contextKey, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func stringFrom(ctx context.Context, key contextKey) (string, bool) {
	value, _ := ctx.Value(key).(string)
	return value, value != ""
}

// WithSourcePath records the ingest candidate a call chain is working on.
func WithSourcePath(ctx context.Context, path string) context.Context {
	return withString(ctx, sourcePathKey, path)
}

func SourcePathFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, sourcePathKey)
}

// WithStage records the pipeline stage (discovery, matcher, ingest, library).
func WithStage(ctx context.Context, stage string) context.Context {
	return withString(ctx, stageKey, stage)
}

func StageFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, stageKey)
}

// WithRequestID records the correlation id shared by one discovery pass,
// HTTP request or RPC call.
func WithRequestID(ctx context.Context, id string) context.Context {
	return withString(ctx, requestIDKey, id)
}

func RequestIDFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, requestIDKey)
}
