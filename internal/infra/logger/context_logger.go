package logger

import (
	"context"
	"log/slog"
	"os"
)

type ContextKey string

// Business context keys propagated through the answer pipeline.
const (
	AnswerIDKey ContextKey = "answer.id"
	StageKey    ContextKey = "answer.stage"
	BackendKey  ContextKey = "answer.backend"
)

// ContextLogger provides context-aware logging for the answer pipeline.
type ContextLogger struct {
	logger      *slog.Logger
	serviceName string
}

func NewContextLogger(serviceName string) *ContextLogger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(os.Getenv("LOG_LEVEL")),
	}
	handler := slog.NewJSONHandler(os.Stdout, opts)

	return &ContextLogger{
		logger:      slog.New(handler),
		serviceName: serviceName,
	}
}

// WithContext returns a logger with context values extracted as fields.
func (cl *ContextLogger) WithContext(ctx context.Context) *slog.Logger {
	logger := cl.logger.With("service", cl.serviceName)

	var fields []any

	if answerID := ctx.Value(AnswerIDKey); answerID != nil {
		fields = append(fields, string(AnswerIDKey), answerID)
	}
	if stage := ctx.Value(StageKey); stage != nil {
		fields = append(fields, string(StageKey), stage)
	}
	if backend := ctx.Value(BackendKey); backend != nil {
		fields = append(fields, string(BackendKey), backend)
	}

	if len(fields) > 0 {
		logger = logger.With(fields...)
	}

	return logger
}

// WithAnswerID adds the answer correlation ID to the context.
func WithAnswerID(ctx context.Context, answerID string) context.Context {
	return context.WithValue(ctx, AnswerIDKey, answerID)
}

// WithStage adds the current pipeline stage to the context.
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, StageKey, stage)
}

// WithBackend adds the retrieval backend name to the context.
func WithBackend(ctx context.Context, backend string) context.Context {
	return context.WithValue(ctx, BackendKey, backend)
}
