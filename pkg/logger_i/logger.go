package logger_i

import (
	"context"
	"io"
	"log/slog"
	"os"
)

type Logger struct {
	inner *slog.Logger
}

// Init installs the process wide handler. Production logs are JSON, everything else is text.
func Init(level slog.Level, isProd bool) {
	InitWithWriter(os.Stdout, level, isProd)
}

func InitWithWriter(w io.Writer, level slog.Level, isProd bool) {
	options := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if isProd {
		handler = slog.NewJSONHandler(w, options)
	} else {
		handler = slog.NewTextHandler(w, options)
	}
	slog.SetDefault(slog.New(handler))
}

func NewLogger(section string) *Logger {
	return &Logger{
		inner: slog.Default().With("component", section),
	}
}

func (l *Logger) Info(msg string, args ...any) {
	l.inner.Info(msg, args...)
}

func (l *Logger) Error(msg string, args ...any) {
	l.log(slog.LevelError, msg, args...)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.log(slog.LevelWarn, msg, args...)
}

func (l *Logger) Debug(msg string, args ...any) {
	l.log(slog.LevelDebug, msg, args...)
}

func (l *Logger) log(level slog.Level, msg string, args ...any) {
	if !l.inner.Enabled(context.Background(), level) {
		return
	}
	l.inner.Log(context.Background(), level, msg, args...)
}

// With returns a child logger, the receiver is left untouched.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		inner: l.inner.With(args...),
	}
}

// WithTrace attaches the trace id carried by ctx, if any.
func (l *Logger) WithTrace(ctx context.Context, traceKey any) *Logger {
	if trace, ok := ctx.Value(traceKey).(string); ok && trace != "" {
		return l.With("traceId", trace)
	}
	return l
}
