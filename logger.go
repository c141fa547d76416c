package orbiseo

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with orbiseo-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithQuery adds a query field to the logger.
func (l *Logger) WithQuery(query string) *Logger {
	return &Logger{
		Logger: l.Logger.With("query", query),
	}
}

// WithKeywords adds a keyword count field to the logger.
func (l *Logger) WithKeywords(count int) *Logger {
	return &Logger{
		Logger: l.Logger.With("keywords", count),
	}
}

// WithClusters adds a cluster count field to the logger.
func (l *Logger) WithClusters(count int) *Logger {
	return &Logger{
		Logger: l.Logger.With("clusters", count),
	}
}

// LogClustering logs a completed clustering operation.
func (l *Logger) LogClustering(ctx context.Context, keywords, clusters int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "clustering failed",
			"keywords", keywords,
			"duration", duration,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "clustering completed",
		"keywords", keywords,
		"clusters", clusters,
		"duration", duration,
	)
}

// LogSearch logs a completed search operation.
func (l *Logger) LogSearch(ctx context.Context, query string, results int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"query", query,
			"duration", duration,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "search completed",
		"query", query,
		"results", results,
		"duration", duration,
	)
}
