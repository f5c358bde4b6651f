package logging

import (
	"context"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strings"
)

// JSONLogger writes one JSON object per line through slog.
type JSONLogger struct {
	l *slog.Logger
}

func NewJSONLogger(w io.Writer, level string) *JSONLogger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parseLevel(level)})
	return &JSONLogger{l: slog.New(h)}
}

func (j *JSONLogger) log(level slog.Level, msg string, fields map[string]any) {
	attrs := make([]any, 0, len(fields)*2)
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		attrs = append(attrs, k, fields[k])
	}
	j.l.Log(context.Background(), level, msg, attrs...)
}

func (j *JSONLogger) Info(msg string, fields map[string]any) {
	j.log(slog.LevelInfo, msg, fields)
}

func (j *JSONLogger) Warn(msg string, fields map[string]any) {
	j.log(slog.LevelWarn, msg, fields)
}

func (j *JSONLogger) Error(msg string, fields map[string]any) {
	j.log(slog.LevelError, msg, fields)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
