package logging

import (
	"log/slog"
	"strings"
)

// Writer is an io.Writer implementation that forwards command output to slog line by line.
type Writer struct {
	logger *slog.Logger
	attrs  []any
}

// NewWriter constructs a Writer bound to the provided logger.
// attrs are attached to every emitted record.
func NewWriter(logger *slog.Logger, attrs ...any) *Writer {
	return &Writer{logger: logger, attrs: attrs}
}

// Write logs every non-empty line of p at info level.
func (w *Writer) Write(p []byte) (int, error) {
	if w.logger == nil {
		return len(p), nil
	}
	for _, line := range strings.Split(string(p), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		args := append([]any{"line", line}, w.attrs...)
		w.logger.Info("command output", args...)
	}
	return len(p), nil
}
