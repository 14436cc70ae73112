// Package logger provides structured logging with colored output.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorGray   = "\033[90m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

// New creates a structured logger writing to stdout at the given level.
// Colored text by default, JSON when LOG_FORMAT=json; colors are disabled
// by NO_COLOR (https://no-color.org/) or LOG_COLOR=false.
func New(level string) *slog.Logger {
	l := parseLevel(level)

	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: l}))
	}
	return slog.New(&textHandler{
		w:        os.Stdout,
		level:    l,
		useColor: shouldUseColor(),
	})
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func shouldUseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if v := strings.ToLower(os.Getenv("LOG_COLOR")); v == "false" || v == "0" {
		return false
	}
	return true
}

// textHandler is a minimal slog.Handler with colored single-line output.
type textHandler struct {
	w        io.Writer
	level    slog.Level
	useColor bool
	attrs    []slog.Attr
}

func (h *textHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *textHandler) Handle(_ context.Context, r slog.Record) error {
	var buf strings.Builder

	h.colored(&buf, colorGray, r.Time.Format("2006-01-02 15:04:05"))
	buf.WriteString(" ")
	h.colored(&buf, levelColor(r.Level), levelLabel(r.Level))
	buf.WriteString(" ")
	buf.WriteString(r.Message)

	r.Attrs(func(a slog.Attr) bool {
		h.writeAttr(&buf, a)
		return true
	})
	for _, a := range h.attrs {
		h.writeAttr(&buf, a)
	}

	buf.WriteString("\n")
	_, err := h.w.Write([]byte(buf.String()))
	return err
}

func (h *textHandler) writeAttr(buf *strings.Builder, a slog.Attr) {
	buf.WriteString(" ")
	h.colored(buf, colorGray, a.Key+"="+a.Value.String())
}

func (h *textHandler) colored(buf *strings.Builder, color, s string) {
	if h.useColor {
		buf.WriteString(color)
	}
	buf.WriteString(s)
	if h.useColor {
		buf.WriteString(colorReset)
	}
}

func levelColor(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return colorRed + colorBold
	case l >= slog.LevelWarn:
		return colorYellow
	case l >= slog.LevelInfo:
		return colorBlue
	default:
		return colorCyan
	}
}

func levelLabel(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return "ERROR"
	case l >= slog.LevelWarn:
		return "WARN "
	case l >= slog.LevelInfo:
		return "INFO "
	default:
		return "DEBUG"
	}
}

func (h *textHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &textHandler{w: h.w, level: h.level, useColor: h.useColor, attrs: merged}
}

func (h *textHandler) WithGroup(string) slog.Handler {
	// Single-run CLI output; groups are flattened.
	return h
}
