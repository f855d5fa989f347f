package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const shortSessionLen = 8

// consoleHandler prints one line per record:
//
//	2026-01-02T15:04:05Z INFO container[1a2b3c4d]: disc opened disc_root=/media/disc streams=2
//
// The component and a shortened session id move into the prefix; every other
// attribute is rendered by slog's text handler.
type consoleHandler struct {
	shared    *consoleOutput
	level     slog.Level
	text      slog.Handler
	component string
	session   string
	grouped   bool
}

// consoleOutput is shared by every handler derived from one logger so lines
// never interleave.
type consoleOutput struct {
	mu  sync.Mutex
	out io.Writer
	buf bytes.Buffer
}

func newConsoleHandler(w io.Writer, level slog.Level, addSource bool) *consoleHandler {
	shared := &consoleOutput{out: w}
	text := slog.NewTextHandler(&shared.buf, &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: addSource,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return attr
			}
			switch attr.Key {
			case slog.TimeKey, slog.LevelKey, slog.MessageKey:
				return slog.Attr{}
			case slog.SourceKey:
				attr.Value = shortSource(attr.Value)
			}
			return attr
		},
	})
	return &consoleHandler{shared: shared, level: level, text: text}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *consoleHandler) Handle(ctx context.Context, record slog.Record) error {
	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	var line strings.Builder
	line.WriteString(ts.UTC().Format(time.RFC3339))
	line.WriteByte(' ')
	line.WriteString(record.Level.String())
	line.WriteByte(' ')
	if h.component != "" {
		line.WriteString(h.component)
		if h.session != "" {
			line.WriteString("[" + h.session + "]")
		}
		line.WriteString(": ")
	}
	line.WriteString(record.Message)

	h.shared.mu.Lock()
	defer h.shared.mu.Unlock()
	h.shared.buf.Reset()
	if err := h.text.Handle(ctx, record); err != nil {
		return err
	}
	if attrs := strings.TrimSpace(h.shared.buf.String()); attrs != "" {
		line.WriteByte(' ')
		line.WriteString(attrs)
	}
	line.WriteByte('\n')
	_, err := io.WriteString(h.shared.out, line.String())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	rest := make([]slog.Attr, 0, len(attrs))
	for _, attr := range attrs {
		switch {
		case !h.grouped && attr.Key == FieldComponent:
			clone.component = attr.Value.String()
		case !h.grouped && attr.Key == FieldSessionID:
			clone.session = shortSession(attr.Value.String())
		default:
			rest = append(rest, attr)
		}
	}
	if len(rest) > 0 {
		clone.text = h.text.WithAttrs(rest)
	}
	return &clone
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.text = h.text.WithGroup(name)
	clone.grouped = true
	return &clone
}

func shortSession(id string) string {
	id = strings.ReplaceAll(id, "-", "")
	if len(id) > shortSessionLen {
		return id[:shortSessionLen]
	}
	return id
}
