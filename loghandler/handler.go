package loghandler

import (
	"context"
	"io"
	"log/slog"
	"sync"
)

const timeFormat = "2006/01/02 15:04:05"

const (
	tagKey   = "tag"
	lobbyKey = "lobby"
)

// CompactHandler writes logs in a compact form: timestamp + optional [tag] prefix + message + attrs.
// Timestamp format: 2006/01/02 15:04:05 (no TZ, no milliseconds). No level is written.
// A "tag" attribute is rendered as "[tag] " after the timestamp, and a "lobby"
// attribute joins it as "[tag lobby=ABCD] "; neither is repeated in the
// key=value list. Attributes bound with WithAttrs are kept.
type CompactHandler struct {
	mu    *sync.Mutex
	w     io.Writer
	level slog.Leveler
	attrs []slog.Attr
	group string
}

// NewCompactHandler returns a handler that writes to w with minimum level.
func NewCompactHandler(w io.Writer, level slog.Leveler) *CompactHandler {
	return &CompactHandler{mu: &sync.Mutex{}, w: w, level: level}
}

// Enabled reports whether the handler handles records at the given level.
func (h *CompactHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats the record as: 2006/01/02 15:04:05 [tag lobby=ID] message key=value ...
func (h *CompactHandler) Handle(_ context.Context, r slog.Record) error {
	var tag, lobby string
	var rest []slog.Attr
	collect := func(a slog.Attr) bool {
		switch {
		case a.Key == tagKey && a.Value.Kind() == slog.KindString:
			tag = a.Value.String()
		case a.Key == lobbyKey:
			lobby = a.Value.String()
		default:
			rest = append(rest, a)
		}
		return true
	}
	for _, a := range h.attrs {
		collect(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		if h.group == "" {
			return collect(a)
		}
		rest = append(rest, qualify(h.group, a))
		return true
	})

	buf := make([]byte, 0, 256)
	buf = append(buf, r.Time.Format(timeFormat)...)
	buf = append(buf, ' ')
	if tag != "" || lobby != "" {
		buf = append(buf, '[')
		buf = append(buf, tag...)
		if lobby != "" {
			if tag != "" {
				buf = append(buf, ' ')
			}
			buf = append(buf, lobbyKey+"="...)
			buf = append(buf, lobby...)
		}
		buf = append(buf, "] "...)
	}
	buf = append(buf, r.Message...)
	for _, a := range rest {
		buf = append(buf, ' ')
		buf = append(buf, a.Key...)
		buf = append(buf, '=')
		buf = append(buf, a.Value.String()...)
	}
	buf = append(buf, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf)
	return err
}

// WithAttrs returns a handler that includes attrs in every record. Attrs are
// qualified by the groups open at the time they are bound.
func (h *CompactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	h2 := *h
	h2.attrs = append([]slog.Attr(nil), h.attrs...)
	for _, a := range attrs {
		if h.group != "" {
			a = qualify(h.group, a)
		}
		h2.attrs = append(h2.attrs, a)
	}
	return &h2
}

// WithGroup prefixes subsequent record attribute keys with name.
func (h *CompactHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	if h2.group != "" {
		name = h2.group + "." + name
	}
	h2.group = name
	return &h2
}

func qualify(group string, a slog.Attr) slog.Attr {
	return slog.Attr{Key: group + "." + a.Key, Value: a.Value}
}
