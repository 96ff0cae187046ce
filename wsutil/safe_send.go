package wsutil

import "log/slog"

// SafeSend sends data to a channel without blocking or panicking. It reports
// whether the data was queued. A full channel drops the message; a closed
// channel (a connection that went away mid-broadcast) is recovered and logged.
func SafeSend(ch chan []byte, data []byte) (sent bool) {
	if ch == nil {
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("send on closed channel", "tag", "wsutil", "panic", r)
			sent = false
		}
	}()
	select {
	case ch <- data:
		return true
	default:
		slog.Warn("send buffer full, dropping message", "tag", "wsutil", "bytes", len(data))
		return false
	}
}
