package sse

import "time"

// Heartbeat paces keep-alive comments for one SSE connection. It only
// delivers ticks; the handler's write loop consumes them and performs the
// write itself, so keep-alives and event frames share a single writer and
// can never interleave on the wire.
type Heartbeat struct {
	ticker *time.Ticker
}

// NewHeartbeat creates a heartbeat firing at the given interval.
func NewHeartbeat(interval time.Duration) *Heartbeat {
	return &Heartbeat{ticker: time.NewTicker(interval)}
}

// C delivers a tick each time a keep-alive is due.
func (h *Heartbeat) C() <-chan time.Time {
	return h.ticker.C
}

// Stop releases the ticker. Pending ticks are not drained.
func (h *Heartbeat) Stop() {
	h.ticker.Stop()
}
