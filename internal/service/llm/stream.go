package llm

import (
	"context"
	"sync"

	domainllm "skiff/internal/domain/services/llm"
)

// subscriberBuffer is the per-subscriber channel capacity. A subscriber that
// falls this far behind is dropped rather than stalling the generation.
const subscriberBuffer = 256

// StreamHandle is one live generation stream. The turn goroutine publishes
// chunks into it; any number of SSE connections subscribe, each receiving
// the full history followed by live chunks.
type StreamHandle struct {
	ID     string
	ChatID string

	mu      sync.Mutex
	history []domainllm.Chunk
	subs    map[int]chan domainllm.Chunk
	nextSub int
	done    bool

	cancel context.CancelFunc
}

// NewStreamHandle creates a stream handle. cancel aborts the generation
// backing this stream.
func NewStreamHandle(id, chatID string, cancel context.CancelFunc) *StreamHandle {
	return &StreamHandle{
		ID:     id,
		ChatID: chatID,
		subs:   make(map[int]chan domainllm.Chunk),
		cancel: cancel,
	}
}

// Publish appends a chunk to the history and delivers it to all subscribers.
// No-op once the stream is finished.
func (h *StreamHandle) Publish(chunk domainllm.Chunk) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.done {
		return
	}
	h.history = append(h.history, chunk)

	for id, ch := range h.subs {
		select {
		case ch <- chunk:
		default:
			// Subscriber too slow, drop it.
			close(ch)
			delete(h.subs, id)
		}
	}
}

// Subscribe returns the chunks published so far plus a live channel for the
// rest. The channel is closed when the stream finishes. On an already
// finished stream the live channel comes back closed. The returned function
// unsubscribes; it is safe to call more than once.
func (h *StreamHandle) Subscribe() ([]domainllm.Chunk, <-chan domainllm.Chunk, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	snapshot := make([]domainllm.Chunk, len(h.history))
	copy(snapshot, h.history)

	ch := make(chan domainllm.Chunk, subscriberBuffer)
	if h.done {
		close(ch)
		return snapshot, ch, func() {}
	}

	id := h.nextSub
	h.nextSub++
	h.subs[id] = ch

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if live, ok := h.subs[id]; ok {
				close(live)
				delete(h.subs, id)
			}
		})
	}
	return snapshot, ch, unsubscribe
}

// Finish marks the stream complete and closes all subscriber channels.
func (h *StreamHandle) Finish() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.done {
		return
	}
	h.done = true
	for id, ch := range h.subs {
		close(ch)
		delete(h.subs, id)
	}
}

// Done reports whether the stream has finished.
func (h *StreamHandle) Done() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.done
}

// Cancel aborts the generation backing this stream.
func (h *StreamHandle) Cancel() {
	if h.cancel != nil {
		h.cancel()
	}
}
