package llm

import (
	"context"
	"sync"
	"time"
)

// StreamRegistry tracks the active generation stream per chat so later SSE
// connections can resume it.
//
// Lifecycle:
//  1. TurnService creates a StreamHandle and registers it under the chat ID
//  2. SSE clients look the handle up and subscribe
//  3. The turn goroutine finishes and marks the stream completed
//  4. The cleanup goroutine drops completed handles after the retention period
type StreamRegistry struct {
	streams map[string]*StreamHandle
	mu      sync.RWMutex

	cleanupInterval time.Duration
	retentionPeriod time.Duration

	completionTimes map[string]time.Time
	timesMu         sync.Mutex
}

// NewStreamRegistry creates a stream registry.
func NewStreamRegistry(cleanupInterval, retentionPeriod time.Duration) *StreamRegistry {
	return &StreamRegistry{
		streams:         make(map[string]*StreamHandle),
		cleanupInterval: cleanupInterval,
		retentionPeriod: retentionPeriod,
		completionTimes: make(map[string]time.Time),
	}
}

// Register installs the handle as the chat's active stream, superseding and
// cancelling any previous one.
func (r *StreamRegistry) Register(chatID string, handle *StreamHandle) {
	r.mu.Lock()
	previous := r.streams[chatID]
	r.streams[chatID] = handle
	r.mu.Unlock()

	r.timesMu.Lock()
	delete(r.completionTimes, chatID)
	r.timesMu.Unlock()

	if previous != nil && !previous.Done() {
		previous.Cancel()
	}
}

// Get returns the chat's stream handle, live or recently completed.
// Returns nil if none is registered.
func (r *StreamRegistry) Get(chatID string) *StreamHandle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.streams[chatID]
}

// Active returns the chat's stream handle only while the generation is still
// running.
func (r *StreamRegistry) Active(chatID string) *StreamHandle {
	handle := r.Get(chatID)
	if handle == nil || handle.Done() {
		return nil
	}
	return handle
}

// MarkCompleted records the completion time for cleanup tracking.
func (r *StreamRegistry) MarkCompleted(chatID string) {
	r.timesMu.Lock()
	defer r.timesMu.Unlock()
	r.completionTimes[chatID] = time.Now()
}

// Remove drops the chat's stream handle. Safe to call when none exists.
func (r *StreamRegistry) Remove(chatID string) {
	r.mu.Lock()
	delete(r.streams, chatID)
	r.mu.Unlock()

	r.timesMu.Lock()
	delete(r.completionTimes, chatID)
	r.timesMu.Unlock()
}

// StartCleanup runs the cleanup loop until ctx is cancelled. It blocks, so
// callers start it in its own goroutine.
func (r *StreamRegistry) StartCleanup(ctx context.Context) {
	ticker := time.NewTicker(r.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.cleanup()
		}
	}
}

// cleanup removes handles that completed more than retentionPeriod ago.
func (r *StreamRegistry) cleanup() {
	now := time.Now()

	r.timesMu.Lock()
	var expired []string
	for chatID, completedAt := range r.completionTimes {
		if now.Sub(completedAt) > r.retentionPeriod {
			expired = append(expired, chatID)
		}
	}
	r.timesMu.Unlock()

	for _, chatID := range expired {
		r.Remove(chatID)
	}
}
