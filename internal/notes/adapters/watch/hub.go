// Package watch fans note snapshots out to ListAll subscribers.
package watch

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"cleannote/internal/notes/domain/entities"
	"cleannote/pkg/logger"
)

const (
	LogSubscribed   = "snapshot subscriber registered"
	LogUnsubscribed = "snapshot subscriber released"
	LogReplaced     = "undelivered snapshot replaced by a newer one"
)

type subscriber struct {
	ch   chan []entities.Note
	done chan struct{}
}

// closeLocked ends the subscription. The caller holds Hub.mu.
func (s *subscriber) closeLocked() {
	close(s.ch)
	close(s.done)
}

// Hub keeps the set of live subscriptions. Each subscriber holds at most one
// pending snapshot; publishing replaces an undelivered one, so writers never
// block on slow readers.
type Hub struct {
	mu     sync.Mutex
	subs   map[*subscriber]struct{}
	closed bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[*subscriber]struct{})}
}

// Subscribe registers a subscriber primed with initial. The returned channel is
// closed when ctx is done or the hub is closed.
func (h *Hub) Subscribe(ctx context.Context, initial []entities.Note) <-chan []entities.Note {
	sub := &subscriber{ch: make(chan []entities.Note, 1), done: make(chan struct{})}
	sub.ch <- initial

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(sub.ch)
		return sub.ch
	}
	h.subs[sub] = struct{}{}
	count := len(h.subs)
	h.mu.Unlock()

	logger.Log(ctx).Debug(ctx, LogSubscribed, zap.Int("subscribers", count))

	go func() {
		select {
		case <-ctx.Done():
			h.release(ctx, sub)
		case <-sub.done:
		}
	}()

	return sub.ch
}

// Publish delivers snapshot to every subscriber.
func (h *Hub) Publish(ctx context.Context, snapshot []entities.Note) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs {
		select {
		case <-sub.ch:
			logger.Log(ctx).Debug(ctx, LogReplaced)
		default:
		}
		select {
		case sub.ch <- snapshot:
		default:
		}
	}
}

// Len reports the number of live subscriptions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close releases every subscriber. Later subscriptions are closed at once.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for sub := range h.subs {
		sub.closeLocked()
		delete(h.subs, sub)
	}
}

func (h *Hub) release(ctx context.Context, sub *subscriber) {
	h.mu.Lock()
	_, ok := h.subs[sub]
	if ok {
		sub.closeLocked()
		delete(h.subs, sub)
	}
	count := len(h.subs)
	h.mu.Unlock()

	if ok {
		logger.Log(ctx).Debug(ctx, LogUnsubscribed, zap.Int("subscribers", count))
	}
}
