// Package realtime carries chat_messages inserts to live subscribers, either
// inside one process (Hub) or across instances through Redis (RedisFeed).
package realtime

import (
	"context"
	"sync"

	"github.com/rentitout/backend/internal/metrics"
	"github.com/rentitout/backend/internal/models"
	"github.com/rentitout/backend/pkg/logger"
	"github.com/rs/zerolog"
)

// DefaultBuffer is the per-subscriber queue length.
const DefaultBuffer = 32

type subscriber struct {
	ch     chan models.ChatMessage
	closed bool
}

// Hub is an in-process, per-listing fan-out. Publish never blocks: a
// subscriber whose buffer is full misses the message.
type Hub struct {
	buffer int
	log    zerolog.Logger

	mu   sync.RWMutex
	subs map[uint]map[*subscriber]struct{}
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		buffer: buffer,
		log:    logger.With("realtime"),
		subs:   make(map[uint]map[*subscriber]struct{}),
	}
}

func (h *Hub) Publish(_ context.Context, msg models.ChatMessage) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs[msg.ProductID] {
		select {
		case sub.ch <- msg:
		default:
			metrics.FeedDeliveries.WithLabelValues("dropped").Inc()
			h.log.Warn().
				Uint("listing_id", msg.ProductID).
				Int64("message_id", msg.ID).
				Msg("Subscriber buffer full, dropping notification")
		}
	}
	return nil
}

// Subscribe registers for inserts on listingID. The channel is closed by
// the returned unsubscribe func, which is safe to call more than once.
func (h *Hub) Subscribe(_ context.Context, listingID uint) (<-chan models.ChatMessage, func(), error) {
	sub := &subscriber{ch: make(chan models.ChatMessage, h.buffer)}

	h.mu.Lock()
	set, ok := h.subs[listingID]
	if !ok {
		set = make(map[*subscriber]struct{})
		h.subs[listingID] = set
	}
	set[sub] = struct{}{}
	h.mu.Unlock()

	unsubscribe := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub.closed {
			return
		}
		sub.closed = true
		delete(h.subs[listingID], sub)
		if len(h.subs[listingID]) == 0 {
			delete(h.subs, listingID)
		}
		close(sub.ch)
	}
	return sub.ch, unsubscribe, nil
}

// Subscribers returns the number of live subscriptions on listingID.
func (h *Hub) Subscribers(listingID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[listingID])
}
