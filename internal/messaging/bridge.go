package messaging

import (
	"context"
	"sort"
	"sync"

	"github.com/rentitout/backend/internal/metrics"
	"github.com/rentitout/backend/internal/models"
	"github.com/rs/zerolog"
)

// Bridge keeps one open thread in step with inserts arriving on the change
// feed. It is either unsubscribed or subscribed to exactly one listing.
// A Bridge is safe for concurrent use.
type Bridge struct {
	svc      *Service
	feed     Feed
	identity string
	onAppend func(models.ChatMessage)
	log      zerolog.Logger

	mu          sync.Mutex
	generation  uint64
	active      bool
	query       ThreadQuery
	thread      []models.ChatMessage
	seen        map[int64]struct{}
	loading     bool
	pending     []models.ChatMessage // arrivals buffered while loading
	unsubscribe func()
}

type BridgeOption func(*Bridge)

// OnAppend registers a callback run for every message merged into the
// thread after Open. It runs outside the bridge lock.
func OnAppend(fn func(models.ChatMessage)) BridgeOption {
	return func(b *Bridge) { b.onAppend = fn }
}

func NewBridge(svc *Service, feed Feed, identity string, opts ...BridgeOption) *Bridge {
	b := &Bridge{
		svc:      svc,
		feed:     feed,
		identity: identity,
		log:      svc.log,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Open subscribes to listing's inserts, loads the thread and returns it,
// closing whatever was open before. Inserts that arrive while the thread is
// loading are buffered and merged into the returned snapshot. If the
// subscription cannot be established the snapshot is still returned and the
// thread stays read-only.
func (b *Bridge) Open(ctx context.Context, listing *models.Product, counterpart string) ([]models.ChatMessage, error) {
	b.Close()

	if listing == nil {
		return nil, ErrListingNotFound
	}

	b.mu.Lock()
	b.generation++
	gen := b.generation
	b.query = ThreadFor(b.identity, listing, counterpart)
	b.loading = true
	b.pending = nil
	b.mu.Unlock()

	var unsubscribe func()
	if b.identity != "" && b.feed != nil {
		ch, unsub, err := b.feed.Subscribe(context.WithoutCancel(ctx), listing.ID)
		if err != nil {
			b.log.Warn().Err(err).
				Uint("listing_id", listing.ID).
				Str("user_id", b.identity).
				Msg("Live updates unavailable, serving thread snapshot")
		} else {
			unsubscribe = unsub
			metrics.ActiveSubscriptions.Inc()
			go b.pump(gen, ch)
		}
	}
	release := func() {
		if unsubscribe != nil {
			unsubscribe()
			metrics.ActiveSubscriptions.Dec()
		}
	}

	msgs, err := b.svc.LoadThread(ctx, b.identity, listing, WithCounterpart(counterpart))
	if err != nil {
		b.mu.Lock()
		if b.generation == gen {
			b.generation++
			b.loading = false
			b.pending = nil
		}
		b.mu.Unlock()
		release()
		return nil, err
	}

	b.mu.Lock()
	if b.generation != gen {
		// Closed or reopened while loading.
		b.mu.Unlock()
		release()
		return msgs, nil
	}
	b.active = true
	b.loading = false
	b.thread = msgs
	b.seen = make(map[int64]struct{}, len(msgs))
	for _, m := range msgs {
		b.seen[m.ID] = struct{}{}
	}
	merged := 0
	for _, m := range b.pending {
		if b.insertLocked(m) {
			merged++
		}
	}
	b.pending = nil
	b.unsubscribe = unsubscribe
	snapshot := cloneMessages(b.thread)
	b.mu.Unlock()

	if merged > 0 {
		b.svc.invalidate(ctx, listing.ID)
	}
	return snapshot, nil
}

// Close drops the subscription, if any. Notifications still in flight for
// the old listing are discarded.
func (b *Bridge) Close() {
	b.mu.Lock()
	unsubscribe := b.unsubscribe
	b.unsubscribe = nil
	b.active = false
	b.loading = false
	b.pending = nil
	b.generation++
	b.thread = nil
	b.seen = nil
	b.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
		metrics.ActiveSubscriptions.Dec()
	}
}

// Merge adds msg to the open thread if it belongs there and is new. It
// reports whether the thread changed.
func (b *Bridge) Merge(msg models.ChatMessage) bool {
	b.mu.Lock()
	gen := b.generation
	b.mu.Unlock()
	return b.deliver(gen, msg)
}

// Messages returns a copy of the open thread in display order.
func (b *Bridge) Messages() []models.ChatMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return cloneMessages(b.thread)
}

// ListingID reports the listing the bridge is subscribed to.
func (b *Bridge) ListingID() (uint, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.query.ListingID, b.active
}

func (b *Bridge) pump(gen uint64, ch <-chan models.ChatMessage) {
	for msg := range ch {
		b.deliver(gen, msg)
	}
}

func (b *Bridge) deliver(gen uint64, msg models.ChatMessage) bool {
	b.mu.Lock()
	if b.generation != gen || (!b.active && !b.loading) {
		b.mu.Unlock()
		metrics.FeedDeliveries.WithLabelValues("stale").Inc()
		return false
	}
	if !b.query.Matches(&msg) {
		b.mu.Unlock()
		return false
	}
	if b.loading {
		b.pending = append(b.pending, msg)
		b.mu.Unlock()
		metrics.FeedDeliveries.WithLabelValues("buffered").Inc()
		return false
	}
	if !b.insertLocked(msg) {
		b.mu.Unlock()
		metrics.FeedDeliveries.WithLabelValues("duplicate").Inc()
		return false
	}
	listingID := b.query.ListingID
	onAppend := b.onAppend
	b.mu.Unlock()

	metrics.FeedDeliveries.WithLabelValues("delivered").Inc()
	b.svc.invalidate(context.Background(), listingID)
	if onAppend != nil {
		onAppend(msg)
	}
	return true
}

// insertLocked adds msg in (created_at, id) order unless it is already
// present. b.mu must be held.
func (b *Bridge) insertLocked(msg models.ChatMessage) bool {
	if _, dup := b.seen[msg.ID]; dup {
		return false
	}
	b.seen[msg.ID] = struct{}{}
	// Arrivals are normally newest so this is usually an append.
	i := sort.Search(len(b.thread), func(i int) bool {
		return msg.Before(&b.thread[i])
	})
	b.thread = append(b.thread, models.ChatMessage{})
	copy(b.thread[i+1:], b.thread[i:])
	b.thread[i] = msg
	return true
}
