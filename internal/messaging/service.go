// Package messaging implements listing-scoped buyer/seller chat: the
// conversation index, message threads and the live update bridge.
//
// Every operation takes the acting identity explicitly. The empty string
// stands for an unauthenticated caller.
package messaging

import (
	"context"
	"sort"

	"github.com/rentitout/backend/internal/metrics"
	"github.com/rentitout/backend/internal/models"
	"github.com/rentitout/backend/pkg/logger"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

type Service struct {
	messages MessageStore
	listings ListingStore
	cache    Cache
	log      zerolog.Logger

	inflight singleflight.Group
}

type ServiceOption func(*Service)

// WithCache enables thread caching. A nil cache disables it.
func WithCache(c Cache) ServiceOption {
	return func(s *Service) { s.cache = c }
}

func WithLogger(l zerolog.Logger) ServiceOption {
	return func(s *Service) { s.log = l }
}

func NewService(messages MessageStore, listings ListingStore, opts ...ServiceOption) *Service {
	s := &Service{
		messages: messages,
		listings: listings,
		log:      logger.With("messaging"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Option tunes a single LoadThread or Send call.
type Option func(*callOptions)

type callOptions struct {
	counterpart     string
	clientMessageID string
}

// WithCounterpart picks which renter an owner is talking to. It is ignored
// for non-owners, who always talk to the owner.
func WithCounterpart(id string) Option {
	return func(o *callOptions) { o.counterpart = id }
}

// WithClientMessageID makes Send idempotent for the given key.
func WithClientMessageID(id string) Option {
	return func(o *callOptions) { o.clientMessageID = id }
}

func applyOptions(opts []Option) callOptions {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ThreadFor returns the query selecting identity's conversation on listing.
func ThreadFor(identity string, listing *models.Product, counterpart string) ThreadQuery {
	q := ThreadQuery{ListingID: listing.ID, Identity: identity}
	if listing.OwnedBy(identity) {
		if counterpart != identity {
			q.Counterpart = counterpart
		}
	} else {
		q.Counterpart = listing.SellerID
	}
	return q
}

// ResolveListing loads a listing by id.
func (s *Service) ResolveListing(ctx context.Context, id uint) (*models.Product, error) {
	p, err := s.listings.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("resolve listing", err)
	}
	if p == nil {
		return nil, ErrListingNotFound
	}
	return p, nil
}

func (s *Service) invalidate(ctx context.Context, listingID uint) {
	if s.cache != nil {
		s.cache.InvalidateListing(ctx, listingID)
	}
}

func sortMessages(msgs []models.ChatMessage) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Before(&msgs[j])
	})
}

// inflightKey scopes a client message id to its sender. The listing is left
// out so a replay on another listing meets the first send and is rejected.
func inflightKey(identity, clientMessageID string) string {
	return identity + "|" + clientMessageID
}

func recordCache(hit bool) {
	if hit {
		metrics.ThreadCache.WithLabelValues("hit").Inc()
		return
	}
	metrics.ThreadCache.WithLabelValues("miss").Inc()
}
