package messaging

import (
	"context"
	"errors"
	"strings"

	"github.com/rentitout/backend/internal/metrics"
	"github.com/rentitout/backend/internal/models"
)

// LoadThread returns identity's conversation on listing in timestamp order.
//
// A non-owner always sees the exchange with the listing owner. The owner
// sees the exchange with the renter named by WithCounterpart, or every
// message on the listing that involves them when no counterpart is given.
func (s *Service) LoadThread(ctx context.Context, identity string, listing *models.Product, opts ...Option) ([]models.ChatMessage, error) {
	if identity == "" {
		return []models.ChatMessage{}, nil
	}
	if listing == nil {
		return nil, ErrListingNotFound
	}

	o := applyOptions(opts)
	q := ThreadFor(identity, listing, o.counterpart)

	// The version is read before the store so that an insert racing with
	// this load makes the Set below a no-op.
	version, cached := uint64(0), false
	if s.cache != nil {
		version, cached = s.cache.Version(ctx, q.ListingID)
	}
	if cached {
		if msgs, ok := s.cache.Get(ctx, q, version); ok {
			recordCache(true)
			return msgs, nil
		}
		recordCache(false)
	}

	rows, err := s.messages.ListThread(ctx, q)
	if err != nil {
		return nil, storeErr("load thread", err)
	}

	msgs := make([]models.ChatMessage, 0, len(rows))
	for i := range rows {
		if q.Matches(&rows[i]) {
			msgs = append(msgs, rows[i])
		}
	}
	sortMessages(msgs)

	if cached {
		s.cache.Set(ctx, q, version, msgs)
	}
	return msgs, nil
}

// Send stores a message from identity about listing and returns it with its
// assigned id and timestamp.
//
// A blank body is a no-op: Send returns a nil message and a nil error.
// The message goes to the listing owner. An owner replying to a renter
// names them with WithCounterpart.
//
// Only sends carrying WithClientMessageID are deduplicated. Concurrent calls
// with the same id share one insert, and a later replay returns the stored
// message. Two identical bodies without an id are two messages.
func (s *Service) Send(ctx context.Context, identity string, listing *models.Product, body string, opts ...Option) (*models.ChatMessage, error) {
	if strings.TrimSpace(body) == "" {
		return nil, nil
	}
	if identity == "" {
		return nil, ErrNotAuthenticated
	}
	if listing == nil {
		return nil, ErrListingNotFound
	}

	content, err := sanitizeBody(body)
	if err != nil {
		return nil, err
	}
	if content == "" {
		return nil, nil
	}

	o := applyOptions(opts)
	receiver := listing.SellerID
	if listing.OwnedBy(identity) && o.counterpart != "" {
		receiver = o.counterpart
	}

	msg := &models.ChatMessage{
		ProductID:  listing.ID,
		SenderID:   identity,
		ReceiverID: receiver,
		Content:    content,
	}
	if o.clientMessageID == "" {
		return s.insert(ctx, msg)
	}
	id := o.clientMessageID
	msg.ClientMessageID = &id

	v, err, _ := s.inflight.Do(inflightKey(identity, id), func() (interface{}, error) {
		return s.insert(ctx, msg)
	})
	if err != nil {
		return nil, err
	}

	saved := *v.(*models.ChatMessage)
	if saved.ProductID != listing.ID {
		// Shared with a concurrent send of the same id on another listing.
		return nil, ErrClientIDConflict
	}
	return &saved, nil
}

func (s *Service) insert(ctx context.Context, msg *models.ChatMessage) (*models.ChatMessage, error) {
	if msg.ClientMessageID != nil {
		existing, err := s.messages.FindByClientID(ctx, msg.SenderID, *msg.ClientMessageID)
		if err != nil {
			return nil, storeErr("send", err)
		}
		if existing != nil {
			if existing.ProductID != msg.ProductID {
				return nil, ErrClientIDConflict
			}
			return existing, nil
		}
	}

	if err := s.messages.Insert(ctx, msg); err != nil {
		if errors.Is(err, ErrClientIDConflict) {
			return nil, err
		}
		metrics.SendFailures.Inc()
		s.log.Error().Err(err).
			Uint("listing_id", msg.ProductID).
			Str("sender_id", msg.SenderID).
			Msg("Failed to store chat message")
		return nil, storeErr("send", err)
	}

	metrics.MessagesSent.Inc()
	s.invalidate(ctx, msg.ProductID)
	return msg, nil
}
