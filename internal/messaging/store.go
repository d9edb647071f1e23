package messaging

import (
	"context"
	"fmt"

	"github.com/rentitout/backend/internal/models"
)

// ThreadQuery selects the messages of one conversation about a listing.
// With an empty Counterpart every message on the listing that involves
// Identity matches.
type ThreadQuery struct {
	ListingID   uint
	Identity    string
	Counterpart string
}

// Key returns the cache key for the query.
func (q ThreadQuery) Key() string {
	return fmt.Sprintf("thread:%d:%s:%s", q.ListingID, q.Identity, q.Counterpart)
}

// MessageStore is the relational side of chat_messages.
type MessageStore interface {
	// ListForParticipant returns every message sent or received by identity.
	ListForParticipant(ctx context.Context, identity string) ([]models.ChatMessage, error)
	// ListThread returns the matching messages ordered by created_at, id.
	ListThread(ctx context.Context, q ThreadQuery) ([]models.ChatMessage, error)
	// Insert persists msg, filling in its ID and CreatedAt.
	Insert(ctx context.Context, msg *models.ChatMessage) error
	// FindByClientID returns nil, nil when no message carries the key.
	FindByClientID(ctx context.Context, senderID, clientMessageID string) (*models.ChatMessage, error)
}

// ListingStore resolves listing references.
type ListingStore interface {
	FindByIDs(ctx context.Context, ids []uint) ([]models.Product, error)
	// FindByID returns nil, nil when the listing does not exist.
	FindByID(ctx context.Context, id uint) (*models.Product, error)
}

// Publisher announces a newly inserted message on the change feed.
type Publisher interface {
	Publish(ctx context.Context, msg models.ChatMessage) error
}

// Feed is the change feed for chat_messages inserts, scoped per listing.
// The returned channel is closed once unsubscribe has been called.
type Feed interface {
	Publisher
	Subscribe(ctx context.Context, listingID uint) (<-chan models.ChatMessage, func(), error)
}

// Cache holds loaded threads. Entries are tagged with the listing's version;
// InvalidateListing bumps it, so an entry read before an insert can never be
// stored as current after it. Implementations must be safe for concurrent
// use.
type Cache interface {
	// Version returns the listing's current version. ok is false when the
	// cache cannot be read and should be bypassed.
	Version(ctx context.Context, listingID uint) (version uint64, ok bool)
	Get(ctx context.Context, q ThreadQuery, version uint64) ([]models.ChatMessage, bool)
	// Set stores msgs unless the listing has moved past version.
	Set(ctx context.Context, q ThreadQuery, version uint64, msgs []models.ChatMessage)
	InvalidateListing(ctx context.Context, listingID uint)
}

// Matches reports whether msg belongs to the thread q describes.
func (q ThreadQuery) Matches(msg *models.ChatMessage) bool {
	if msg.ProductID != q.ListingID {
		return false
	}
	if q.Counterpart == "" {
		return msg.Involves(q.Identity)
	}
	return msg.Between(q.Identity, q.Counterpart)
}
