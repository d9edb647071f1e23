package repository

import (
	"context"
	"errors"

	"github.com/rentitout/backend/internal/database"
	"github.com/rentitout/backend/internal/messaging"
	"github.com/rentitout/backend/internal/models"
	"github.com/rentitout/backend/pkg/logger"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// ChatMessages is the gorm-backed messaging.MessageStore. Every successful
// insert is announced on the change feed, when one is attached.
type ChatMessages struct {
	db   *gorm.DB
	feed messaging.Publisher
	log  zerolog.Logger
}

func NewChatMessages(db *gorm.DB, feed messaging.Publisher) *ChatMessages {
	return &ChatMessages{db: db, feed: feed, log: logger.With("repository")}
}

func (r *ChatMessages) ListForParticipant(ctx context.Context, identity string) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	err := r.db.WithContext(ctx).
		Where("sender_id = ? OR receiver_id = ?", identity, identity).
		Order("created_at asc, id asc").
		Find(&msgs).Error
	return msgs, err
}

func (r *ChatMessages) ListThread(ctx context.Context, q messaging.ThreadQuery) ([]models.ChatMessage, error) {
	tx := r.db.WithContext(ctx).Where("product_id = ?", q.ListingID)
	if q.Counterpart == "" {
		tx = tx.Where("sender_id = ? OR receiver_id = ?", q.Identity, q.Identity)
	} else {
		tx = tx.Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			q.Identity, q.Counterpart, q.Counterpart, q.Identity)
	}

	var msgs []models.ChatMessage
	err := tx.Order("created_at asc, id asc").Find(&msgs).Error
	return msgs, err
}

// Insert stores msg. A concurrent insert of the same client message id from
// another instance resolves to the row that won, provided it is on the same
// listing.
func (r *ChatMessages) Insert(ctx context.Context, msg *models.ChatMessage) error {
	err := r.db.WithContext(ctx).Create(msg).Error
	if err != nil {
		if msg.ClientMessageID != nil && database.IsUniqueViolation(err) {
			existing, findErr := r.FindByClientID(ctx, msg.SenderID, *msg.ClientMessageID)
			if findErr == nil && existing != nil {
				if existing.ProductID != msg.ProductID {
					return messaging.ErrClientIDConflict
				}
				*msg = *existing
				return nil
			}
		}
		return err
	}

	if r.feed != nil {
		if err := r.feed.Publish(ctx, *msg); err != nil {
			r.log.Warn().Err(err).
				Int64("message_id", msg.ID).
				Uint("listing_id", msg.ProductID).
				Msg("Failed to publish chat insert")
		}
	}
	return nil
}

func (r *ChatMessages) FindByClientID(ctx context.Context, senderID, clientMessageID string) (*models.ChatMessage, error) {
	var msg models.ChatMessage
	err := r.db.WithContext(ctx).
		Where("sender_id = ? AND client_message_id = ?", senderID, clientMessageID).
		First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// CountByListing returns how many messages were exchanged per listing.
func (r *ChatMessages) CountByListing(ctx context.Context) (map[uint]int64, error) {
	var rows []struct {
		ProductID uint
		Total     int64
	}
	err := r.db.WithContext(ctx).Model(&models.ChatMessage{}).
		Select("product_id, count(*) as total").
		Group("product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uint]int64, len(rows))
	for _, row := range rows {
		out[row.ProductID] = row.Total
	}
	return out, nil
}
