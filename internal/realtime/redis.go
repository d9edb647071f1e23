package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rentitout/backend/internal/metrics"
	"github.com/rentitout/backend/internal/models"
	"github.com/rentitout/backend/pkg/logger"
	"github.com/rs/zerolog"
)

// RedisFeed publishes inserts on one Redis channel per listing so every
// server instance sees every insert.
type RedisFeed struct {
	client *redis.Client
	buffer int
	log    zerolog.Logger
}

func NewRedisFeed(client *redis.Client) *RedisFeed {
	return &RedisFeed{
		client: client,
		buffer: DefaultBuffer,
		log:    logger.With("realtime"),
	}
}

// Channel is the pub/sub channel carrying inserts for listingID.
func Channel(listingID uint) string {
	return fmt.Sprintf("chat:listing:%d", listingID)
}

func (f *RedisFeed) Publish(ctx context.Context, msg models.ChatMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return f.client.Publish(ctx, Channel(msg.ProductID), payload).Err()
}

func (f *RedisFeed) Subscribe(ctx context.Context, listingID uint) (<-chan models.ChatMessage, func(), error) {
	pubsub := f.client.Subscribe(ctx, Channel(listingID))
	// Wait for the subscription confirmation so a dead Redis fails here.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe %s: %w", Channel(listingID), err)
	}

	out := make(chan models.ChatMessage, f.buffer)
	done := make(chan struct{})
	go func() {
		defer close(out)
		for raw := range pubsub.Channel() {
			msg, err := decode(raw.Payload)
			if err != nil {
				f.log.Warn().Err(err).Str("channel", raw.Channel).Msg("Discarding malformed chat notification")
				continue
			}
			select {
			case out <- msg:
			case <-done:
				return
			default:
				metrics.FeedDeliveries.WithLabelValues("dropped").Inc()
			}
		}
	}()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			close(done)
			if err := pubsub.Close(); err != nil {
				f.log.Debug().Err(err).Uint("listing_id", listingID).Msg("Closing chat subscription")
			}
		})
	}
	return out, unsubscribe, nil
}

func decode(payload string) (models.ChatMessage, error) {
	var msg models.ChatMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		return msg, err
	}
	if msg.ID == 0 || msg.ProductID == 0 {
		return msg, fmt.Errorf("incomplete chat notification")
	}
	return msg, nil
}
