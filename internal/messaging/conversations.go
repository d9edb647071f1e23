package messaging

import (
	"context"
	"sort"

	"github.com/rentitout/backend/internal/models"
)

// Conversation summarizes one (listing, counterpart) pair.
type Conversation struct {
	Listing      models.Product     `json:"listing"`
	Counterpart  string             `json:"counterpartId"`
	LastMessage  models.ChatMessage `json:"lastMessage"`
	MessageCount int                `json:"messageCount"`
}

// ListConversations returns the listings identity has exchanged at least
// one message about, ordered by listing id. Listings that no longer resolve
// are left out.
func (s *Service) ListConversations(ctx context.Context, identity string) ([]models.Product, error) {
	if identity == "" {
		return []models.Product{}, nil
	}

	msgs, err := s.messages.ListForParticipant(ctx, identity)
	if err != nil {
		return nil, storeErr("list conversations", err)
	}

	seen := make(map[uint]struct{})
	ids := make([]uint, 0)
	for i := range msgs {
		if !msgs[i].Involves(identity) {
			continue
		}
		if _, dup := seen[msgs[i].ProductID]; dup {
			continue
		}
		seen[msgs[i].ProductID] = struct{}{}
		ids = append(ids, msgs[i].ProductID)
	}

	byID, err := s.resolveListings(ctx, identity, ids)
	if err != nil {
		return nil, err
	}

	out := make([]models.Product, 0, len(byID))
	for _, p := range byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Conversations is ListConversations broken down per counterpart, with the
// latest message of each, most recent activity first.
func (s *Service) Conversations(ctx context.Context, identity string) ([]Conversation, error) {
	if identity == "" {
		return []Conversation{}, nil
	}

	msgs, err := s.messages.ListForParticipant(ctx, identity)
	if err != nil {
		return nil, storeErr("list conversations", err)
	}

	type key struct {
		listing     uint
		counterpart string
	}
	groups := make(map[key]*Conversation)
	var ids []uint
	for i := range msgs {
		m := msgs[i]
		if !m.Involves(identity) {
			continue
		}
		k := key{listing: m.ProductID, counterpart: m.Counterpart(identity)}
		c, ok := groups[k]
		if !ok {
			c = &Conversation{Counterpart: k.counterpart, LastMessage: m}
			groups[k] = c
			ids = append(ids, m.ProductID)
		}
		c.MessageCount++
		if c.LastMessage.Before(&m) {
			c.LastMessage = m
		}
	}

	byID, err := s.resolveListings(ctx, identity, dedupIDs(ids))
	if err != nil {
		return nil, err
	}

	out := make([]Conversation, 0, len(groups))
	for k, c := range groups {
		listing, ok := byID[k.listing]
		if !ok {
			continue
		}
		c.Listing = listing
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[j].LastMessage.Before(&out[i].LastMessage)
	})
	return out, nil
}

// resolveListings looks up ids in one batch and drops dangling references.
func (s *Service) resolveListings(ctx context.Context, identity string, ids []uint) (map[uint]models.Product, error) {
	out := make(map[uint]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	listings, err := s.listings.FindByIDs(ctx, ids)
	if err != nil {
		return nil, storeErr("resolve listings", err)
	}
	for _, p := range listings {
		out[p.ID] = p
	}

	for _, id := range ids {
		if _, ok := out[id]; !ok {
			s.log.Warn().
				Uint("listing_id", id).
				Str("user_id", identity).
				Msg("Dropping conversation for missing listing")
		}
	}
	return out, nil
}

func dedupIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
