package messaging

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rentitout/backend/internal/models"
)

var errStoreDown = errors.New("connection refused")

// memStore is an in-memory MessageStore and ListingStore.
type memStore struct {
	mu       sync.Mutex
	nextID   int64
	clock    time.Time
	messages []models.ChatMessage
	listings map[uint]models.Product
	feed     Publisher

	failReads   bool
	failInserts bool
	inserts     int
	// afterList runs once, after the next ListThread has read its rows.
	afterList func()
}

func newMemStore(listings ...models.Product) *memStore {
	s := &memStore{
		clock:    time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		listings: make(map[uint]models.Product),
	}
	for _, l := range listings {
		s.listings[l.ID] = l
	}
	return s
}

func (s *memStore) ListForParticipant(_ context.Context, identity string) ([]models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failReads {
		return nil, errStoreDown
	}
	var out []models.ChatMessage
	for _, m := range s.messages {
		if m.SenderID == identity || m.ReceiverID == identity {
			out = append(out, m)
		}
	}
	return out, nil
}

// ListThread deliberately applies only the loose OR filter so the service's
// own pairing check is exercised.
func (s *memStore) ListThread(_ context.Context, q ThreadQuery) ([]models.ChatMessage, error) {
	s.mu.Lock()
	if s.failReads {
		s.mu.Unlock()
		return nil, errStoreDown
	}
	var out []models.ChatMessage
	for _, m := range s.messages {
		if m.ProductID == q.ListingID && (m.SenderID == q.Identity || m.ReceiverID == q.Identity) {
			out = append(out, m)
		}
	}
	hook := s.afterList
	s.afterList = nil
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
	return out, nil
}

func (s *memStore) Insert(ctx context.Context, msg *models.ChatMessage) error {
	s.mu.Lock()
	if s.failInserts {
		s.mu.Unlock()
		return errStoreDown
	}
	s.nextID++
	s.clock = s.clock.Add(time.Second)
	msg.ID = s.nextID
	msg.CreatedAt = s.clock
	s.messages = append(s.messages, *msg)
	s.inserts++
	feed := s.feed
	s.mu.Unlock()

	if feed != nil {
		_ = feed.Publish(ctx, *msg)
	}
	return nil
}

func (s *memStore) FindByClientID(_ context.Context, senderID, clientID string) (*models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.messages {
		if m.SenderID == senderID && m.ClientMessageID != nil && *m.ClientMessageID == clientID {
			found := m
			return &found, nil
		}
	}
	return nil, nil
}

// seed stores a message directly with an explicit timestamp and id.
func (s *memStore) seed(m models.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID > s.nextID {
		s.nextID = m.ID
	}
	s.messages = append(s.messages, m)
}

func (s *memStore) FindByIDs(_ context.Context, ids []uint) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failReads {
		return nil, errStoreDown
	}
	var out []models.Product
	for _, id := range ids {
		if p, ok := s.listings[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memStore) FindByID(_ context.Context, id uint) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failReads {
		return nil, errStoreDown
	}
	p, ok := s.listings[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *memStore) insertCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inserts
}

// fakeFeed is a synchronous change feed: Publish hands the message to every
// current subscriber of the listing before returning.
type fakeFeed struct {
	mu      sync.Mutex
	subs    map[uint][]chan models.ChatMessage
	failSub bool
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{subs: make(map[uint][]chan models.ChatMessage)}
}

func (f *fakeFeed) Publish(_ context.Context, msg models.ChatMessage) error {
	f.mu.Lock()
	subs := append([]chan models.ChatMessage(nil), f.subs[msg.ProductID]...)
	f.mu.Unlock()
	for _, ch := range subs {
		ch <- msg
	}
	return nil
}

func (f *fakeFeed) Subscribe(_ context.Context, listingID uint) (<-chan models.ChatMessage, func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSub {
		return nil, nil, errStoreDown
	}
	ch := make(chan models.ChatMessage, 16)
	f.subs[listingID] = append(f.subs[listingID], ch)

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			list := f.subs[listingID]
			for i, c := range list {
				if c == ch {
					f.subs[listingID] = append(list[:i], list[i+1:]...)
					break
				}
			}
			close(ch)
		})
	}, nil
}

func (f *fakeFeed) subscribers(listingID uint) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs[listingID])
}

func listing(id uint, owner string) models.Product {
	return models.Product{ID: id, Name: "Listing", SellerID: owner, Available: true}
}

func msgAt(id int64, listingID uint, from, to string, at time.Time) models.ChatMessage {
	return models.ChatMessage{ID: id, ProductID: listingID, SenderID: from, ReceiverID: to, Content: "m", CreatedAt: at}
}
