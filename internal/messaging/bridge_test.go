package messaging

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rentitout/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBridgeFixture(listings ...models.Product) (*memStore, *fakeFeed, *Service) {
	store := newMemStore(listings...)
	feed := newFakeFeed()
	store.feed = feed
	return store, feed, NewService(store, store, WithCache(NewMemoryCache(time.Minute)))
}

func threadIDs(msgs []models.ChatMessage) []int64 {
	out := make([]int64, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.ID)
	}
	return out
}

func TestBridge_LiveAppend(t *testing.T) {
	l := listing(1, "owner")
	store, feed, svc := newBridgeFixture(l)
	store.seed(msgAt(1, 1, "buyer", "owner", time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)))

	var mu sync.Mutex
	var appended []int64
	b := NewBridge(svc, feed, "buyer", OnAppend(func(m models.ChatMessage) {
		mu.Lock()
		appended = append(appended, m.ID)
		mu.Unlock()
	}))
	defer b.Close()

	snapshot, err := b.Open(context.Background(), &l, "")
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, threadIDs(snapshot))
	assert.Equal(t, 1, feed.subscribers(1))

	reply, err := svc.Send(context.Background(), "owner", &l, "Still free", WithCounterpart("buyer"))
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return len(b.Messages()) == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []int64{1, reply.ID}, threadIDs(b.Messages()))

	mu.Lock()
	assert.Equal(t, []int64{reply.ID}, appended)
	mu.Unlock()
}

func TestBridge_InsertDuringLoadIsMerged(t *testing.T) {
	l := listing(1, "owner")
	store, feed, svc := newBridgeFixture(l)
	store.seed(msgAt(1, 1, "buyer", "owner", time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)))

	var appended int
	b := NewBridge(svc, feed, "buyer", OnAppend(func(models.ChatMessage) { appended++ }))
	defer b.Close()

	// The owner replies after the thread rows are read but before Open
	// returns. The reply only reaches the bridge through the feed.
	var reply models.ChatMessage
	store.afterList = func() {
		reply = models.ChatMessage{ProductID: 1, SenderID: "owner", ReceiverID: "buyer", Content: "Still free"}
		require.NoError(t, store.Insert(context.Background(), &reply))
		require.Eventually(t, func() bool {
			b.mu.Lock()
			defer b.mu.Unlock()
			return len(b.pending) == 1
		}, time.Second, 5*time.Millisecond)
	}

	snapshot, err := b.Open(context.Background(), &l, "")
	require.NoError(t, err)
	assert.Equal(t, []int64{1, reply.ID}, threadIDs(snapshot))
	assert.Equal(t, []int64{1, reply.ID}, threadIDs(b.Messages()))
	assert.Zero(t, appended)

	// The buffered reply is not delivered a second time.
	assert.False(t, b.Merge(reply))
	assert.Len(t, b.Messages(), 2)

	// The cached thread was filled before the reply was merged and must not
	// be served without it.
	fresh, err := svc.LoadThread(context.Background(), "buyer", &l)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, reply.ID}, threadIDs(fresh))
}

func TestBridge_DuplicateNotificationsAppendOnce(t *testing.T) {
	l := listing(1, "owner")
	_, feed, svc := newBridgeFixture(l)

	b := NewBridge(svc, feed, "buyer")
	defer b.Close()
	_, err := b.Open(context.Background(), &l, "")
	require.NoError(t, err)

	msg := msgAt(10, 1, "owner", "buyer", time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, feed.Publish(context.Background(), msg))
	require.NoError(t, feed.Publish(context.Background(), msg))

	assert.Eventually(t, func() bool {
		return len(b.Messages()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.False(t, b.Merge(msg))
	assert.Len(t, b.Messages(), 1)
}

func TestBridge_IgnoresOtherThreads(t *testing.T) {
	l := listing(1, "owner")
	_, _, svc := newBridgeFixture(l)

	b := NewBridge(svc, nil, "owner")
	_, err := b.Open(context.Background(), &l, "renter-1")
	require.NoError(t, err)

	t0 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	assert.False(t, b.Merge(msgAt(1, 1, "renter-2", "owner", t0)))
	assert.False(t, b.Merge(msgAt(2, 2, "renter-1", "owner", t0)))
	assert.True(t, b.Merge(msgAt(3, 1, "renter-1", "owner", t0)))
	assert.Equal(t, []int64{3}, threadIDs(b.Messages()))
}

func TestBridge_OrderedMerge(t *testing.T) {
	l := listing(1, "owner")
	_, _, svc := newBridgeFixture(l)

	b := NewBridge(svc, nil, "buyer")
	_, err := b.Open(context.Background(), &l, "")
	require.NoError(t, err)

	t0 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	b.Merge(msgAt(3, 1, "buyer", "owner", t0.Add(2*time.Minute)))
	b.Merge(msgAt(1, 1, "buyer", "owner", t0))
	b.Merge(msgAt(5, 1, "owner", "buyer", t0.Add(time.Minute)))
	b.Merge(msgAt(4, 1, "owner", "buyer", t0.Add(time.Minute)))

	assert.Equal(t, []int64{1, 4, 5, 3}, threadIDs(b.Messages()))
}

func TestBridge_SwitchListing(t *testing.T) {
	a := listing(1, "owner-a")
	bl := listing(2, "owner-b")
	store, feed, svc := newBridgeFixture(a, bl)
	t0 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	store.seed(msgAt(1, 1, "buyer", "owner-a", t0))
	store.seed(msgAt(2, 2, "buyer", "owner-b", t0))

	b := NewBridge(svc, feed, "buyer")
	defer b.Close()

	_, err := b.Open(context.Background(), &a, "")
	require.NoError(t, err)
	snapshot, err := b.Open(context.Background(), &bl, "")
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, threadIDs(snapshot))

	assert.Equal(t, 0, feed.subscribers(1))
	assert.Equal(t, 1, feed.subscribers(2))

	id, ok := b.ListingID()
	assert.True(t, ok)
	assert.Equal(t, uint(2), id)

	// A late insert on the old listing never reaches the new thread.
	require.NoError(t, feed.Publish(context.Background(), msgAt(3, 1, "owner-a", "buyer", t0.Add(time.Minute))))
	_, err = svc.Send(context.Background(), "owner-b", &bl, "hi", WithCounterpart("buyer"))
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return len(b.Messages()) == 2
	}, time.Second, 5*time.Millisecond)
	for _, m := range b.Messages() {
		assert.Equal(t, uint(2), m.ProductID)
	}
}

func TestBridge_SubscribeFailureKeepsSnapshot(t *testing.T) {
	l := listing(1, "owner")
	store, feed, svc := newBridgeFixture(l)
	store.seed(msgAt(1, 1, "buyer", "owner", time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)))
	feed.failSub = true

	b := NewBridge(svc, feed, "buyer")
	snapshot, err := b.Open(context.Background(), &l, "")
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, threadIDs(snapshot))
	assert.Equal(t, 0, feed.subscribers(1))

	id, ok := b.ListingID()
	assert.True(t, ok)
	assert.Equal(t, uint(1), id)
}

func TestBridge_LoadFailure(t *testing.T) {
	l := listing(1, "owner")
	store, feed, svc := newBridgeFixture(l)
	store.failReads = true

	b := NewBridge(svc, feed, "buyer")
	_, err := b.Open(context.Background(), &l, "")
	assert.True(t, IsStoreError(err))
	assert.Equal(t, 0, feed.subscribers(1))

	_, ok := b.ListingID()
	assert.False(t, ok)
}

func TestBridge_Close(t *testing.T) {
	l := listing(1, "owner")
	_, feed, svc := newBridgeFixture(l)

	b := NewBridge(svc, feed, "buyer")
	_, err := b.Open(context.Background(), &l, "")
	require.NoError(t, err)

	b.Close()
	b.Close()

	assert.Equal(t, 0, feed.subscribers(1))
	assert.Empty(t, b.Messages())
	_, ok := b.ListingID()
	assert.False(t, ok)
	assert.False(t, b.Merge(msgAt(1, 1, "owner", "buyer", time.Now())))
}

func TestBridge_Unauthenticated(t *testing.T) {
	l := listing(1, "owner")
	store, feed, svc := newBridgeFixture(l)
	store.seed(msgAt(1, 1, "buyer", "owner", time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)))

	b := NewBridge(svc, feed, "")
	snapshot, err := b.Open(context.Background(), &l, "")
	require.NoError(t, err)
	assert.Empty(t, snapshot)
	assert.Equal(t, 0, feed.subscribers(1))
}

func TestBridge_EndToEnd(t *testing.T) {
	l1 := listing(1, "U2")
	_, feed, svc := newBridgeFixture(l1)
	ctx := context.Background()

	owner := NewBridge(svc, feed, "U2")
	defer owner.Close()
	_, err := owner.Open(ctx, &l1, "")
	require.NoError(t, err)

	buyer := NewBridge(svc, feed, "U1")
	defer buyer.Close()
	_, err = buyer.Open(ctx, &l1, "")
	require.NoError(t, err)

	sent, err := svc.Send(ctx, "U1", &l1, "Is this available?")
	require.NoError(t, err)

	for _, b := range []*Bridge{owner, buyer} {
		b := b
		assert.Eventually(t, func() bool {
			msgs := b.Messages()
			return len(msgs) == 1 && msgs[0].ID == sent.ID
		}, time.Second, 5*time.Millisecond)
	}
}
