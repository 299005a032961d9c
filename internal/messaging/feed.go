// internal/messaging/feed.go
// The realtime feed carries row-level insert events for messages. Redis
// pub/sub backs it in deployment (one channel per listing, so subscribers
// only see traffic for the listing they have open); an in-process variant
// serves development without Redis and the tests.

package messaging

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/go-redis/redis/v8"
)

// Feed publishes message-insert events and hands out filtered subscriptions.
// Subscribe returns a channel of events for one listing plus a cancel
// function that releases the subscription; after cancel the channel is
// closed and no further events are delivered.
type Feed interface {
	Publish(ctx context.Context, message *Message) error
	Subscribe(ctx context.Context, listingID string) (<-chan *Message, func(), error)
}

const feedChannelPrefix = "messages:inserted:"

type redisFeed struct {
	client *redis.Client
}

// NewRedisFeed creates a feed backed by Redis pub/sub
func NewRedisFeed(client *redis.Client) Feed {
	return &redisFeed{client: client}
}

func (f *redisFeed) Publish(ctx context.Context, message *Message) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return f.client.Publish(ctx, feedChannelPrefix+message.ListingID, data).Err()
}

func (f *redisFeed) Subscribe(ctx context.Context, listingID string) (<-chan *Message, func(), error) {
	pubsub := f.client.Subscribe(ctx, feedChannelPrefix+listingID)

	// Force the subscription to be established before we return, so a
	// caller never misses events published right after Subscribe.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, nil, err
	}

	out := make(chan *Message, 64)
	go func() {
		defer close(out)
		for raw := range pubsub.Channel() {
			var msg Message
			if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
				log.Printf("feed: dropping malformed event on %s: %v", raw.Channel, err)
				continue
			}
			select {
			case out <- &msg:
			default:
				// Slow consumer; realtime delivery is best effort
				// and a missed event surfaces on the next reload.
				feedEventsDropped.Inc()
			}
		}
	}()

	cancel := func() {
		pubsub.Close()
	}
	return out, cancel, nil
}

// memoryFeed is an in-process Feed for development and tests.
type memoryFeed struct {
	mu   sync.Mutex
	subs map[string]map[chan *Message]struct{} // listingID -> subscribers
}

// NewMemoryFeed creates an in-process feed
func NewMemoryFeed() Feed {
	return &memoryFeed{
		subs: make(map[string]map[chan *Message]struct{}),
	}
}

func (f *memoryFeed) Publish(ctx context.Context, message *Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for ch := range f.subs[message.ListingID] {
		select {
		case ch <- message:
		default:
			feedEventsDropped.Inc()
		}
	}
	return nil
}

func (f *memoryFeed) Subscribe(ctx context.Context, listingID string) (<-chan *Message, func(), error) {
	ch := make(chan *Message, 64)

	f.mu.Lock()
	if f.subs[listingID] == nil {
		f.subs[listingID] = make(map[chan *Message]struct{})
	}
	f.subs[listingID][ch] = struct{}{}
	f.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs[listingID], ch)
			if len(f.subs[listingID]) == 0 {
				delete(f.subs, listingID)
			}
			f.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel, nil
}
