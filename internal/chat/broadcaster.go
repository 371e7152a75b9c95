package chat

import (
	"log/slog"
	"sync"
)

// Subscription is a live registration for one room's messages. Deliveries
// arrive on C, history replay first; the channel is closed on unsubscribe
// and on broadcaster shutdown.
type Subscription struct {
	room *roomFeed
	ch   chan Message

	// closed is guarded by room.mu so Unsubscribe and the broadcaster's
	// implicit drop cannot double-close ch.
	closed bool
}

// C returns the delivery channel.
func (s *Subscription) C() <-chan Message { return s.ch }

// Room returns the id of the subscribed room.
func (s *Subscription) Room() string { return s.room.id }

// roomFeed is the broadcaster's per-room state. Its mutex serializes
// publishes against subscribes for that room only, which both imposes a
// total per-room publish order and guarantees a new subscriber's history
// snapshot precedes every later live delivery.
type roomFeed struct {
	id string

	mu      sync.Mutex
	subs    map[*Subscription]struct{}
	history *historyBuffer
}

// Broadcaster fans published messages out to the current subscribers of a
// room and feeds each new subscriber the room's bounded history. Unrelated
// rooms never serialize against each other.
type Broadcaster struct {
	log          *slog.Logger
	historyLimit int
	sendBuffer   int

	mu    sync.RWMutex
	rooms map[string]*roomFeed
}

// NewBroadcaster creates a broadcaster whose rooms keep historyLimit
// messages of replay and whose subscribers buffer sendBuffer live messages
// beyond the replay.
func NewBroadcaster(log *slog.Logger, historyLimit, sendBuffer int) *Broadcaster {
	if historyLimit <= 0 {
		historyLimit = 10
	}
	if sendBuffer <= 0 {
		sendBuffer = 32
	}
	return &Broadcaster{
		log:          log,
		historyLimit: historyLimit,
		sendBuffer:   sendBuffer,
		rooms:        make(map[string]*roomFeed),
	}
}

func (b *Broadcaster) feed(roomID string) *roomFeed {
	b.mu.RLock()
	feed := b.rooms[roomID]
	b.mu.RUnlock()
	if feed != nil {
		return feed
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if feed = b.rooms[roomID]; feed == nil {
		feed = &roomFeed{
			id:      roomID,
			subs:    make(map[*Subscription]struct{}),
			history: newHistoryBuffer(b.historyLimit),
		}
		b.rooms[roomID] = feed
	}
	return feed
}

// Subscribe registers a delivery channel for roomID. The room's current
// history (oldest first) is queued on the channel before the subscription
// becomes visible to publishers, so the subscriber can never observe a
// live message ahead of its replay nor miss one published concurrently
// with this call.
func (b *Broadcaster) Subscribe(roomID string) *Subscription {
	feed := b.feed(roomID)

	feed.mu.Lock()
	defer feed.mu.Unlock()

	sub := &Subscription{
		room: feed,
		// Replay always fits: capacity covers a full history plus the
		// live buffer.
		ch: make(chan Message, b.historyLimit+b.sendBuffer),
	}
	for _, msg := range feed.history.snapshot() {
		sub.ch <- msg
	}
	feed.subs[sub] = struct{}{}
	return sub
}

// Publish appends text to roomID's history and delivers it to every
// current subscriber. A subscriber whose buffer is full is dropped and its
// channel closed; fan-out to the rest continues. Publishing to a room with
// no subscribers only records history.
func (b *Broadcaster) Publish(roomID, text string) Message {
	feed := b.feed(roomID)
	msg := NewMessage(roomID, text)

	feed.mu.Lock()
	defer feed.mu.Unlock()

	feed.history.append(msg)
	for sub := range feed.subs {
		select {
		case sub.ch <- msg:
		default:
			// Unreachable or hopelessly slow subscriber: treat as an
			// implicit unsubscribe rather than stalling the room.
			b.log.Warn("dropping slow subscriber", "room", roomID)
			feed.removeLocked(sub)
		}
	}
	return msg
}

// Unsubscribe removes sub from its room. It is idempotent; once it returns
// no further deliveries reach the channel, and the channel is closed.
func (b *Broadcaster) Unsubscribe(sub *Subscription) {
	feed := sub.room
	feed.mu.Lock()
	feed.removeLocked(sub)
	feed.mu.Unlock()
}

// History returns the current replay snapshot for roomID, oldest first.
// Rooms the broadcaster has never seen yield an empty snapshot.
func (b *Broadcaster) History(roomID string) []Message {
	b.mu.RLock()
	feed := b.rooms[roomID]
	b.mu.RUnlock()
	if feed == nil {
		return nil
	}
	feed.mu.Lock()
	defer feed.mu.Unlock()
	return feed.history.snapshot()
}

// Close drops every subscription in every room, closing their channels so
// draining sessions observe shutdown. History is retained.
func (b *Broadcaster) Close() {
	b.mu.RLock()
	feeds := make([]*roomFeed, 0, len(b.rooms))
	for _, feed := range b.rooms {
		feeds = append(feeds, feed)
	}
	b.mu.RUnlock()

	for _, feed := range feeds {
		feed.mu.Lock()
		for sub := range feed.subs {
			feed.removeLocked(sub)
		}
		feed.mu.Unlock()
	}
}

// removeLocked deletes sub and closes its channel exactly once. Caller
// holds feed.mu.
func (f *roomFeed) removeLocked(sub *Subscription) {
	if sub.closed {
		return
	}
	sub.closed = true
	delete(f.subs, sub)
	close(sub.ch)
}
