package server

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/MatthewHallCom/note-sx-server/internal/annotations"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Envelope is one broadcast event as it travels to a subscriber: a monotonic
// identifier, the wire event name, and the already-marshalled payload.
type Envelope struct {
	ID   string
	Name string
	Data []byte
}

// Broadcaster is the per-document subscriber registry. An entry is created
// on a document's first subscription and removed when its subscriber set
// empties; subscribers are removed when their context is cancelled. Sends
// never block, so one stalled viewer cannot hold up fan-out to the rest.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[string]map[int64]*subscriber
	nextID      int64
	bufferSize  int
	logger      *zap.Logger
}

type subscriber struct {
	id     int64
	stream chan Envelope
}

// NewBroadcaster constructs an empty registry.
func NewBroadcaster(logger *zap.Logger) *Broadcaster {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broadcaster{
		subscribers: make(map[string]map[int64]*subscriber),
		bufferSize:  16,
		logger:      logger,
	}
}

// Subscribe registers a stream for the document and returns it with a
// cleanup function. The stream is also unregistered when ctx is cancelled;
// cleanup is idempotent.
func (b *Broadcaster) Subscribe(ctx context.Context, documentID string) (<-chan Envelope, func()) {
	if documentID == "" {
		ch := make(chan Envelope)
		close(ch)
		return ch, func() {}
	}
	entry := &subscriber{
		id:     b.nextSequence(),
		stream: make(chan Envelope, b.bufferSize),
	}
	b.register(documentID, entry)
	cleanup := func() {
		b.unregister(documentID, entry.id)
	}
	go func() {
		<-ctx.Done()
		cleanup()
	}()
	return entry.stream, cleanup
}

// Broadcast fans the event out to every current subscriber of the document.
// Each envelope carries a UUIDv7 identifier, monotonic within the process. A
// subscriber whose buffer is full misses the event; delivery failures are
// isolated per subscriber and never abort the rest.
func (b *Broadcaster) Broadcast(documentID string, event annotations.Event) {
	if documentID == "" || event == nil {
		return
	}
	payload, err := json.Marshal(event.EventPayload())
	if err != nil {
		b.logger.Error("failed to marshal broadcast payload",
			zap.String("document_id", documentID),
			zap.String("event", event.EventName()),
			zap.Error(err))
		return
	}
	envelope := Envelope{ID: b.newEventID(), Name: event.EventName(), Data: payload}

	b.mu.RLock()
	entries := b.subscribers[documentID]
	if len(entries) == 0 {
		b.mu.RUnlock()
		return
	}
	snapshot := make([]*subscriber, 0, len(entries))
	for _, entry := range entries {
		snapshot = append(snapshot, entry)
	}
	b.mu.RUnlock()

	for _, entry := range snapshot {
		select {
		case entry.stream <- envelope:
		default:
			b.logger.Warn("dropping event for slow subscriber",
				zap.String("document_id", documentID),
				zap.String("event", envelope.Name),
				zap.Int64("subscriber_id", entry.id))
		}
	}
}

// SubscriberCount reports the current number of streams for the document.
func (b *Broadcaster) SubscriberCount(documentID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[documentID])
}

func (b *Broadcaster) newEventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Losing time ordering beats dropping the event.
		return uuid.NewString()
	}
	return id.String()
}

func (b *Broadcaster) nextSequence() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	return b.nextID
}

func (b *Broadcaster) register(documentID string, entry *subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscribers[documentID]; !ok {
		b.subscribers[documentID] = make(map[int64]*subscriber)
	}
	b.subscribers[documentID][entry.id] = entry
}

func (b *Broadcaster) unregister(documentID string, subscriberID int64) {
	b.mu.Lock()
	entries := b.subscribers[documentID]
	if entries != nil {
		delete(entries, subscriberID)
		if len(entries) == 0 {
			delete(b.subscribers, documentID)
		}
	}
	b.mu.Unlock()
}
