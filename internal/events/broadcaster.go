package events

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/igraphixwebpreview/RoadReportHub/internal/domain"
)

const subscriberBuffer = 64

type Broadcaster struct {
	subscribers map[uint64]chan domain.IncidentEvent
	nextID      atomic.Uint64
	mu          sync.RWMutex
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[uint64]chan domain.IncidentEvent),
	}
}

func (b *Broadcaster) Subscribe() (uint64, <-chan domain.IncidentEvent) {
	id := b.nextID.Add(1)
	ch := make(chan domain.IncidentEvent, subscriberBuffer)

	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()

	return id, ch
}

func (b *Broadcaster) Unsubscribe(id uint64) {
	b.mu.Lock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
}

func (b *Broadcaster) Publish(_ context.Context, ev domain.IncidentEvent) error {
	b.Broadcast(ev)
	return nil
}

func (b *Broadcaster) Broadcast(ev domain.IncidentEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- ev:
		default:
			// slow subscriber, drop
		}
	}
}

func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close closes all subscriber channels so their readers exit.
func (b *Broadcaster) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, id)
	}
	return nil
}
