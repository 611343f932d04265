package events

import (
	"context"
	"log/slog"
	"sync"
)

type subscription struct {
	ch   chan Event
	once sync.Once
}

// MemoryBroker delivers events within a single process. It is used when
// Redis is disabled.
type MemoryBroker struct {
	mu   sync.RWMutex
	subs map[string]map[*subscription]struct{}
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: make(map[string]map[*subscription]struct{})}
}

// Publish never blocks; a subscriber whose buffer is full misses the event.
func (b *MemoryBroker) Publish(ctx context.Context, gameID string, event Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subs[gameID] {
		select {
		case sub.ch <- event:
		default:
			slog.WarnContext(ctx, "Dropping event for slow subscriber", "game.id", gameID, "event.type", event.Type)
		}
	}
	return nil
}

func (b *MemoryBroker) Subscribe(ctx context.Context, gameID string) (<-chan Event, func(), error) {
	sub := &subscription{ch: make(chan Event, subscriberBuffer)}

	b.mu.Lock()
	if b.subs[gameID] == nil {
		b.subs[gameID] = make(map[*subscription]struct{})
	}
	b.subs[gameID][sub] = struct{}{}
	b.mu.Unlock()

	remove := func() {
		sub.once.Do(func() {
			b.mu.Lock()
			delete(b.subs[gameID], sub)
			if len(b.subs[gameID]) == 0 {
				delete(b.subs, gameID)
			}
			b.mu.Unlock()
			close(sub.ch)
		})
	}

	ctx, cancel := context.WithCancel(ctx)
	go func() {
		<-ctx.Done()
		remove()
	}()

	stop := func() {
		cancel()
		remove()
	}
	return sub.ch, stop, nil
}

// subscribers reports the number of open subscriptions for gameID.
func (b *MemoryBroker) subscribers(gameID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[gameID])
}
