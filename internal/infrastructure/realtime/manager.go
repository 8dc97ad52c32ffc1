package realtime

import (
	"context"
	"sync"

	"bidscreen/internal/domain/entity"
	"bidscreen/internal/domain/value"
)

// Manager owns one Channel per followed event id and bridges cross-device
// notifications into the LocalBus, so every consumer reads one stream
// regardless of where a change originated.
type Manager struct {
	bus      Bus
	fetcher  Fetcher
	localBus *LocalBus

	mu       sync.Mutex
	channels map[value.EventID]*Channel
}

func NewManager(bus Bus, fetcher Fetcher, localBus *LocalBus) *Manager {
	return &Manager{
		bus:      bus,
		fetcher:  fetcher,
		localBus: localBus,
		channels: make(map[value.EventID]*Channel),
	}
}

// Follow opens (or reuses) the channel for an event id. A channel whose retry
// budget ran out is replaced by a fresh one, which is the documented way to
// resubscribe after a terminal failure.
func (m *Manager) Follow(ctx context.Context, id value.EventID) *Channel {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ch, ok := m.channels[id]; ok && ch.State() != StateFailed {
		return ch
	}

	ch := NewChannel(m.bus, m.fetcher, id)
	ch.Subscribe(func(snapshot entity.Snapshot) {
		m.localBus.Publish(id, snapshot)
	})
	ch.Open(ctx)
	m.channels[id] = ch

	return ch
}

// Unfollow tears down the channel for an event id, if any.
func (m *Manager) Unfollow(id value.EventID) {
	m.mu.Lock()
	ch, ok := m.channels[id]
	delete(m.channels, id)
	m.mu.Unlock()

	if ok {
		ch.Close()
	}
}

// Close tears down every channel.
func (m *Manager) Close() {
	m.mu.Lock()
	channels := make([]*Channel, 0, len(m.channels))
	for _, ch := range m.channels {
		channels = append(channels, ch)
	}
	m.channels = make(map[value.EventID]*Channel)
	m.mu.Unlock()

	for _, ch := range channels {
		ch.Close()
	}
}
