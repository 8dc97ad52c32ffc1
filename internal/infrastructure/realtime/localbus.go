package realtime

import (
	"sync"

	"bidscreen/internal/domain/entity"
	"bidscreen/internal/domain/value"
)

// LocalBus is the same-device fast path: a control surface and a display
// surface in one process group exchange reconciled snapshots directly,
// skipping the network round trip. It is an optimization only; the
// network-backed Channel stays authoritative for cross-device delivery.
type LocalBus struct {
	mu     sync.Mutex
	subs   map[value.EventID]map[int]chan entity.Snapshot
	nextID int
}

func NewLocalBus() *LocalBus {
	return &LocalBus{
		subs: make(map[value.EventID]map[int]chan entity.Snapshot),
	}
}

const localBusBuffer = 8

// Subscribe returns a snapshot stream for one event id plus its release
// handle. Release is idempotent and closes the stream.
func (b *LocalBus) Subscribe(id value.EventID) (<-chan entity.Snapshot, *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan entity.Snapshot, localBusBuffer)

	if b.subs[id] == nil {
		b.subs[id] = make(map[int]chan entity.Snapshot)
	}

	subID := b.nextID
	b.nextID++
	b.subs[id][subID] = ch

	return ch, &Subscription{release: func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		if sub, ok := b.subs[id][subID]; ok {
			delete(b.subs[id], subID)
			close(sub)
		}
	}}
}

// Publish fans a snapshot out to every local subscriber of the event id.
// Delivery is non-blocking: a subscriber that stopped draining loses updates
// instead of stalling the publisher.
func (b *LocalBus) Publish(id value.EventID, snapshot entity.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs[id] {
		select {
		case ch <- snapshot:
		default:
		}
	}
}
