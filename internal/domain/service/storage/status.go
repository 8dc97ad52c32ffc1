package storage

// SubscribeStatus registers for connection-status broadcasts. The returned
// release func is idempotent-safe to call once; the channel is buffered and
// never blocks the adapter.
func (a *Adapter) SubscribeStatus() (<-chan Status, func()) {
	a.mu.Lock()
	defer a.mu.Unlock()

	ch := make(chan Status, 4)
	id := a.nextSubID
	a.nextSubID++
	a.statusSubs[id] = ch

	return ch, func() {
		a.mu.Lock()
		defer a.mu.Unlock()

		if sub, ok := a.statusSubs[id]; ok {
			delete(a.statusSubs, id)
			close(sub)
		}
	}
}

// CurrentStatus returns the current status snapshot.
func (a *Adapter) CurrentStatus() Status {
	a.mu.Lock()
	defer a.mu.Unlock()

	return Status{
		Online:      a.online,
		Mode:        a.mode,
		QueueLength: len(a.queue),
	}
}

func (a *Adapter) broadcastStatus() {
	a.mu.Lock()
	status := Status{
		Online:      a.online,
		Mode:        a.mode,
		QueueLength: len(a.queue),
	}
	subs := make([]chan Status, 0, len(a.statusSubs))
	for _, ch := range a.statusSubs {
		subs = append(subs, ch)
	}
	a.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- status:
		default:
		}
	}
}
