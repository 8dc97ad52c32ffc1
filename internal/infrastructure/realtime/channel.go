package realtime

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"bidscreen/internal/domain/entity"
	"bidscreen/internal/domain/value"
	"bidscreen/pkg/logx"
)

// ConnectionState is the channel lifecycle state.
type ConnectionState int

const (
	StateConnecting ConnectionState = iota
	StateConnected
	StateDisconnected
	StateFailed
)

func (s ConnectionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	case StateFailed:
		return "failed"
	}

	return "unknown"
}

const (
	reconnectBaseDelay   = time.Second
	reconnectMaxDelay    = 10 * time.Second
	maxReconnectAttempts = 5
)

// Listener receives the display-ready snapshot on every reconciled change.
type Listener func(entity.Snapshot)

// Fetcher loads the canonical record for an event id.
type Fetcher interface {
	FetchRecord(ctx context.Context, id value.EventID) (*entity.DisplayRecord, error)
}

// Channel follows change notifications for one event id. It never trusts a
// notification payload: every notification triggers a re-fetch of the full
// record, and listeners always see the reconciled, bid-sorted snapshot.
type Channel struct {
	eventID value.EventID
	bus     Bus
	fetcher Fetcher

	baseDelay time.Duration
	maxDelay  time.Duration

	mu                sync.Mutex
	state             ConnectionState
	listeners         map[int]Listener
	nextListenerID    int
	reconnectAttempts int
	cancel            context.CancelFunc
	done              chan struct{}
	closed            bool
}

func NewChannel(bus Bus, fetcher Fetcher, eventID value.EventID) *Channel {
	return &Channel{
		eventID:   eventID,
		bus:       bus,
		fetcher:   fetcher,
		baseDelay: reconnectBaseDelay,
		maxDelay:  reconnectMaxDelay,
		state:     StateConnecting,
		listeners: make(map[int]Listener),
	}
}

// Open registers interest in change notifications and starts the receive
// loop. Open on an already-open channel is a no-op.
func (c *Channel) Open(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.done != nil || c.closed {
		return
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.cancel = cancel
	c.done = make(chan struct{})

	go c.run(runCtx)
}

// Subscription is the handle a listener must hold to release itself. Release
// is idempotent.
type Subscription struct {
	release func()
	once    sync.Once
}

func (s *Subscription) Unsubscribe() {
	s.once.Do(s.release)
}

// Subscribe registers a listener. Listeners are invoked in registration
// order; one listener's panic never stops delivery to the rest.
func (c *Channel) Subscribe(listener Listener) *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextListenerID
	c.nextListenerID++
	c.listeners[id] = listener

	return &Subscription{release: func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}}
}

// Close tears the channel down. Safe to call multiple times. In-flight
// refreshes complete against an empty listener set.
func (c *Channel) Close() {
	c.mu.Lock()

	if c.closed {
		c.mu.Unlock()
		return
	}

	c.closed = true
	c.listeners = make(map[int]Listener)
	cancel := c.cancel
	done := c.done
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (c *Channel) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateConnected
}

func (c *Channel) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Channel) EventID() value.EventID {
	return c.eventID
}

// Refresh re-fetches the canonical record, fans the snapshot out to every
// listener and returns it.
func (c *Channel) Refresh(ctx context.Context) (entity.Snapshot, error) {
	record, err := c.fetcher.FetchRecord(ctx, c.eventID)
	if err != nil {
		return entity.Snapshot{}, err
	}
	if record == nil {
		return entity.Snapshot{}, nil
	}

	snapshot := record.ToSnapshot()
	c.fanOut(ctx, snapshot)

	return snapshot, nil
}

func (c *Channel) run(ctx context.Context) {
	defer close(c.done)

	for {
		sub, err := c.bus.Subscribe(ctx, c.eventID)
		if err != nil {
			if ctx.Err() != nil {
				c.setState(StateDisconnected)
				return
			}

			if !c.backoff(ctx) {
				return
			}
			continue
		}

		c.setState(StateConnected)
		c.resetReconnectAttempts()

		err = c.receiveLoop(ctx, sub)
		_ = sub.Close()

		if ctx.Err() != nil {
			c.setState(StateDisconnected)
			return
		}

		logger(ctx).Warn(
			"realtime channel closed",
			slog.String("event-id", c.eventID.String()),
			logx.Error(err),
		)
		c.setState(StateDisconnected)

		if !c.backoff(ctx) {
			return
		}
	}
}

func (c *Channel) receiveLoop(ctx context.Context, sub BusSubscription) error {
	for {
		if err := sub.Receive(ctx); err != nil {
			return err
		}

		if _, err := c.Refresh(ctx); err != nil {
			logger(ctx).Error(
				"failed to refresh after notification",
				slog.String("event-id", c.eventID.String()),
				logx.Error(err),
			)
		}
	}
}

// backoff waits before the next reconnect attempt: exponential from 1s,
// doubling, capped at 10s, abandoned after 5 attempts. Returns false when the
// budget is exhausted (terminal failed state) or the context ended.
func (c *Channel) backoff(ctx context.Context) bool {
	c.mu.Lock()
	c.reconnectAttempts++
	attempts := c.reconnectAttempts
	c.mu.Unlock()

	if attempts > maxReconnectAttempts {
		logger(ctx).Error(
			"max reconnection attempts reached",
			slog.String("event-id", c.eventID.String()),
		)
		c.setState(StateFailed)
		return false
	}

	delay := c.baseDelay << (attempts - 1)
	if delay > c.maxDelay {
		delay = c.maxDelay
	}

	c.setState(StateConnecting)

	select {
	case <-time.After(delay):
		return true
	case <-ctx.Done():
		c.setState(StateDisconnected)
		return false
	}
}

func (c *Channel) fanOut(ctx context.Context, snapshot entity.Snapshot) {
	c.mu.Lock()
	ordered := make([]int, 0, len(c.listeners))
	for id := range c.listeners {
		ordered = append(ordered, id)
	}
	// Listener ids are assigned in registration order.
	sort.Ints(ordered)
	listeners := make([]Listener, 0, len(ordered))
	for _, id := range ordered {
		listeners = append(listeners, c.listeners[id])
	}
	c.mu.Unlock()

	for _, listener := range listeners {
		c.invoke(ctx, listener, snapshot)
	}
}

func (c *Channel) invoke(ctx context.Context, listener Listener, snapshot entity.Snapshot) {
	defer func() {
		if rec := recover(); rec != nil {
			logger(ctx).Error(
				"listener panicked",
				slog.String("event-id", c.eventID.String()),
				slog.Any(logx.FieldError, rec),
			)
		}
	}()

	listener(snapshot)
}

func (c *Channel) setState(state ConnectionState) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
}

func (c *Channel) resetReconnectAttempts() {
	c.mu.Lock()
	c.reconnectAttempts = 0
	c.mu.Unlock()
}
