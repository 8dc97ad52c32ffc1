package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"bidscreen/pkg/contextx"
	"bidscreen/pkg/logx"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

// Pinger checks reachability of the remote store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OnlineSink receives connectivity transitions.
type OnlineSink interface {
	SetOnline(ctx context.Context, online bool)
}

const (
	defaultProbeInterval = 15 * time.Second
	probeTimeout         = 5 * time.Second
)

// ConnectivityWatcher probes the remote store on an interval and feeds the
// result into the storage adapter, which handles the offline/online edges.
type ConnectivityWatcher struct {
	pinger   Pinger
	sink     OnlineSink
	interval time.Duration

	mu         sync.Mutex
	cancelFunc context.CancelFunc
	isRunning  bool
	wg         sync.WaitGroup
}

func NewConnectivityWatcher(pinger Pinger, sink OnlineSink) *ConnectivityWatcher {
	return &ConnectivityWatcher{
		pinger:   pinger,
		sink:     sink,
		interval: defaultProbeInterval,
	}
}

func (w *ConnectivityWatcher) WithInterval(interval time.Duration) *ConnectivityWatcher {
	if interval > 0 {
		w.interval = interval
	}
	return w
}

func (w *ConnectivityWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.isRunning {
		return errors.New("connectivity watcher is already running")
	}

	watchCtx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel
	w.isRunning = true

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer func() {
			w.mu.Lock()
			w.isRunning = false
			w.cancelFunc = nil
			w.mu.Unlock()
		}()

		if err := w.Run(watchCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger(watchCtx).Error("connectivity watcher stopped", logx.Error(err))
		}
	}()

	return nil
}

func (w *ConnectivityWatcher) Stop() {
	w.mu.Lock()

	if !w.isRunning {
		w.mu.Unlock()
		return
	}

	if w.cancelFunc != nil {
		w.cancelFunc()
	}
	w.mu.Unlock()

	w.wg.Wait()
}

func (w *ConnectivityWatcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.isRunning
}

// Run probes until the context ends. The first probe fires immediately so
// startup does not wait a full interval to learn the connection state.
func (w *ConnectivityWatcher) Run(ctx context.Context) error {
	logger(ctx).Info("connectivity watcher started")

	w.probe(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger(ctx).Info("connectivity watcher stopped")
			return ctx.Err()
		case <-ticker.C:
			w.probe(ctx)
		}
	}
}

func (w *ConnectivityWatcher) probe(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	err := w.pinger.Ping(probeCtx)
	w.sink.SetOnline(ctx, err == nil)
}
