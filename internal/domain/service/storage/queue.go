package storage

import (
	"context"
	"log/slog"
	"time"

	"bidscreen/internal/domain"
	"bidscreen/internal/domain/entity"
	"bidscreen/pkg/errcodes"
	"bidscreen/pkg/logx"
)

// maxEntryRetries bounds how often one queue entry may fail replay before it
// is dropped. Without a cap a poison entry would loop through every drain
// forever.
const maxEntryRetries = 5

// Online reports the last known connectivity state.
func (a *Adapter) Online() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.online
}

// SetOnline records a connectivity change. The offline-to-online edge drains
// the queue; every change is broadcast to status subscribers.
func (a *Adapter) SetOnline(ctx context.Context, online bool) {
	a.mu.Lock()
	wasOnline := a.online
	a.online = online
	a.mu.Unlock()

	if wasOnline == online {
		return
	}

	if online {
		logger(ctx).Info("connection restored, syncing offline queue")
	} else {
		logger(ctx).Warn("connection lost, entering offline mode")
	}

	a.broadcastStatus()

	if online && !wasOnline {
		if err := a.drainQueue(ctx); err != nil {
			logger(ctx).Error("offline queue drain failed", logx.Error(err))
		}
	}
}

// ForceSyncOfflineQueue replays the queue immediately.
func (a *Adapter) ForceSyncOfflineQueue(ctx context.Context) error {
	if !a.Online() {
		return domain.NewError(errcodes.TimeoutExceeded, "cannot sync while offline")
	}

	return a.drainQueue(ctx)
}

// QueueStatus returns the connection state and a copy of the pending
// entries.
func (a *Adapter) QueueStatus() (bool, []entity.OfflineQueueEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()

	entries := make([]entity.OfflineQueueEntry, len(a.queue))
	copy(entries, a.queue)

	return a.online, entries
}

// ClearOfflineQueue discards all pending entries.
func (a *Adapter) ClearOfflineQueue() {
	a.mu.Lock()
	a.queue = a.queue[:0]
	a.mu.Unlock()

	a.metrics.queueDepth.Set(0)
	a.broadcastStatus()
}

func (a *Adapter) enqueue(ctx context.Context, entry entity.OfflineQueueEntry) {
	entry.QueuedAt = time.Now()

	a.mu.Lock()
	a.queue = append(a.queue, entry)
	depth := len(a.queue)
	a.mu.Unlock()

	logger(ctx).Info(
		"write queued for later sync",
		slog.String("action", string(entry.Action)),
		slog.String("event-id", entry.EventID.String()),
		slog.Int("queue-depth", depth),
	)

	a.metrics.queueDepth.Set(float64(depth))
	a.broadcastStatus()
}

// drainQueue replays pending entries in FIFO order, one at a time. A failed
// entry is re-queued behind the rest (after bumping its retry count), so one
// persistently failing entry cannot block the others. At-least-once: both
// replayed actions are idempotent against the remote store.
func (a *Adapter) drainQueue(ctx context.Context) error {
	a.mu.Lock()
	if len(a.queue) == 0 {
		a.mu.Unlock()
		return nil
	}

	pending := a.queue
	a.queue = nil
	a.mu.Unlock()

	logger(ctx).Info("syncing offline changes", slog.Int("count", len(pending)))
	a.metrics.drains.Inc()

	var requeued []entity.OfflineQueueEntry

	for _, entry := range pending {
		if err := a.replay(ctx, entry); err != nil {
			entry.Retries++

			if entry.Retries >= maxEntryRetries {
				logger(ctx).Error(
					"dropping queue entry after repeated failures",
					slog.String("action", string(entry.Action)),
					slog.String("event-id", entry.EventID.String()),
					slog.Int("retries", entry.Retries),
					logx.Error(err),
				)
				continue
			}

			logger(ctx).Error(
				"failed to sync offline change, re-queued",
				slog.String("action", string(entry.Action)),
				slog.String("event-id", entry.EventID.String()),
				logx.Error(err),
			)
			requeued = append(requeued, entry)
		}
	}

	a.mu.Lock()
	// Entries queued during the drain stay behind the re-queued failures to
	// preserve relative order of the original entries.
	a.queue = append(requeued, a.queue...) //nolint:makezero
	depth := len(a.queue)
	a.mu.Unlock()

	a.metrics.queueDepth.Set(float64(depth))
	a.broadcastStatus()

	if depth == 0 {
		logger(ctx).Info("all offline changes synced")
	} else {
		logger(ctx).Warn("some offline changes still pending", slog.Int("count", depth))
	}

	return nil
}

func (a *Adapter) replay(ctx context.Context, entry entity.OfflineQueueEntry) error {
	switch entry.Action {
	case entity.QueueActionSave:
		if entry.Record == nil {
			return domain.NewError(errcodes.InternalServerError, "save entry without record")
		}

		if err := a.remote.Upsert(ctx, entry.EventID, *entry.Record); err != nil {
			return err
		}

	case entity.QueueActionDelete:
		if err := a.remote.Delete(ctx, entry.EventID); err != nil {
			return err
		}
	}

	a.publish(ctx, entry.EventID)

	return nil
}
