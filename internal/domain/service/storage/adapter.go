package storage

import (
	"context"
	"log/slog"
	"sync"

	"bidscreen/internal/domain"
	"bidscreen/internal/domain/entity"
	"bidscreen/internal/domain/value"
	"bidscreen/pkg/errcodes"
	"bidscreen/pkg/logx"
)

// Adapter decides where display records live and keeps both stores
// consistent. Local is a cache, Remote is the source of truth when reachable,
// never the reverse. Writes made while disconnected survive in the offline
// queue until a reconnect drains it.
type Adapter struct {
	local   LocalStore
	remote  RemoteStore
	premium PremiumChecker
	notify  Notifier

	accountID      string
	premiumEnabled bool

	mu          sync.Mutex
	mode        Mode
	initialized bool
	online      bool
	queue       []entity.OfflineQueueEntry

	statusSubs map[int]chan Status
	nextSubID  int

	metrics *Metrics
}

func NewAdapter(
	local LocalStore,
	remote RemoteStore,
	premium PremiumChecker,
	notify Notifier,
	accountID string,
	premiumEnabled bool,
) *Adapter {
	return &Adapter{
		local:          local,
		remote:         remote,
		premium:        premium,
		notify:         notify,
		accountID:      accountID,
		premiumEnabled: premiumEnabled,
		mode:           ModeLocal,
		online:         true,
		statusSubs:     make(map[int]chan Status),
		metrics:        newMetrics(),
	}
}

// Initialize computes the storage mode once per adapter lifetime. Premium
// checks that fail degrade to Local so startup never depends on the network.
func (a *Adapter) Initialize(ctx context.Context) (Mode, error) {
	a.mu.Lock()
	if a.initialized {
		mode := a.mode
		a.mu.Unlock()
		return mode, nil
	}
	a.mu.Unlock()

	mode := ModeLocal

	if a.premiumEnabled && a.accountID != "" {
		isPremium, err := a.premium.IsPremium(ctx, a.accountID)
		if err != nil {
			logger(ctx).Error("premium check failed, staying local", logx.Error(err))
		} else if isPremium {
			mode = ModeRemote
		}
	}

	a.mu.Lock()
	// A concurrent Initialize may have won; first one sticks.
	if !a.initialized {
		a.mode = mode
		a.initialized = true
	}
	mode = a.mode
	a.mu.Unlock()

	logger(ctx).Info("storage adapter initialized", slog.String("mode", mode.String()))
	a.broadcastStatus()

	return mode, nil
}

// Reinitialize drops the memoized mode and recomputes it, e.g. after sign-in
// or a checkout completing mid-session.
func (a *Adapter) Reinitialize(ctx context.Context) (Mode, error) {
	a.mu.Lock()
	a.initialized = false
	a.mu.Unlock()

	return a.Initialize(ctx)
}

// Mode returns the current storage mode.
func (a *Adapter) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

// SaveEvent persists a record. In Remote mode the write is never silently
// lost: a reachable remote gets the upsert, an unreachable one either queues
// the write (known offline) or falls back to Local (failed attempt), and the
// local cache always ends up holding the latest intended state.
func (a *Adapter) SaveEvent(ctx context.Context, id value.EventID, record entity.DisplayRecord) (Result, error) {
	if _, err := a.Initialize(ctx); err != nil {
		return Result{}, err
	}

	if a.Mode() == ModeLocal {
		if err := a.local.Save(id, record); err != nil {
			return Result{}, err
		}
		a.metrics.saves.WithLabelValues(string(WriteLocal)).Inc()
		return Result{Mode: WriteLocal}, nil
	}

	if !a.Online() {
		a.enqueue(ctx, entity.OfflineQueueEntry{
			Action:  entity.QueueActionSave,
			EventID: id,
			Record:  &record,
		})

		if err := a.local.Save(id, record); err != nil {
			return Result{}, err
		}

		a.metrics.saves.WithLabelValues(string(WriteOfflineQueued)).Inc()
		return Result{Mode: WriteOfflineQueued}, nil
	}

	if err := a.remote.Upsert(ctx, id, record); err != nil {
		logger(ctx).Error(
			"remote save failed, falling back to local",
			slog.String("event-id", id.String()),
			logx.Error(err),
		)

		if localErr := a.local.Save(id, record); localErr != nil {
			return Result{}, localErr
		}

		a.metrics.fallbacks.Inc()
		a.metrics.saves.WithLabelValues(string(WriteLocalFallback)).Inc()
		return Result{Mode: WriteLocalFallback}, nil
	}

	// Mirror into the local cache. Best effort: the remote write is already
	// confirmed, a failed backup must not fail the save.
	if err := a.local.Save(id, record); err != nil {
		logger(ctx).Error("local backup write failed", slog.String("event-id", id.String()), logx.Error(err))
	}

	a.publish(ctx, id)
	a.metrics.saves.WithLabelValues(string(WriteRemote)).Inc()

	return Result{Mode: WriteRemote}, nil
}

// LoadEvent returns the record for an event id, nil when no data exists yet.
// Remote reads refresh the local cache; remote failures fall back to it.
func (a *Adapter) LoadEvent(ctx context.Context, id value.EventID) (*entity.DisplayRecord, error) {
	if _, err := a.Initialize(ctx); err != nil {
		return nil, err
	}

	if a.Mode() == ModeLocal || !a.Online() {
		return a.local.Load(id)
	}

	record, err := a.remote.Get(ctx, id)
	if err != nil {
		logger(ctx).Error(
			"remote load failed, falling back to local",
			slog.String("event-id", id.String()),
			logx.Error(err),
		)
		a.metrics.fallbacks.Inc()
		return a.local.Load(id)
	}

	if record == nil {
		return nil, nil
	}

	if err := a.local.Save(id, *record); err != nil {
		logger(ctx).Error("local cache refresh failed", slog.String("event-id", id.String()), logx.Error(err))
	}

	return record, nil
}

// DeleteEvent removes a record from wherever it lives. Remote deletes are
// queued while offline, mirrored locally either way.
func (a *Adapter) DeleteEvent(ctx context.Context, id value.EventID) (Result, error) {
	if _, err := a.Initialize(ctx); err != nil {
		return Result{}, err
	}

	if a.Mode() == ModeLocal {
		if err := a.local.Delete(id); err != nil {
			return Result{}, err
		}
		return Result{Mode: WriteLocal}, nil
	}

	if !a.Online() {
		a.enqueue(ctx, entity.OfflineQueueEntry{
			Action:  entity.QueueActionDelete,
			EventID: id,
		})

		if err := a.local.Delete(id); err != nil {
			return Result{}, err
		}

		return Result{Mode: WriteOfflineQueued}, nil
	}

	if err := a.remote.Delete(ctx, id); err != nil {
		return Result{}, domain.WrapError(err, errcodes.InternalServerError, "remote delete failed")
	}

	if err := a.local.Delete(id); err != nil {
		logger(ctx).Error("local delete failed", slog.String("event-id", id.String()), logx.Error(err))
	}

	a.publish(ctx, id)

	return Result{Mode: WriteRemote}, nil
}

// ListEvents returns every record visible to this device.
func (a *Adapter) ListEvents(ctx context.Context) ([]entity.DisplayRecord, error) {
	if _, err := a.Initialize(ctx); err != nil {
		return nil, err
	}

	if a.Mode() == ModeLocal || !a.Online() {
		return a.local.List()
	}

	records, err := a.remote.ListByOwner(ctx, a.accountID)
	if err != nil {
		logger(ctx).Error("remote list failed, falling back to local", logx.Error(err))
		a.metrics.fallbacks.Inc()
		return a.local.List()
	}

	return records, nil
}

func (a *Adapter) publish(ctx context.Context, id value.EventID) {
	if a.notify == nil {
		return
	}

	if err := a.notify.Publish(ctx, id); err != nil {
		logger(ctx).Error("change notification failed", slog.String("event-id", id.String()), logx.Error(err))
	}
}
