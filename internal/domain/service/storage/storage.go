package storage

import (
	"context"

	"bidscreen/internal/domain/entity"
	"bidscreen/internal/domain/value"
	"bidscreen/pkg/contextx"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

// Mode says where display records live for this device.
type Mode int

const (
	ModeLocal Mode = iota
	ModeRemote
)

func (m Mode) String() string {
	if m == ModeRemote {
		return "remote"
	}
	return "local"
}

// WriteMode reports how a single save was actually carried out.
type WriteMode string

const (
	WriteLocal         WriteMode = "local"
	WriteRemote        WriteMode = "remote"
	WriteOfflineQueued WriteMode = "offline-queued"
	WriteLocalFallback WriteMode = "local-fallback"
)

// Result describes the outcome of one write operation.
type Result struct {
	Mode WriteMode
}

// Status is the connection-status broadcast payload. It is observable but
// non-authoritative: nothing about correctness depends on anyone reading it.
type Status struct {
	Online      bool
	Mode        Mode
	QueueLength int
}

// LocalStore is the per-device synchronous store.
type LocalStore interface {
	Save(id value.EventID, record entity.DisplayRecord) error
	Load(id value.EventID) (*entity.DisplayRecord, error)
	Delete(id value.EventID) error
	List() ([]entity.DisplayRecord, error)
}

// RemoteStore is the network-backed multi-tenant store.
type RemoteStore interface {
	Upsert(ctx context.Context, id value.EventID, record entity.DisplayRecord) error
	Get(ctx context.Context, id value.EventID) (*entity.DisplayRecord, error)
	Delete(ctx context.Context, id value.EventID) error
	ListByOwner(ctx context.Context, ownerID string) ([]entity.DisplayRecord, error)
}

// PremiumChecker answers whether the device's account qualifies for remote
// storage right now.
type PremiumChecker interface {
	IsPremium(ctx context.Context, accountID string) (bool, error)
}

// Notifier publishes a change notification for an event id after a confirmed
// remote write.
type Notifier interface {
	Publish(ctx context.Context, id value.EventID) error
}
