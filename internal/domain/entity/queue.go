package entity

import (
	"time"

	"bidscreen/internal/domain/value"
)

type QueueAction string

const (
	QueueActionSave   QueueAction = "save"
	QueueActionDelete QueueAction = "delete"
)

// OfflineQueueEntry is a durable-intent buffer slot for a remote write
// attempted while disconnected. Replay is at-least-once: upserts and deletes
// are idempotent by primary key, so a duplicate replay is harmless.
type OfflineQueueEntry struct {
	Action   QueueAction    `json:"action"`
	EventID  value.EventID  `json:"eventId"`
	Record   *DisplayRecord `json:"record,omitempty"`
	QueuedAt time.Time      `json:"queuedAt"`
	Retries  int            `json:"retries"`
}
