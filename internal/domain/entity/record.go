package entity

import (
	"time"
)

// DisplayRecord is the persisted form of an event plus its items, keyed by
// the event id. The same shape round-trips through the local blob store and
// the remote relational rows.
type DisplayRecord struct {
	Event     AuctionEvent  `json:"event"`
	Items     []AuctionItem `json:"items"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// Snapshot is the display-ready view: items bid-sorted, totals derived. Every
// renderer consumes exactly this; nothing may render an unsorted record.
type Snapshot struct {
	Event       AuctionEvent  `json:"event"`
	Items       []AuctionItem `json:"items"`
	TotalRaised float64       `json:"totalRaised"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// ToSnapshot derives the display-ready snapshot from a record.
func (r DisplayRecord) ToSnapshot() Snapshot {
	items := SortItemsForDisplay(r.Items)

	var total float64
	for _, item := range items {
		total += item.CurrentBid
	}

	return Snapshot{
		Event:       r.Event,
		Items:       items,
		TotalRaised: total,
		UpdatedAt:   r.UpdatedAt,
	}
}
