package entity

import (
	"sort"
	"time"
)

// AuctionItem is a single lot attached to an event. IDs are locally unique
// integers taken from the creation timestamp, so insertion order is
// recoverable from the ID alone.
type AuctionItem struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	StartingBid float64   `json:"startingBid"`
	CurrentBid  float64   `json:"currentBid"`
	IsHidden    bool      `json:"isHidden"`
	IsRevealed  bool      `json:"isRevealed"`
	CreatedAt   time.Time `json:"createdAt"`
}

// SortItemsForDisplay orders items by current bid descending. The sort is
// stable: tied bids keep their insertion order. Returns a new slice, the
// input is left untouched.
func SortItemsForDisplay(items []AuctionItem) []AuctionItem {
	sorted := make([]AuctionItem, len(items))
	copy(sorted, items)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CurrentBid > sorted[j].CurrentBid
	})

	return sorted
}
