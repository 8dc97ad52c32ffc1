package entity_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"bidscreen/internal/domain/entity"
	"bidscreen/internal/domain/value"
)

func TestSortItemsForDisplay(t *testing.T) {
	rq := require.New(t)

	items := []entity.AuctionItem{
		{ID: 1, Name: "A", CurrentBid: 10},
		{ID: 2, Name: "B", CurrentBid: 50},
		{ID: 3, Name: "C", CurrentBid: 25},
	}

	sorted := entity.SortItemsForDisplay(items)

	rq.Equal([]string{"B", "C", "A"}, names(sorted))

	// the input slice keeps its original order
	rq.Equal([]string{"A", "B", "C"}, names(items))
}

func TestSortItemsForDisplayStableTies(t *testing.T) {
	rq := require.New(t)

	items := []entity.AuctionItem{
		{ID: 1, Name: "first", CurrentBid: 20},
		{ID: 2, Name: "second", CurrentBid: 20},
		{ID: 3, Name: "third", CurrentBid: 20},
	}

	sorted := entity.SortItemsForDisplay(items)

	rq.Equal([]string{"first", "second", "third"}, names(sorted))
}

func TestToSnapshot(t *testing.T) {
	rq := require.New(t)

	now := time.Now()

	record := entity.DisplayRecord{
		Event: entity.AuctionEvent{
			ID:   value.EventID("abc12345"),
			Name: "Charity Gala",
		},
		Items: []entity.AuctionItem{
			{ID: 1, Name: "A", CurrentBid: 10},
			{ID: 2, Name: "B", CurrentBid: 50},
		},
		UpdatedAt: now,
	}

	snapshot := record.ToSnapshot()

	rq.Equal([]string{"B", "A"}, names(snapshot.Items))
	rq.InDelta(60.0, snapshot.TotalRaised, 0.0001)
	rq.Equal(now, snapshot.UpdatedAt)
	rq.Equal("Charity Gala", snapshot.Event.Name)
}

func TestToSnapshotEmpty(t *testing.T) {
	rq := require.New(t)

	snapshot := entity.DisplayRecord{}.ToSnapshot()

	rq.Empty(snapshot.Items)
	rq.Zero(snapshot.TotalRaised)
}

func names(items []entity.AuctionItem) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Name)
	}

	return out
}
