package display_test

import (
	"context"
	"testing"

	"git.appkode.ru/pub/go/failure"
	"github.com/stretchr/testify/require"

	"bidscreen/internal/domain"
	"bidscreen/internal/domain/entity"
	"bidscreen/internal/domain/service/display"
	"bidscreen/internal/domain/service/storage"
	"bidscreen/internal/domain/value"
	"bidscreen/pkg/errcodes"
)

type memStorage struct {
	records map[value.EventID]entity.DisplayRecord
}

func newMemStorage() *memStorage {
	return &memStorage{records: make(map[value.EventID]entity.DisplayRecord)}
}

func (m *memStorage) SaveEvent(_ context.Context, id value.EventID, record entity.DisplayRecord) (storage.Result, error) {
	m.records[id] = record
	return storage.Result{Mode: storage.WriteLocal}, nil
}

func (m *memStorage) LoadEvent(_ context.Context, id value.EventID) (*entity.DisplayRecord, error) {
	record, ok := m.records[id]
	if !ok {
		return nil, nil
	}

	return &record, nil
}

func (m *memStorage) DeleteEvent(_ context.Context, id value.EventID) (storage.Result, error) {
	delete(m.records, id)
	return storage.Result{Mode: storage.WriteLocal}, nil
}

func (m *memStorage) ListEvents(context.Context) ([]entity.DisplayRecord, error) {
	out := make([]entity.DisplayRecord, 0, len(m.records))
	for _, record := range m.records {
		out = append(out, record)
	}

	return out, nil
}

type memActive struct {
	id value.EventID
}

func (m *memActive) SetActiveDisplay(id value.EventID) error { m.id = id; return nil }
func (m *memActive) ActiveDisplay() (value.EventID, error)   { return m.id, nil }

type staticTier struct {
	tier value.Tier
}

func (s staticTier) TierFor(context.Context, string) value.Tier { return s.tier }

type capturePublisher struct {
	snapshots []entity.Snapshot
}

func (c *capturePublisher) Publish(_ value.EventID, snapshot entity.Snapshot) {
	c.snapshots = append(c.snapshots, snapshot)
}

func newTestService(tier value.Tier) (*display.Service, *memStorage, *memActive, *capturePublisher) {
	store := newMemStorage()
	active := &memActive{}
	publisher := &capturePublisher{}
	service := display.NewService(store, active, staticTier{tier: tier}, publisher, "acct-1")

	return service, store, active, publisher
}

func requireCode(t *testing.T, err error, want failure.ErrorCode) {
	t.Helper()

	code, ok := domain.GetCode(err)
	require.True(t, ok, "expected a coded domain error, got %v", err)
	require.Equal(t, want, code)
}

func TestLaunchEvent(t *testing.T) {
	rq := require.New(t)

	service, store, active, publisher := newTestService(value.TierFree)

	record, err := service.LaunchEvent(context.Background(), display.EventParams{Name: "  Charity Gala ", Subtitle: "Spring 2026"})
	rq.NoError(err)
	rq.Equal("Charity Gala", record.Event.Name)
	rq.Equal("Spring 2026", record.Event.Subtitle)
	rq.Empty(record.Items)
	rq.False(record.UpdatedAt.IsZero())

	// persisted, marked active, announced locally
	rq.Contains(store.records, record.Event.ID)
	rq.Equal(record.Event.ID, active.id)
	rq.Len(publisher.snapshots, 1)

	_, err = value.ParseEventID(record.Event.ID.String())
	rq.NoError(err)
}

func TestLaunchEventEmptyName(t *testing.T) {
	service, _, _, _ := newTestService(value.TierFree)

	_, err := service.LaunchEvent(context.Background(), display.EventParams{Name: "   "})
	requireCode(t, err, errcodes.ValidationError)
}

func TestGalaEndToEnd(t *testing.T) {
	rq := require.New(t)

	service, _, _, _ := newTestService(value.TierFree)
	ctx := context.Background()

	record, err := service.LaunchEvent(ctx, display.EventParams{Name: "Gala"})
	rq.NoError(err)
	id := record.Event.ID

	itemA, err := service.AddItem(ctx, id, display.ItemParams{Name: "A", StartingBid: 10})
	rq.NoError(err)
	rq.InDelta(10.0, itemA.CurrentBid, 0.0001)

	itemB, err := service.AddItem(ctx, id, display.ItemParams{Name: "B", StartingBid: 50})
	rq.NoError(err)
	rq.Greater(itemB.ID, itemA.ID, "item ids are strictly increasing")

	snapshot, err := service.GetSnapshot(ctx, id)
	rq.NoError(err)
	rq.Len(snapshot.Items, 2)
	rq.Equal("B", snapshot.Items[0].Name)
	rq.Equal("A", snapshot.Items[1].Name)
	rq.InDelta(60.0, snapshot.TotalRaised, 0.0001)
}

func TestAddItemValidation(t *testing.T) {
	service, _, _, _ := newTestService(value.TierFree)
	ctx := context.Background()

	record, err := service.LaunchEvent(ctx, display.EventParams{Name: "Gala"})
	require.NoError(t, err)
	id := record.Event.ID

	_, err = service.AddItem(ctx, id, display.ItemParams{Name: "  "})
	requireCode(t, err, errcodes.InvalidItemName)

	_, err = service.AddItem(ctx, id, display.ItemParams{Name: "X", StartingBid: -5})
	requireCode(t, err, errcodes.InvalidBidAmount)

	_, err = service.AddItem(ctx, value.EventID("zzzzzzzz"), display.ItemParams{Name: "X"})
	requireCode(t, err, errcodes.EventNotFound)
}

func TestAddItemFreeLimit(t *testing.T) {
	rq := require.New(t)

	service, _, _, _ := newTestService(value.TierFree)
	ctx := context.Background()

	record, err := service.LaunchEvent(ctx, display.EventParams{Name: "Gala"})
	rq.NoError(err)
	id := record.Event.ID

	for i := 0; i < value.FreeItemLimit; i++ {
		_, err := service.AddItem(ctx, id, display.ItemParams{Name: "item", StartingBid: float64(i)})
		rq.NoError(err)
	}

	_, err = service.AddItem(ctx, id, display.ItemParams{Name: "one too many"})
	requireCode(t, err, errcodes.ItemLimitReached)
}

func TestAddItemProTierUnlimited(t *testing.T) {
	rq := require.New(t)

	service, _, _, _ := newTestService(value.TierPro)
	ctx := context.Background()

	record, err := service.LaunchEvent(ctx, display.EventParams{Name: "Gala"})
	rq.NoError(err)
	id := record.Event.ID

	for i := 0; i < value.FreeItemLimit+5; i++ {
		_, err := service.AddItem(ctx, id, display.ItemParams{Name: "item"})
		rq.NoError(err)
	}
}

func TestUpdateBid(t *testing.T) {
	rq := require.New(t)

	service, _, _, publisher := newTestService(value.TierFree)
	ctx := context.Background()

	record, err := service.LaunchEvent(ctx, display.EventParams{Name: "Gala"})
	rq.NoError(err)
	id := record.Event.ID

	item, err := service.AddItem(ctx, id, display.ItemParams{Name: "A", StartingBid: 10})
	rq.NoError(err)

	updated, err := service.UpdateBid(ctx, id, item.ID, 75)
	rq.NoError(err)
	rq.InDelta(75.0, updated.CurrentBid, 0.0001)
	rq.InDelta(10.0, updated.StartingBid, 0.0001)

	// launch + add + bid
	rq.Len(publisher.snapshots, 3)
	last := publisher.snapshots[len(publisher.snapshots)-1]
	rq.InDelta(75.0, last.TotalRaised, 0.0001)

	_, err = service.UpdateBid(ctx, id, 99999, 10)
	requireCode(t, err, errcodes.ItemNotFound)
}

func TestRevealAndHideItem(t *testing.T) {
	rq := require.New(t)

	service, _, _, _ := newTestService(value.TierFree)
	ctx := context.Background()

	record, err := service.LaunchEvent(ctx, display.EventParams{Name: "Gala"})
	rq.NoError(err)
	id := record.Event.ID

	item, err := service.AddItem(ctx, id, display.ItemParams{Name: "A"})
	rq.NoError(err)

	hidden, err := service.HideItem(ctx, id, item.ID, true)
	rq.NoError(err)
	rq.True(hidden.IsHidden)

	revealed, err := service.RevealItem(ctx, id, item.ID)
	rq.NoError(err)
	rq.True(revealed.IsRevealed)
	rq.False(revealed.IsHidden, "revealing makes the item visible")
}

func TestDeleteItem(t *testing.T) {
	rq := require.New(t)

	service, _, _, _ := newTestService(value.TierFree)
	ctx := context.Background()

	record, err := service.LaunchEvent(ctx, display.EventParams{Name: "Gala"})
	rq.NoError(err)
	id := record.Event.ID

	item, err := service.AddItem(ctx, id, display.ItemParams{Name: "A"})
	rq.NoError(err)

	rq.NoError(service.DeleteItem(ctx, id, item.ID))

	snapshot, err := service.GetSnapshot(ctx, id)
	rq.NoError(err)
	rq.Empty(snapshot.Items)

	requireCode(t, service.DeleteItem(ctx, id, item.ID), errcodes.ItemNotFound)
}

func TestUpdateSettingsGating(t *testing.T) {
	rq := require.New(t)

	ctx := context.Background()
	on := true
	branding := value.Branding{PrimaryColor: "#112233"}

	t.Run("free tier blocked", func(t *testing.T) {
		service, _, _, _ := newTestService(value.TierFree)

		record, err := service.LaunchEvent(ctx, display.EventParams{Name: "Gala"})
		rq.NoError(err)
		id := record.Event.ID

		_, err = service.UpdateSettings(ctx, id, display.Settings{HideWatermark: &on})
		requireCode(t, err, errcodes.Forbidden)

		_, err = service.UpdateSettings(ctx, id, display.Settings{Branding: &branding})
		requireCode(t, err, errcodes.Forbidden)

		_, err = service.UpdateSettings(ctx, id, display.Settings{SilentMode: &on})
		requireCode(t, err, errcodes.Forbidden)
	})

	t.Run("pro tier allowed", func(t *testing.T) {
		service, _, _, _ := newTestService(value.TierPro)

		record, err := service.LaunchEvent(ctx, display.EventParams{Name: "Gala"})
		rq.NoError(err)
		id := record.Event.ID

		event, err := service.UpdateSettings(ctx, id, display.Settings{
			HideWatermark:      &on,
			AllowPublicBidding: &on,
			Branding:           &branding,
		})
		rq.NoError(err)
		rq.True(event.HideWatermark)
		rq.True(event.AllowPublicBidding)
		rq.Equal("#112233", event.Branding.PrimaryColor)
	})

	t.Run("name change needs no capability", func(t *testing.T) {
		service, _, _, _ := newTestService(value.TierFree)

		record, err := service.LaunchEvent(ctx, display.EventParams{Name: "Gala"})
		rq.NoError(err)

		name := "Renamed"
		event, err := service.UpdateSettings(ctx, record.Event.ID, display.Settings{Name: &name})
		rq.NoError(err)
		rq.Equal("Renamed", event.Name)
	})
}

func TestDeleteEvent(t *testing.T) {
	rq := require.New(t)

	service, store, _, _ := newTestService(value.TierFree)
	ctx := context.Background()

	record, err := service.LaunchEvent(ctx, display.EventParams{Name: "Gala"})
	rq.NoError(err)

	rq.NoError(service.DeleteEvent(ctx, record.Event.ID))
	rq.NotContains(store.records, record.Event.ID)

	_, err = service.GetSnapshot(ctx, record.Event.ID)
	requireCode(t, err, errcodes.EventNotFound)
}
