package display

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"bidscreen/internal/domain"
	"bidscreen/internal/domain/entity"
	"bidscreen/internal/domain/service/storage"
	"bidscreen/internal/domain/value"
	"bidscreen/pkg/errcodes"
)

// Storage is the display view of the storage adapter.
type Storage interface {
	SaveEvent(ctx context.Context, id value.EventID, record entity.DisplayRecord) (storage.Result, error)
	LoadEvent(ctx context.Context, id value.EventID) (*entity.DisplayRecord, error)
	DeleteEvent(ctx context.Context, id value.EventID) (storage.Result, error)
	ListEvents(ctx context.Context) ([]entity.DisplayRecord, error)
}

// ActiveDisplayStore remembers which event the device last launched.
type ActiveDisplayStore interface {
	SetActiveDisplay(id value.EventID) error
	ActiveDisplay() (value.EventID, error)
}

// TierResolver reports the effective tier for capability checks.
type TierResolver interface {
	TierFor(ctx context.Context, accountID string) value.Tier
}

// SnapshotPublisher receives the reconciled snapshot after every successful
// mutation, feeding same-device displays without a network round trip.
type SnapshotPublisher interface {
	Publish(id value.EventID, snapshot entity.Snapshot)
}

// Service owns every mutation of an event's display record. All writes go
// through the storage adapter; after each successful write the fresh snapshot
// is published locally.
type Service struct {
	storage   Storage
	active    ActiveDisplayStore
	tiers     TierResolver
	publisher SnapshotPublisher
	accountID string

	// lastItemID makes timestamp-derived item ids strictly increasing even
	// when two items are added within the same millisecond.
	mu         sync.Mutex
	lastItemID int64

	now func() time.Time
}

func NewService(
	store Storage,
	active ActiveDisplayStore,
	tiers TierResolver,
	publisher SnapshotPublisher,
	accountID string,
) *Service {
	return &Service{
		storage:   store,
		active:    active,
		tiers:     tiers,
		publisher: publisher,
		accountID: accountID,
		now:       time.Now,
	}
}

// EventParams carries the launch inputs.
type EventParams struct {
	Name     string
	Subtitle string
}

// ItemParams carries the add-item inputs.
type ItemParams struct {
	Name        string
	Description string
	StartingBid float64
}

// Settings carries a partial settings update; nil fields are left unchanged.
type Settings struct {
	Name               *string
	Subtitle           *string
	Branding           *value.Branding
	HideWatermark      *bool
	AllowPublicBidding *bool
	SilentMode         *bool
}

// LaunchEvent creates a new event, persists its empty record and marks it as
// the device's active display.
func (s *Service) LaunchEvent(ctx context.Context, params EventParams) (*entity.DisplayRecord, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, domain.NewError(errcodes.ValidationError, "event name must not be empty")
	}

	record := entity.DisplayRecord{
		Event: entity.AuctionEvent{
			ID:       value.NewEventID(),
			OwnerID:  s.accountID,
			Name:     name,
			Subtitle: strings.TrimSpace(params.Subtitle),
		},
		Items: []entity.AuctionItem{},
	}

	if err := s.save(ctx, &record); err != nil {
		return nil, err
	}

	if err := s.active.SetActiveDisplay(record.Event.ID); err != nil {
		return nil, err
	}

	return &record, nil
}

// GetSnapshot returns the display-ready view of one event.
func (s *Service) GetSnapshot(ctx context.Context, id value.EventID) (*entity.Snapshot, error) {
	record, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	snapshot := record.ToSnapshot()

	return &snapshot, nil
}

// ListEvents returns every record visible to this device.
func (s *Service) ListEvents(ctx context.Context) ([]entity.DisplayRecord, error) {
	return s.storage.ListEvents(ctx)
}

// DeleteEvent removes an event and its items everywhere.
func (s *Service) DeleteEvent(ctx context.Context, id value.EventID) error {
	if _, err := s.storage.DeleteEvent(ctx, id); err != nil {
		return err
	}

	return nil
}

// ActiveDisplay returns the device's last-launched event id, "" when none.
func (s *Service) ActiveDisplay() (value.EventID, error) {
	return s.active.ActiveDisplay()
}

// AddItem validates and appends a new item. Free-tier events are capped at
// the item limit; the new item starts with its current bid at the starting
// bid.
func (s *Service) AddItem(ctx context.Context, eventID value.EventID, params ItemParams) (*entity.AuctionItem, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, domain.NewError(errcodes.InvalidItemName, "item name must not be empty")
	}

	if err := validBid(params.StartingBid); err != nil {
		return nil, err
	}

	record, err := s.load(ctx, eventID)
	if err != nil {
		return nil, err
	}

	tier := s.tiers.TierFor(ctx, s.accountID)
	if !value.CapabilityUnlimitedItems.Allows(tier) && len(record.Items) >= value.FreeItemLimit {
		return nil, domain.NewError(errcodes.ItemLimitReached, "free events are limited to 10 items")
	}

	item := entity.AuctionItem{
		ID:          s.nextItemID(),
		Name:        name,
		Description: strings.TrimSpace(params.Description),
		StartingBid: params.StartingBid,
		CurrentBid:  params.StartingBid,
		CreatedAt:   s.now(),
	}

	record.Items = append(record.Items, item)

	if err := s.save(ctx, record); err != nil {
		return nil, err
	}

	return &item, nil
}

// UpdateBid sets an item's current bid.
func (s *Service) UpdateBid(ctx context.Context, eventID value.EventID, itemID int64, amount float64) (*entity.AuctionItem, error) {
	if err := validBid(amount); err != nil {
		return nil, err
	}

	record, err := s.load(ctx, eventID)
	if err != nil {
		return nil, err
	}

	idx, err := findItem(record.Items, itemID)
	if err != nil {
		return nil, err
	}

	record.Items[idx].CurrentBid = amount

	if err := s.save(ctx, record); err != nil {
		return nil, err
	}

	item := record.Items[idx]

	return &item, nil
}

// RevealItem flips an item to its revealed, visible state.
func (s *Service) RevealItem(ctx context.Context, eventID value.EventID, itemID int64) (*entity.AuctionItem, error) {
	record, err := s.load(ctx, eventID)
	if err != nil {
		return nil, err
	}

	idx, err := findItem(record.Items, itemID)
	if err != nil {
		return nil, err
	}

	record.Items[idx].IsRevealed = true
	record.Items[idx].IsHidden = false

	if err := s.save(ctx, record); err != nil {
		return nil, err
	}

	item := record.Items[idx]

	return &item, nil
}

// HideItem toggles an item's visibility on the display.
func (s *Service) HideItem(ctx context.Context, eventID value.EventID, itemID int64, hidden bool) (*entity.AuctionItem, error) {
	record, err := s.load(ctx, eventID)
	if err != nil {
		return nil, err
	}

	idx, err := findItem(record.Items, itemID)
	if err != nil {
		return nil, err
	}

	record.Items[idx].IsHidden = hidden

	if err := s.save(ctx, record); err != nil {
		return nil, err
	}

	item := record.Items[idx]

	return &item, nil
}

// DeleteItem removes one item from the event.
func (s *Service) DeleteItem(ctx context.Context, eventID value.EventID, itemID int64) error {
	record, err := s.load(ctx, eventID)
	if err != nil {
		return err
	}

	idx, err := findItem(record.Items, itemID)
	if err != nil {
		return err
	}

	record.Items = append(record.Items[:idx], record.Items[idx+1:]...)

	return s.save(ctx, record)
}

// UpdateSettings applies a partial settings change. Gated settings require
// the matching capability on the effective tier.
func (s *Service) UpdateSettings(ctx context.Context, eventID value.EventID, settings Settings) (*entity.AuctionEvent, error) {
	record, err := s.load(ctx, eventID)
	if err != nil {
		return nil, err
	}

	tier := s.tiers.TierFor(ctx, s.accountID)

	if settings.Name != nil {
		name := strings.TrimSpace(*settings.Name)
		if name == "" {
			return nil, domain.NewError(errcodes.ValidationError, "event name must not be empty")
		}
		record.Event.Name = name
	}

	if settings.Subtitle != nil {
		record.Event.Subtitle = strings.TrimSpace(*settings.Subtitle)
	}

	if settings.Branding != nil && !settings.Branding.IsZero() {
		if !value.CapabilityCustomBranding.Allows(tier) {
			return nil, domain.NewError(errcodes.Forbidden, "custom branding requires an upgraded plan")
		}
		record.Event.Branding = *settings.Branding
	}

	if settings.HideWatermark != nil {
		if *settings.HideWatermark && !value.CapabilityHideWatermark.Allows(tier) {
			return nil, domain.NewError(errcodes.Forbidden, "hiding the watermark requires an upgraded plan")
		}
		record.Event.HideWatermark = *settings.HideWatermark
	}

	if settings.AllowPublicBidding != nil {
		if *settings.AllowPublicBidding && !value.CapabilityPublicBidding.Allows(tier) {
			return nil, domain.NewError(errcodes.Forbidden, "public bidding requires an upgraded plan")
		}
		record.Event.AllowPublicBidding = *settings.AllowPublicBidding
	}

	if settings.SilentMode != nil {
		if *settings.SilentMode && !value.CapabilitySilentMode.Allows(tier) {
			return nil, domain.NewError(errcodes.Forbidden, "silent mode requires an upgraded plan")
		}
		record.Event.SilentMode = *settings.SilentMode
	}

	if err := s.save(ctx, record); err != nil {
		return nil, err
	}

	event := record.Event

	return &event, nil
}

func (s *Service) load(ctx context.Context, id value.EventID) (*entity.DisplayRecord, error) {
	record, err := s.storage.LoadEvent(ctx, id)
	if err != nil {
		return nil, err
	}

	if record == nil {
		return nil, domain.NewError(errcodes.EventNotFound, "event not found")
	}

	return record, nil
}

func (s *Service) save(ctx context.Context, record *entity.DisplayRecord) error {
	record.UpdatedAt = s.now()
	record.Event.UpdatedAt = record.UpdatedAt

	if _, err := s.storage.SaveEvent(ctx, record.Event.ID, *record); err != nil {
		return err
	}

	if s.publisher != nil {
		s.publisher.Publish(record.Event.ID, record.ToSnapshot())
	}

	return nil
}

func (s *Service) nextItemID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.now().UnixMilli()
	if id <= s.lastItemID {
		id = s.lastItemID + 1
	}
	s.lastItemID = id

	return id
}

func findItem(items []entity.AuctionItem, itemID int64) (int, error) {
	for i, item := range items {
		if item.ID == itemID {
			return i, nil
		}
	}

	return 0, domain.NewError(errcodes.ItemNotFound, "item not found")
}

func validBid(amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return domain.NewError(errcodes.InvalidBidAmount, "bid amount must be a non-negative number")
	}

	return nil
}
