package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"git.appkode.ru/pub/go/failure"
	"github.com/go-chi/chi/v5"

	"bidscreen/internal/domain/entity"
	"bidscreen/internal/domain/service/display"
	"bidscreen/internal/domain/value"
	"bidscreen/pkg/errcodes"
	"bidscreen/pkg/httpx/reply"
	"bidscreen/pkg/httpx/req"
	"bidscreen/pkg/lox"
	"bidscreen/pkg/rest"
)

type displayService interface {
	LaunchEvent(ctx context.Context, params display.EventParams) (*entity.DisplayRecord, error)
	GetSnapshot(ctx context.Context, id value.EventID) (*entity.Snapshot, error)
	ListEvents(ctx context.Context) ([]entity.DisplayRecord, error)
	DeleteEvent(ctx context.Context, id value.EventID) error
	UpdateSettings(ctx context.Context, id value.EventID, settings display.Settings) (*entity.AuctionEvent, error)
	AddItem(ctx context.Context, eventID value.EventID, params display.ItemParams) (*entity.AuctionItem, error)
	UpdateBid(ctx context.Context, eventID value.EventID, itemID int64, amount float64) (*entity.AuctionItem, error)
	RevealItem(ctx context.Context, eventID value.EventID, itemID int64) (*entity.AuctionItem, error)
	HideItem(ctx context.Context, eventID value.EventID, itemID int64, hidden bool) (*entity.AuctionItem, error)
	DeleteItem(ctx context.Context, eventID value.EventID, itemID int64) error
	ActiveDisplay() (value.EventID, error)
}

type DisplayServer struct {
	displayService displayService
	feed           snapshotFeed
	channels       channelManager
}

func NewDisplayServer(
	service displayService,
	feed snapshotFeed,
	channels channelManager,
) DisplayServer {
	return DisplayServer{
		displayService: service,
		feed:           feed,
		channels:       channels,
	}
}

func (s DisplayServer) postV1Event(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var request rest.CreateEventRequest

	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	record, err := s.displayService.LaunchEvent(ctx, display.EventParams{
		Name:     request.Name,
		Subtitle: request.Subtitle,
	})
	if err != nil {
		return toFailure(fmt.Errorf("displayService.LaunchEvent: %w", err))
	}

	reply.JSON(ctx, w, http.StatusCreated, newRESTSnapshot(record.ToSnapshot()))

	return nil
}

func (s DisplayServer) getV1Events(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	records, err := s.displayService.ListEvents(ctx)
	if err != nil {
		return toFailure(fmt.Errorf("displayService.ListEvents: %w", err))
	}

	snapshots := lox.Map(records, func(record entity.DisplayRecord) rest.Snapshot {
		return newRESTSnapshot(record.ToSnapshot())
	})

	reply.JSON(ctx, w, http.StatusOK, snapshots)

	return nil
}

func (s DisplayServer) getV1Event(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	id, err := eventIDFromRequest(r)
	if err != nil {
		return err
	}

	snapshot, err := s.displayService.GetSnapshot(ctx, id)
	if err != nil {
		return toFailure(fmt.Errorf("displayService.GetSnapshot: %w", err))
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTSnapshot(*snapshot))

	return nil
}

func (s DisplayServer) deleteV1Event(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	id, err := eventIDFromRequest(r)
	if err != nil {
		return err
	}

	if err := s.displayService.DeleteEvent(ctx, id); err != nil {
		return toFailure(fmt.Errorf("displayService.DeleteEvent: %w", err))
	}

	reply.OK(w)

	return nil
}

func (s DisplayServer) patchV1EventSettings(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	id, err := eventIDFromRequest(r)
	if err != nil {
		return err
	}

	var request rest.UpdateSettingsRequest

	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	settings := display.Settings{
		Name:               request.Name,
		Subtitle:           request.Subtitle,
		HideWatermark:      request.HideWatermark,
		AllowPublicBidding: request.AllowPublicBidding,
		SilentMode:         request.SilentMode,
	}

	if request.Branding != nil {
		branding := newDomainBranding(*request.Branding)
		settings.Branding = &branding
	}

	event, err := s.displayService.UpdateSettings(ctx, id, settings)
	if err != nil {
		return toFailure(fmt.Errorf("displayService.UpdateSettings: %w", err))
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTEvent(*event))

	return nil
}

func (s DisplayServer) postV1Item(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	id, err := eventIDFromRequest(r)
	if err != nil {
		return err
	}

	var request rest.CreateItemRequest

	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	item, err := s.displayService.AddItem(ctx, id, display.ItemParams{
		Name:        request.Name,
		Description: request.Description,
		StartingBid: request.StartingBid,
	})
	if err != nil {
		return toFailure(fmt.Errorf("displayService.AddItem: %w", err))
	}

	reply.JSON(ctx, w, http.StatusCreated, newRESTItem(*item))

	return nil
}

func (s DisplayServer) putV1ItemBid(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	eventID, itemID, err := itemRefFromRequest(r)
	if err != nil {
		return err
	}

	var request rest.UpdateBidRequest

	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	item, err := s.displayService.UpdateBid(ctx, eventID, itemID, request.Amount)
	if err != nil {
		return toFailure(fmt.Errorf("displayService.UpdateBid: %w", err))
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTItem(*item))

	return nil
}

func (s DisplayServer) postV1ItemReveal(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	eventID, itemID, err := itemRefFromRequest(r)
	if err != nil {
		return err
	}

	item, err := s.displayService.RevealItem(ctx, eventID, itemID)
	if err != nil {
		return toFailure(fmt.Errorf("displayService.RevealItem: %w", err))
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTItem(*item))

	return nil
}

func (s DisplayServer) putV1ItemHidden(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	eventID, itemID, err := itemRefFromRequest(r)
	if err != nil {
		return err
	}

	var request rest.SetHiddenRequest

	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	item, err := s.displayService.HideItem(ctx, eventID, itemID, request.Hidden)
	if err != nil {
		return toFailure(fmt.Errorf("displayService.HideItem: %w", err))
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTItem(*item))

	return nil
}

func (s DisplayServer) deleteV1Item(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	eventID, itemID, err := itemRefFromRequest(r)
	if err != nil {
		return err
	}

	if err := s.displayService.DeleteItem(ctx, eventID, itemID); err != nil {
		return toFailure(fmt.Errorf("displayService.DeleteItem: %w", err))
	}

	reply.OK(w)

	return nil
}

func (s DisplayServer) getV1DisplayActive(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	id, err := s.displayService.ActiveDisplay()
	if err != nil {
		return toFailure(fmt.Errorf("displayService.ActiveDisplay: %w", err))
	}

	reply.JSON(ctx, w, http.StatusOK, rest.ActiveDisplayResponse{EventID: id.String()})

	return nil
}

func eventIDFromRequest(r *http.Request) (value.EventID, error) {
	id, err := value.ParseEventID(chi.URLParam(r, "eventId"))
	if err != nil {
		return "", failure.NewInvalidArgumentErrorFromError(
			fmt.Errorf("value.ParseEventID: %w", err),
			failure.WithCode(errcodes.InvalidEventID),
		)
	}

	return id, nil
}

func itemRefFromRequest(r *http.Request) (value.EventID, int64, error) {
	eventID, err := eventIDFromRequest(r)
	if err != nil {
		return "", 0, err
	}

	itemID, err := strconv.ParseInt(chi.URLParam(r, "itemId"), 10, 64)
	if err != nil {
		return "", 0, failure.NewInvalidArgumentErrorFromError(
			fmt.Errorf("strconv.ParseInt: %w", err),
			failure.WithCode(errcodes.ValidationError),
		)
	}

	return eventID, itemID, nil
}
