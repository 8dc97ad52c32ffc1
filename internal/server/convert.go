package server

import (
	"git.appkode.ru/pub/go/failure"

	"bidscreen/internal/domain"
	"bidscreen/internal/domain/entity"
	"bidscreen/internal/domain/service/storage"
	"bidscreen/internal/domain/value"
	"bidscreen/pkg/errcodes"
	"bidscreen/pkg/lox"
	"bidscreen/pkg/rest"
)

// toFailure maps domain error codes onto transport error kinds so reply.Error
// picks the right status. Unrecognized errors pass through as internal.
func toFailure(err error) error {
	if err == nil {
		return nil
	}

	code, ok := domain.GetCode(err)
	if !ok {
		return err
	}

	switch code {
	case errcodes.ValidationError,
		errcodes.InvalidEventID,
		errcodes.InvalidItemName,
		errcodes.InvalidBidAmount,
		errcodes.InvalidWebhookEvent:
		return failure.NewInvalidArgumentErrorFromError(err, failure.WithCode(code))
	case errcodes.NotFound,
		errcodes.EventNotFound,
		errcodes.ItemNotFound,
		errcodes.AccountNotFound:
		return failure.NewNotFoundErrorFromError(err, failure.WithCode(code))
	case errcodes.Forbidden,
		errcodes.ItemLimitReached:
		return failure.NewForbiddenErrorFromError(err, failure.WithCode(code))
	case errcodes.Unauthorized,
		errcodes.InvalidSignature:
		return failure.NewUnauthorizedErrorFromError(err, failure.WithCode(code))
	case errcodes.PaymentNotConfirmed:
		return failure.NewUnprocessableEntityErrorFromError(err, failure.WithCode(code))
	default:
		return err
	}
}

func newRESTEvent(event entity.AuctionEvent) rest.Event {
	return rest.Event{
		ID:                 event.ID.String(),
		Name:               event.Name,
		Subtitle:           event.Subtitle,
		Branding:           newRESTBranding(event.Branding),
		HideWatermark:      event.HideWatermark,
		AllowPublicBidding: event.AllowPublicBidding,
		SilentMode:         event.SilentMode,
		UpdatedAt:          event.UpdatedAt,
	}
}

func newRESTBranding(branding value.Branding) rest.Branding {
	return rest.Branding{
		PrimaryColor:    branding.PrimaryColor,
		AccentColor:     branding.AccentColor,
		BackgroundColor: branding.BackgroundColor,
		LogoURL:         branding.LogoURL,
	}
}

func newDomainBranding(branding rest.Branding) value.Branding {
	return value.Branding{
		PrimaryColor:    branding.PrimaryColor,
		AccentColor:     branding.AccentColor,
		BackgroundColor: branding.BackgroundColor,
		LogoURL:         branding.LogoURL,
	}
}

func newRESTItem(item entity.AuctionItem) rest.Item {
	return rest.Item{
		ID:          item.ID,
		Name:        item.Name,
		Description: item.Description,
		StartingBid: item.StartingBid,
		CurrentBid:  item.CurrentBid,
		IsHidden:    item.IsHidden,
		IsRevealed:  item.IsRevealed,
		CreatedAt:   item.CreatedAt,
	}
}

func newRESTSnapshot(snapshot entity.Snapshot) rest.Snapshot {
	return rest.Snapshot{
		Event:       newRESTEvent(snapshot.Event),
		Items:       lox.Map(snapshot.Items, newRESTItem),
		TotalRaised: snapshot.TotalRaised,
		UpdatedAt:   snapshot.UpdatedAt,
	}
}

func newRESTQueueEntry(entry entity.OfflineQueueEntry) rest.QueueEntry {
	return rest.QueueEntry{
		Action:   string(entry.Action),
		EventID:  entry.EventID.String(),
		QueuedAt: entry.QueuedAt,
		Retries:  entry.Retries,
	}
}

func newRESTStorageStatus(status storage.Status) rest.StorageStatus {
	return rest.StorageStatus{
		Online:      status.Online,
		Mode:        status.Mode.String(),
		QueueLength: status.QueueLength,
	}
}
