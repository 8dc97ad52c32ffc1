package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"bidscreen/internal/domain"
	"bidscreen/internal/domain/entity"
	"bidscreen/internal/domain/value"
	"bidscreen/pkg/errcodes"
)

// DisplayRepository is the remote store for display records: one events row
// plus its auction_items rows per record.
type DisplayRepository struct {
	db *sqlx.DB
}

func NewDisplayRepository(db *sqlx.DB) *DisplayRepository {
	return &DisplayRepository{db: db}
}

// withTx runs fn inside a transaction.
func (r *DisplayRepository) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to begin transaction")
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return domain.WrapError(
				fmt.Errorf("%w; rollback: %v", err, rbErr),
				errcodes.InternalServerError,
				"transaction failed",
			)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to commit")
	}

	return nil
}

// Upsert writes the event row and bulk-upserts its items atomically. Items
// removed from the record are deleted so the remote rows mirror the record
// exactly. Idempotent by primary key.
func (r *DisplayRepository) Upsert(ctx context.Context, id value.EventID, record entity.DisplayRecord) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := r.upsertEventTx(ctx, tx, record.Event); err != nil {
			return err
		}

		if err := r.upsertItemsTx(ctx, tx, id, record.Items); err != nil {
			return err
		}

		return nil
	})
}

func (r *DisplayRepository) upsertEventTx(ctx context.Context, tx *sqlx.Tx, event entity.AuctionEvent) error {
	schema, err := fromEvent(event)
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to encode branding")
	}

	query := `
		INSERT INTO events (id, owner_id, name, subtitle, custom_colors, logo_url,
			hide_watermark, allow_public_bidding, silent_mode, updated_at)
		VALUES (:id, :owner_id, :name, :subtitle, :custom_colors, :logo_url,
			:hide_watermark, :allow_public_bidding, :silent_mode, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			subtitle = EXCLUDED.subtitle,
			custom_colors = EXCLUDED.custom_colors,
			logo_url = EXCLUDED.logo_url,
			hide_watermark = EXCLUDED.hide_watermark,
			allow_public_bidding = EXCLUDED.allow_public_bidding,
			silent_mode = EXCLUDED.silent_mode,
			updated_at = EXCLUDED.updated_at`

	if _, err := tx.NamedExecContext(ctx, query, schema); err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to upsert event")
	}

	return nil
}

func (r *DisplayRepository) upsertItemsTx(ctx context.Context, tx *sqlx.Tx, id value.EventID, items []entity.AuctionItem) error {
	keep := make([]int64, 0, len(items))

	query := `
		INSERT INTO auction_items (id, event_id, name, description, starting_bid,
			current_bid, is_hidden, is_revealed, created_at)
		VALUES (:id, :event_id, :name, :description, :starting_bid,
			:current_bid, :is_hidden, :is_revealed, :created_at)
		ON CONFLICT (event_id, id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			starting_bid = EXCLUDED.starting_bid,
			current_bid = EXCLUDED.current_bid,
			is_hidden = EXCLUDED.is_hidden,
			is_revealed = EXCLUDED.is_revealed`

	for i, item := range items {
		if _, err := tx.NamedExecContext(ctx, query, fromItem(id, item)); err != nil {
			return domain.WrapError(err, errcodes.InternalServerError,
				fmt.Sprintf("failed to upsert item at index %d", i))
		}

		keep = append(keep, item.ID)
	}

	if len(keep) == 0 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM auction_items WHERE event_id = $1`, id.String()); err != nil {
			return domain.WrapError(err, errcodes.InternalServerError, "failed to prune items")
		}
		return nil
	}

	pruneQuery, args, err := sqlx.In(
		`DELETE FROM auction_items WHERE event_id = ? AND id NOT IN (?)`, id.String(), keep)
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to build prune query")
	}

	if _, err := tx.ExecContext(ctx, tx.Rebind(pruneQuery), args...); err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to prune items")
	}

	return nil
}

// Get returns the record for an event id, items in insertion order. A missing
// event is not an error: the caller receives (nil, nil).
func (r *DisplayRepository) Get(ctx context.Context, id value.EventID) (*entity.DisplayRecord, error) {
	var event eventSchema

	query := `
		SELECT id, owner_id, name, subtitle, custom_colors, logo_url,
			hide_watermark, allow_public_bidding, silent_mode, updated_at
		FROM events
		WHERE id = $1`

	if err := r.db.GetContext(ctx, &event, query, id.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to get event")
	}

	var items []itemSchema

	itemsQuery := `
		SELECT id, event_id, name, description, starting_bid, current_bid,
			is_hidden, is_revealed, created_at
		FROM auction_items
		WHERE event_id = $1
		ORDER BY id`

	if err := r.db.SelectContext(ctx, &items, itemsQuery, id.String()); err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to get items")
	}

	domainEvent, err := event.toDomain()
	if err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to decode branding")
	}

	record := &entity.DisplayRecord{
		Event:     domainEvent,
		Items:     make([]entity.AuctionItem, 0, len(items)),
		UpdatedAt: domainEvent.UpdatedAt,
	}

	for _, item := range items {
		record.Items = append(record.Items, item.toDomain())
	}

	return record, nil
}

// Delete removes the event and its items. Items go first because of the
// foreign key. Idempotent: deleting an absent event succeeds.
func (r *DisplayRepository) Delete(ctx context.Context, id value.EventID) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM auction_items WHERE event_id = $1`, id.String()); err != nil {
			return domain.WrapError(err, errcodes.InternalServerError, "failed to delete items")
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id.String()); err != nil {
			return domain.WrapError(err, errcodes.InternalServerError, "failed to delete event")
		}

		return nil
	})
}

// ListByOwner returns all records belonging to an account, most recently
// updated first.
func (r *DisplayRepository) ListByOwner(ctx context.Context, ownerID string) ([]entity.DisplayRecord, error) {
	var events []eventSchema

	query := `
		SELECT id, owner_id, name, subtitle, custom_colors, logo_url,
			hide_watermark, allow_public_bidding, silent_mode, updated_at
		FROM events
		WHERE owner_id = $1
		ORDER BY updated_at DESC`

	if err := r.db.SelectContext(ctx, &events, query, ownerID); err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to list events")
	}

	records := make([]entity.DisplayRecord, 0, len(events))

	for _, e := range events {
		record, err := r.Get(ctx, value.EventID(e.ID))
		if err != nil {
			return nil, err
		}
		if record != nil {
			records = append(records, *record)
		}
	}

	return records, nil
}

// Ping reports remote reachability for the connectivity watcher.
func (r *DisplayRepository) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("db.PingContext: %w", err)
	}

	return nil
}
