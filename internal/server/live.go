package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"

	"bidscreen/internal/domain/entity"
	"bidscreen/internal/domain/value"
	"bidscreen/internal/infrastructure/realtime"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

// snapshotFeed is the same-device stream of reconciled snapshots.
type snapshotFeed interface {
	Subscribe(id value.EventID) (<-chan entity.Snapshot, *realtime.Subscription)
}

// channelManager bridges cross-device change notifications into the feed.
type channelManager interface {
	Follow(ctx context.Context, id value.EventID) *realtime.Channel
}

const liveHeartbeatInterval = 25 * time.Second

// getV1EventLive streams display snapshots over SSE. The client gets the
// current snapshot immediately, then one event per change until it
// disconnects. Heartbeat comments keep idle proxies from dropping the
// connection.
func (s DisplayServer) getV1EventLive(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	id, err := eventIDFromRequest(r)
	if err != nil {
		return err
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("response writer does not support streaming")
	}

	// Following is long-lived on purpose: the channel outlives this request
	// and keeps serving other subscribers of the same event.
	s.channels.Follow(ctx, id)

	stream, subscription := s.feed.Subscribe(id)
	defer subscription.Unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if snapshot, err := s.displayService.GetSnapshot(ctx, id); err == nil {
		writeSSE(w, *snapshot)
		flusher.Flush()
	}

	heartbeat := time.NewTicker(liveHeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case snapshot, open := <-stream:
			if !open {
				return nil
			}

			writeSSE(w, snapshot)
			flusher.Flush()
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, snapshot entity.Snapshot) {
	payload, err := json.Marshal(newRESTSnapshot(snapshot))
	if err != nil {
		return
	}

	fmt.Fprintf(w, "data: %s\n\n", payload)
}
