package server

import (
	"context"
	"fmt"
	"net/http"

	"bidscreen/internal/domain/entity"
	"bidscreen/internal/domain/service/storage"
	"bidscreen/pkg/httpx/reply"
	"bidscreen/pkg/lox"
	"bidscreen/pkg/rest"
)

type storageService interface {
	CurrentStatus() storage.Status
	QueueStatus() (bool, []entity.OfflineQueueEntry)
	ForceSyncOfflineQueue(ctx context.Context) error
	ClearOfflineQueue()
}

type StorageServer struct {
	storageService storageService
}

func NewStorageServer(service storageService) StorageServer {
	return StorageServer{
		storageService: service,
	}
}

func (s StorageServer) getV1StorageStatus(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	reply.JSON(ctx, w, http.StatusOK, newRESTStorageStatus(s.storageService.CurrentStatus()))

	return nil
}

func (s StorageServer) getV1StorageQueue(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	online, entries := s.storageService.QueueStatus()

	response := rest.QueueStatusResponse{
		Online:  online,
		Entries: lox.Map(entries, newRESTQueueEntry),
	}

	reply.JSON(ctx, w, http.StatusOK, response)

	return nil
}

func (s StorageServer) postV1StorageSync(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	if err := s.storageService.ForceSyncOfflineQueue(ctx); err != nil {
		return toFailure(fmt.Errorf("storageService.ForceSyncOfflineQueue: %w", err))
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTStorageStatus(s.storageService.CurrentStatus()))

	return nil
}

func (s StorageServer) deleteV1StorageQueue(w http.ResponseWriter, r *http.Request) error {
	s.storageService.ClearOfflineQueue()

	reply.OK(w)

	return nil
}
