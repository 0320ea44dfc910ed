package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gatherly/internal/domain"
)

type enqueueService struct {
	queueRepo domain.NotificationQueueRepository
}

// NewEnqueueService returns a NotificationEnqueuer backed by the queue
// repository. Item ids are generated client-side so callers can reference
// the job before the insert returns.
func NewEnqueueService(queueRepo domain.NotificationQueueRepository) domain.NotificationEnqueuer {
	return &enqueueService{queueRepo: queueRepo}
}

func (s *enqueueService) Enqueue(ctx context.Context, params domain.EnqueueParams) (*domain.NotificationQueueItem, error) {
	if !params.Kind.Valid() {
		return nil, fmt.Errorf("%w: unknown notification kind %q", domain.ErrInvalidInput, params.Kind)
	}
	if params.EventID == "" {
		return nil, fmt.Errorf("%w: event id is required", domain.ErrInvalidInput)
	}

	now := time.Now()
	item := &domain.NotificationQueueItem{
		ID:            uuid.NewString(),
		Kind:          params.Kind,
		EventID:       params.EventID,
		JoinRequestID: params.JoinRequestID,
		RequesterID:   params.RequesterID,
		UserID:        params.UserID,
		Payload:       params.Payload,
		Status:        domain.QueueStatusQueued,
		Attempts:      0,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.queueRepo.Enqueue(ctx, item); err != nil {
		return nil, fmt.Errorf("enqueue notification: %w", err)
	}
	return item, nil
}
