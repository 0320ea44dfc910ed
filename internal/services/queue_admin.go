package services

import (
	"context"
	"errors"
	"fmt"

	"gatherly/internal/domain"
)

// Admin parameter defaults and bounds.
const (
	DefaultPeekLimit = 50
	MaxPeekLimit     = 200

	DefaultRequeueSinceHours = 168
	MaxRequeueSinceHours     = 8760

	DefaultRequeueLimit = 100
	MaxRequeueLimit     = 1000
)

type queueAdminService struct {
	queueRepo domain.NotificationQueueRepository
}

// NewQueueAdminService exposes inspection and manual recovery over the
// notification queue.
func NewQueueAdminService(queueRepo domain.NotificationQueueRepository) domain.QueueAdminService {
	return &queueAdminService{queueRepo: queueRepo}
}

func (s *queueAdminService) Peek(ctx context.Context, limit int) (*domain.PeekResult, error) {
	if limit <= 0 {
		limit = DefaultPeekLimit
	}
	if limit > MaxPeekLimit {
		limit = MaxPeekLimit
	}

	summary, err := s.queueRepo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count queue items: %w", err)
	}
	recent, err := s.queueRepo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent queue items: %w", err)
	}
	if recent == nil {
		recent = []*domain.NotificationQueueItem{}
	}
	return &domain.PeekResult{Summary: summary, Recent: recent}, nil
}

// RequeueFailed sets failed items matching the filters back to queued. The
// SinceHours window bounds by created_at (enqueue time), not last attempt.
func (s *queueAdminService) RequeueFailed(ctx context.Context, params domain.RequeueFailedParams) (*domain.RequeueResult, error) {
	if params.Kind != "" && !params.Kind.Valid() {
		return nil, fmt.Errorf("%w: unknown notification kind %q", domain.ErrInvalidInput, params.Kind)
	}
	if params.SinceHours <= 0 {
		params.SinceHours = DefaultRequeueSinceHours
	}
	if params.SinceHours > MaxRequeueSinceHours {
		params.SinceHours = MaxRequeueSinceHours
	}
	if params.Limit <= 0 {
		params.Limit = DefaultRequeueLimit
	}
	if params.Limit > MaxRequeueLimit {
		params.Limit = MaxRequeueLimit
	}

	ids, err := s.queueRepo.RequeueFailed(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("requeue failed items: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return &domain.RequeueResult{Requeued: len(ids), IDs: ids}, nil
}

func (s *queueAdminService) RequeueOne(ctx context.Context, queueID string, resetAttempts bool) error {
	if queueID == "" {
		return fmt.Errorf("%w: queue id is required", domain.ErrInvalidInput)
	}
	if err := s.queueRepo.RequeueOne(ctx, queueID, resetAttempts); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("requeue item %s: %w", queueID, err)
	}
	return nil
}
