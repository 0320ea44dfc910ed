package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gatherly/internal/domain"
)

type joinRequestService struct {
	eventRepo    domain.EventRepository
	requestRepo  domain.JoinRequestRepository
	attendeeRepo domain.AttendeeRepository
	enqueuer     domain.NotificationEnqueuer
	logger       *slog.Logger
}

// NewJoinRequestService creates the join-request state machine service with
// the given repositories. The enqueuer is optional; when nil no notification
// jobs are produced.
func NewJoinRequestService(
	eventRepo domain.EventRepository,
	requestRepo domain.JoinRequestRepository,
	attendeeRepo domain.AttendeeRepository,
	enqueuer domain.NotificationEnqueuer,
	logger *slog.Logger,
) domain.JoinRequestService {
	return &joinRequestService{
		eventRepo:    eventRepo,
		requestRepo:  requestRepo,
		attendeeRepo: attendeeRepo,
		enqueuer:     enqueuer,
		logger:       logger,
	}
}

func (s *joinRequestService) Submit(ctx context.Context, eventID, requesterUserID, message string) (*domain.JoinRequest, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	startsAt, err := event.StartsAt(nil)
	if err != nil {
		return nil, fmt.Errorf("event start: %w", err)
	}
	if !startsAt.After(time.Now()) {
		return nil, domain.ErrEventPast
	}

	// A request of any status blocks a new submission; the existing status
	// is surfaced so the caller can render a precise message. "No existing
	// request" (ErrNotFound) and a query failure are distinct outcomes.
	if existing, err := s.requestRepo.GetByEventAndRequester(ctx, eventID, requesterUserID); err == nil {
		return nil, &domain.DuplicateRequestError{ExistingStatus: existing.Status}
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get join request: %w", err)
	}

	if _, err := s.attendeeRepo.GetByEventAndUser(ctx, eventID, requesterUserID); err == nil {
		return nil, domain.ErrAlreadyAttending
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get attendee: %w", err)
	}

	req := domain.NewJoinRequest(eventID, requesterUserID, strings.TrimSpace(message), time.Now())
	if err := s.requestRepo.Create(ctx, req); err != nil {
		var dup *domain.DuplicateRequestError
		if errors.As(err, &dup) {
			// Lost a race with a concurrent submission; fill in the status
			// the unique constraint cannot know.
			if existing, gerr := s.requestRepo.GetByEventAndRequester(ctx, eventID, requesterUserID); gerr == nil {
				dup.ExistingStatus = existing.Status
			}
			return nil, dup
		}
		return nil, fmt.Errorf("create join request: %w", err)
	}

	s.enqueue(ctx, domain.EnqueueParams{
		Kind:          domain.KindRequestCreated,
		EventID:       event.ID,
		JoinRequestID: req.ID,
		RequesterID:   requesterUserID,
		UserID:        event.HostUserID,
		Payload: map[string]any{
			"event_title":    event.Title,
			"event_datetime": event.Date + " " + event.Time,
			"message":        req.Message,
		},
	})
	return req, nil
}

func (s *joinRequestService) Approve(ctx context.Context, requestID, actingUserID string) (*domain.ApprovalResult, error) {
	req, event, err := s.loadForTransition(ctx, requestID, actingUserID)
	if err != nil {
		return nil, err
	}

	// The repository re-checks status and seat count inside a transaction
	// holding the event row lock; the checks above only produce fast,
	// precise errors for the common cases.
	count, err := s.requestRepo.ApproveWithSeat(ctx, requestID)
	if err != nil {
		var capErr *domain.CapacityExceededError
		var pendErr *domain.RequestNotPendingError
		if errors.As(err, &capErr) || errors.As(err, &pendErr) ||
			errors.Is(err, domain.ErrAlreadyAttending) || errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("approve join request: %w", err)
	}

	req.Status = domain.JoinRequestApproved
	s.enqueue(ctx, domain.EnqueueParams{
		Kind:          domain.KindApproved,
		EventID:       event.ID,
		JoinRequestID: req.ID,
		RequesterID:   req.RequesterUserID,
		Payload: map[string]any{
			"event_title":    event.Title,
			"event_datetime": event.Date + " " + event.Time,
		},
	})
	return &domain.ApprovalResult{
		Request:          req,
		NewAttendeeCount: count,
		Capacity:         event.Capacity,
	}, nil
}

func (s *joinRequestService) Reject(ctx context.Context, requestID, actingUserID, note string) (*domain.JoinRequest, error) {
	req, event, err := s.loadForTransition(ctx, requestID, actingUserID)
	if err != nil {
		return nil, err
	}

	note = strings.TrimSpace(note)
	if err := s.requestRepo.Reject(ctx, requestID, note); err != nil {
		var pendErr *domain.RequestNotPendingError
		if errors.As(err, &pendErr) || errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("reject join request: %w", err)
	}

	req.Status = domain.JoinRequestRejected
	req.RejectionNote = note
	s.enqueue(ctx, domain.EnqueueParams{
		Kind:          domain.KindRejected,
		EventID:       event.ID,
		JoinRequestID: req.ID,
		RequesterID:   req.RequesterUserID,
		Payload: map[string]any{
			"event_title":    event.Title,
			"event_datetime": event.Date + " " + event.Time,
			"note":           note,
		},
	})
	return req, nil
}

// loadForTransition fetches the request and its event and runs the guards
// shared by Approve and Reject: host identity and pending status.
func (s *joinRequestService) loadForTransition(ctx context.Context, requestID, actingUserID string) (*domain.JoinRequest, *domain.Event, error) {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, fmt.Errorf("get join request: %w", err)
	}

	event, err := s.eventRepo.GetByID(ctx, req.EventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, fmt.Errorf("get event: %w", err)
	}
	if event.HostUserID != actingUserID {
		return nil, nil, domain.ErrForbidden
	}
	if req.Status != domain.JoinRequestPending {
		return nil, nil, &domain.RequestNotPendingError{CurrentStatus: req.Status}
	}
	return req, event, nil
}

// enqueue is best-effort: a failed enqueue is logged and never turns a
// committed business transition into an error.
func (s *joinRequestService) enqueue(ctx context.Context, params domain.EnqueueParams) {
	if s.enqueuer == nil {
		return
	}
	if _, err := s.enqueuer.Enqueue(ctx, params); err != nil {
		s.logger.WarnContext(ctx, "notification enqueue failed",
			"kind", params.Kind, "event_id", params.EventID, "err", err)
	}
}
