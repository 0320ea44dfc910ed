package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gatherly/internal/domain"
)

type locationService struct {
	eventRepo    domain.EventRepository
	attendeeRepo domain.AttendeeRepository
	enqueuer     domain.NotificationEnqueuer
	logger       *slog.Logger
}

// NewLocationService creates the host-only location unlock gate.
func NewLocationService(
	eventRepo domain.EventRepository,
	attendeeRepo domain.AttendeeRepository,
	enqueuer domain.NotificationEnqueuer,
	logger *slog.Logger,
) domain.LocationService {
	return &locationService{
		eventRepo:    eventRepo,
		attendeeRepo: attendeeRepo,
		enqueuer:     enqueuer,
		logger:       logger,
	}
}

func (s *locationService) Unlock(ctx context.Context, eventID, actingUserID string) (*domain.UnlockResult, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.HostUserID != actingUserID {
		return nil, domain.ErrForbidden
	}
	if event.ExactLocationVisible {
		return &domain.UnlockResult{AlreadyUnlocked: true}, nil
	}

	updated, err := s.eventRepo.UnlockLocation(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("unlock location: %w", err)
	}
	if !updated {
		// Another call won the transition between our read and the write;
		// the flag is monotonic so this is still a success.
		return &domain.UnlockResult{AlreadyUnlocked: true}, nil
	}

	s.notifyAttendees(ctx, event)
	return &domain.UnlockResult{AlreadyUnlocked: false}, nil
}

// notifyAttendees enqueues one location_unlocked job per confirmed attendee.
// Best-effort: failures are logged, never surfaced.
func (s *locationService) notifyAttendees(ctx context.Context, event *domain.Event) {
	if s.enqueuer == nil {
		return
	}
	userIDs, err := s.attendeeRepo.ListUserIDsByEventID(ctx, event.ID)
	if err != nil {
		s.logger.WarnContext(ctx, "list attendees for unlock notification failed",
			"event_id", event.ID, "err", err)
		return
	}
	for _, userID := range userIDs {
		if _, err := s.enqueuer.Enqueue(ctx, domain.EnqueueParams{
			Kind:    domain.KindLocationUnlocked,
			EventID: event.ID,
			UserID:  userID,
			Payload: map[string]any{
				"event_title":    event.Title,
				"event_datetime": event.Date + " " + event.Time,
			},
		}); err != nil {
			s.logger.WarnContext(ctx, "notification enqueue failed",
				"kind", domain.KindLocationUnlocked, "event_id", event.ID, "err", err)
		}
	}
}
