package domain

import (
	"context"
	"time"
)

// Attendee represents a confirmed seat at an event, unique per
// (event, user). Rows are created only as the atomic side effect of a join
// request transitioning to approved, inside
// JoinRequestRepository.ApproveWithSeat.
// swagger:model Attendee
type Attendee struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// AttendeeRepository defines read operations over attendee rows.
type AttendeeRepository interface {
	GetByEventAndUser(ctx context.Context, eventID, userID string) (*Attendee, error)
	CountByEventID(ctx context.Context, eventID string) (int, error)
	ListUserIDsByEventID(ctx context.Context, eventID string) ([]string, error)
}
