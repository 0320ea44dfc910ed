package domain

import (
	"context"
	"fmt"
	"time"
)

// Event represents a capacity-limited social event.
// swagger:model Event
type Event struct {
	ID                   string    `json:"id"`
	Title                string    `json:"title"`
	HostUserID           string    `json:"host_user_id"`
	Capacity             int       `json:"capacity"`
	Date                 string    `json:"date"` // YYYY-MM-DD
	Time                 string    `json:"time"` // HH:MM, event-local
	ExactLocationVisible bool      `json:"exact_location_visible"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// StartsAt combines the event's date and time fields into a single instant
// in the given location.
func (e *Event) StartsAt(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", e.Date+" "+e.Time, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse event start: %w", err)
	}
	return t, nil
}

// EventRepository defines the interface for event storage.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	// UnlockLocation sets exact_location_visible to true. It returns true if
	// this call performed the transition and false if the event was already
	// unlocked. The flag never transitions back to false.
	UnlockLocation(ctx context.Context, id string) (updated bool, err error)
}

// UnlockResult is the outcome of a location unlock call.
type UnlockResult struct {
	AlreadyUnlocked bool `json:"already_unlocked"`
}

// LocationService exposes the host-only, idempotent location unlock gate.
type LocationService interface {
	Unlock(ctx context.Context, eventID, actingUserID string) (*UnlockResult, error)
}
