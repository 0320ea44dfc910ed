package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across services and repositories.
var (
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidInput     = errors.New("invalid input")
	ErrEventPast        = errors.New("event already started")
	ErrAlreadyAttending = errors.New("already attending this event")
)

// DuplicateRequestError is returned by Submit when the requester already has
// a join request for the event, regardless of that request's status.
type DuplicateRequestError struct {
	ExistingStatus JoinRequestStatus
}

func (e *DuplicateRequestError) Error() string {
	return fmt.Sprintf("a join request already exists with status %q", e.ExistingStatus)
}

// RequestNotPendingError is returned by Approve/Reject when the request has
// already reached a terminal status.
type RequestNotPendingError struct {
	CurrentStatus JoinRequestStatus
}

func (e *RequestNotPendingError) Error() string {
	return fmt.Sprintf("join request is not pending (current status %q)", e.CurrentStatus)
}

// CapacityExceededError is returned by Approve when the event has no open
// seats left at decision time.
type CapacityExceededError struct {
	Capacity         int
	CurrentAttendees int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("event is at capacity (%d/%d attendees)", e.CurrentAttendees, e.Capacity)
}
