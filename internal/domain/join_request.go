package domain

import (
	"context"
	"time"
)

// JoinRequestStatus is the closed set of join request states. Pending is the
// only non-terminal state; approved and rejected are terminal.
type JoinRequestStatus string

const (
	JoinRequestPending  JoinRequestStatus = "pending"
	JoinRequestApproved JoinRequestStatus = "approved"
	JoinRequestRejected JoinRequestStatus = "rejected"
)

// Terminal reports whether no further transition is permitted from s.
func (s JoinRequestStatus) Terminal() bool {
	switch s {
	case JoinRequestApproved, JoinRequestRejected:
		return true
	case JoinRequestPending:
		return false
	}
	return false
}

// Valid reports whether s is one of the known statuses.
func (s JoinRequestStatus) Valid() bool {
	switch s {
	case JoinRequestPending, JoinRequestApproved, JoinRequestRejected:
		return true
	}
	return false
}

// JoinRequest represents a prospective attendee's request to join an event.
// At most one request exists per (event, requester) pair; once approved or
// rejected it is immutable except for the rejection note set at rejection.
// swagger:model JoinRequest
type JoinRequest struct {
	ID              string            `json:"id"`
	EventID         string            `json:"event_id"`
	RequesterUserID string            `json:"requester_user_id"`
	Status          JoinRequestStatus `json:"status"`
	Message         string            `json:"message,omitempty"`
	RejectionNote   string            `json:"rejection_note,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// NewJoinRequest returns a pending JoinRequest. ID is set by the repository
// on create.
func NewJoinRequest(eventID, requesterUserID, message string, createdAt time.Time) *JoinRequest {
	return &JoinRequest{
		EventID:         eventID,
		RequesterUserID: requesterUserID,
		Status:          JoinRequestPending,
		Message:         message,
		CreatedAt:       createdAt,
		UpdatedAt:       createdAt,
	}
}

// JoinRequestRepository defines storage operations for join requests.
type JoinRequestRepository interface {
	Create(ctx context.Context, req *JoinRequest) error
	GetByID(ctx context.Context, id string) (*JoinRequest, error)
	GetByEventAndRequester(ctx context.Context, eventID, requesterUserID string) (*JoinRequest, error)
	// ApproveWithSeat flips the request to approved and inserts the attendee
	// row in a single transaction, re-checking the pending status and the
	// seat count against capacity under an event-row lock. It returns the
	// attendee count after the insert. Possible errors: ErrNotFound,
	// *RequestNotPendingError, *CapacityExceededError, ErrAlreadyAttending.
	ApproveWithSeat(ctx context.Context, requestID string) (attendeeCount int, err error)
	// Reject flips a pending request to rejected, storing the optional note.
	// Possible errors: ErrNotFound, *RequestNotPendingError.
	Reject(ctx context.Context, requestID, note string) error
}

// ApprovalResult is the outcome of a successful Approve call.
type ApprovalResult struct {
	Request          *JoinRequest `json:"request"`
	NewAttendeeCount int          `json:"new_attendee_count"`
	Capacity         int          `json:"capacity"`
}

// JoinRequestService is the join-request state machine: submission by a
// prospective attendee and a single host-performed transition to approved
// or rejected.
type JoinRequestService interface {
	Submit(ctx context.Context, eventID, requesterUserID, message string) (*JoinRequest, error)
	Approve(ctx context.Context, requestID, actingUserID string) (*ApprovalResult, error)
	Reject(ctx context.Context, requestID, actingUserID, note string) (*JoinRequest, error)
}
