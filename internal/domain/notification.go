package domain

import (
	"context"
	"time"
)

// NotificationKind identifies the event lifecycle signal a queue item
// carries.
type NotificationKind string

const (
	KindRequestCreated   NotificationKind = "request_created"
	KindApproved         NotificationKind = "approved"
	KindRejected         NotificationKind = "rejected"
	KindLocationUnlocked NotificationKind = "location_unlocked"
)

// Valid reports whether k is one of the known kinds.
func (k NotificationKind) Valid() bool {
	switch k {
	case KindRequestCreated, KindApproved, KindRejected, KindLocationUnlocked:
		return true
	}
	return false
}

// QueueStatus is the closed set of queue item states. Failed is not
// terminal: admin recovery may set a failed item back to queued.
type QueueStatus string

const (
	QueueStatusQueued     QueueStatus = "queued"
	QueueStatusProcessing QueueStatus = "processing"
	QueueStatusSent       QueueStatus = "sent"
	QueueStatusFailed     QueueStatus = "failed"
)

// NotificationQueueItem is one unit of deferred notification work. Items are
// never deleted by the normal flow; status is the only lifecycle signal.
// swagger:model NotificationQueueItem
type NotificationQueueItem struct {
	ID            string           `json:"id"`
	Kind          NotificationKind `json:"kind"`
	EventID       string           `json:"event_id"`
	JoinRequestID string           `json:"join_request_id,omitempty"`
	RequesterID   string           `json:"requester_id,omitempty"`
	UserID        string           `json:"user_id,omitempty"`
	Payload       map[string]any   `json:"payload,omitempty"`
	Status        QueueStatus      `json:"status"`
	Attempts      int              `json:"attempts"`
	LastError     string           `json:"last_error,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// NotificationLog is a write-once record of one delivery attempt outcome.
// swagger:model NotificationLog
type NotificationLog struct {
	ID             string           `json:"id"`
	Kind           NotificationKind `json:"kind"`
	Status         string           `json:"status"`
	RecipientEmail string           `json:"recipient_email,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

// QueueSummary holds per-status item counts for the admin peek operation.
type QueueSummary struct {
	Queued     int `json:"queued"`
	Processing int `json:"processing"`
	Sent       int `json:"sent"`
	Failed     int `json:"failed"`
}

// RequeueFailedParams filters which failed items an admin requeue touches.
// Zero-valued filters are ignored; SinceHours bounds by created_at.
type RequeueFailedParams struct {
	Kind          NotificationKind
	EventID       string
	SinceHours    int
	Limit         int
	ResetAttempts bool
}

// NotificationQueueRepository defines storage operations for the queue.
type NotificationQueueRepository interface {
	Enqueue(ctx context.Context, item *NotificationQueueItem) error
	// ClaimBatch atomically flips up to limit queued items (oldest first) to
	// processing and returns them. Two concurrent claims never return the
	// same item.
	ClaimBatch(ctx context.Context, limit int) ([]*NotificationQueueItem, error)
	MarkSent(ctx context.Context, id string) error
	// MarkFailed sets the item to failed, increments attempts, and records
	// the error message.
	MarkFailed(ctx context.Context, id, lastError string) error
	CountByStatus(ctx context.Context) (*QueueSummary, error)
	ListRecent(ctx context.Context, limit int) ([]*NotificationQueueItem, error)
	RequeueFailed(ctx context.Context, params RequeueFailedParams) (ids []string, err error)
	// RequeueOne sets a single failed (or stuck processing) item back to
	// queued. Returns ErrNotFound if no such item exists.
	RequeueOne(ctx context.Context, id string, resetAttempts bool) error
}

// NotificationLogRepository records delivery attempt outcomes.
type NotificationLogRepository interface {
	Create(ctx context.Context, entry *NotificationLog) error
}

// EnqueueParams carries the references and payload for a new queue item.
type EnqueueParams struct {
	Kind          NotificationKind
	EventID       string
	JoinRequestID string
	RequesterID   string
	UserID        string
	Payload       map[string]any
}

// NotificationEnqueuer inserts new queued notification jobs. Enqueue is
// best-effort relative to the business transition that triggers it: callers
// log failures but never roll back committed state.
type NotificationEnqueuer interface {
	Enqueue(ctx context.Context, params EnqueueParams) (*NotificationQueueItem, error)
}

// PeekResult is the admin queue inspection response.
type PeekResult struct {
	Summary *QueueSummary            `json:"summary"`
	Recent  []*NotificationQueueItem `json:"recent"`
}

// RequeueResult reports which items an admin requeue operation touched.
type RequeueResult struct {
	Requeued int      `json:"requeued"`
	IDs      []string `json:"ids"`
}

// QueueAdminService exposes inspection and manual recovery over the queue.
type QueueAdminService interface {
	Peek(ctx context.Context, limit int) (*PeekResult, error)
	RequeueFailed(ctx context.Context, params RequeueFailedParams) (*RequeueResult, error)
	RequeueOne(ctx context.Context, queueID string, resetAttempts bool) error
}

// WorkerReport summarizes one worker batch invocation.
type WorkerReport struct {
	Claimed int `json:"claimed"`
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
}

// WorkerService consumes queued notification jobs: claim, render, dispatch,
// record outcome. One bounded batch per invocation.
type WorkerService interface {
	ProcessBatch(ctx context.Context) (*WorkerReport, error)
}
