package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"gatherly/internal/domain"
)

// pqUniqueViolation is the postgres error code for unique constraint
// violations.
const pqUniqueViolation = "23505"

type joinRequestRepository struct {
	DB *sql.DB
}

func NewJoinRequestRepository(db *sql.DB) domain.JoinRequestRepository {
	return &joinRequestRepository{
		DB: db,
	}
}

func (r *joinRequestRepository) Create(ctx context.Context, req *domain.JoinRequest) error {
	query := `
		INSERT INTO join_requests (event_id, requester_user_id, status, message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		req.EventID, req.RequesterUserID, req.Status, req.Message,
		req.CreatedAt, req.UpdatedAt).
		Scan(&req.ID)
	if isUniqueViolation(err) {
		// The unique constraint on (event_id, requester_user_id) backs the
		// duplicate check under concurrency; the caller fills in the
		// existing status.
		return &domain.DuplicateRequestError{}
	}
	return err
}

func (r *joinRequestRepository) GetByID(ctx context.Context, id string) (*domain.JoinRequest, error) {
	query := `
		SELECT id, event_id, requester_user_id, status, message, rejection_note, created_at, updated_at
		FROM join_requests
		WHERE id = $1
	`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, id))
}

func (r *joinRequestRepository) GetByEventAndRequester(ctx context.Context, eventID, requesterUserID string) (*domain.JoinRequest, error) {
	query := `
		SELECT id, event_id, requester_user_id, status, message, rejection_note, created_at, updated_at
		FROM join_requests
		WHERE event_id = $1 AND requester_user_id = $2
	`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, eventID, requesterUserID))
}

// ApproveWithSeat performs the approve transition and the attendee insert in
// one transaction. The event row is locked first, which serializes the
// count-then-insert sequence for concurrent approvals of the same event: at
// most one caller can win the last open seat.
func (r *joinRequestRepository) ApproveWithSeat(ctx context.Context, requestID string) (int, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var (
		eventID     string
		requesterID string
		status      domain.JoinRequestStatus
	)
	err = tx.QueryRowContext(ctx, `
		SELECT event_id, requester_user_id, status
		FROM join_requests
		WHERE id = $1
		FOR UPDATE
	`, requestID).Scan(&eventID, &requesterID, &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, err
	}
	if status != domain.JoinRequestPending {
		return 0, &domain.RequestNotPendingError{CurrentStatus: status}
	}

	var capacity int
	err = tx.QueryRowContext(ctx, `
		SELECT capacity
		FROM events
		WHERE id = $1
		FOR UPDATE
	`, eventID).Scan(&capacity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, err
	}

	var count int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM attendees WHERE event_id = $1
	`, eventID).Scan(&count)
	if err != nil {
		return 0, err
	}
	if count >= capacity {
		return 0, &domain.CapacityExceededError{Capacity: capacity, CurrentAttendees: count}
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE join_requests
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`, requestID, domain.JoinRequestApproved)
	if err != nil {
		return 0, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO attendees (event_id, user_id, created_at)
		VALUES ($1, $2, NOW())
	`, eventID, requesterID)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, domain.ErrAlreadyAttending
		}
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return count + 1, nil
}

func (r *joinRequestRepository) Reject(ctx context.Context, requestID, note string) error {
	query := `
		UPDATE join_requests
		SET status = $2, rejection_note = NULLIF($3, ''), updated_at = NOW()
		WHERE id = $1 AND status = $4
	`
	res, err := r.DB.ExecContext(ctx, query, requestID, domain.JoinRequestRejected, note, domain.JoinRequestPending)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 1 {
		return nil
	}

	// Zero rows: either the request is gone or it already left pending.
	var status domain.JoinRequestStatus
	err = r.DB.QueryRowContext(ctx, `SELECT status FROM join_requests WHERE id = $1`, requestID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}
	return &domain.RequestNotPendingError{CurrentStatus: status}
}

func (r *joinRequestRepository) scanOne(row *sql.Row) (*domain.JoinRequest, error) {
	req := &domain.JoinRequest{}
	var message, rejectionNote sql.NullString
	err := row.Scan(&req.ID, &req.EventID, &req.RequesterUserID, &req.Status,
		&message, &rejectionNote, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	req.Message = message.String
	req.RejectionNote = rejectionNote.String
	return req, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}
