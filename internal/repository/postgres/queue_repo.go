package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"gatherly/internal/domain"
)

const queueColumns = "id, kind, event_id, join_request_id, requester_id, user_id, payload, status, attempts, last_error, created_at, updated_at"

type notificationQueueRepository struct {
	DB *sql.DB
}

func NewNotificationQueueRepository(db *sql.DB) domain.NotificationQueueRepository {
	return &notificationQueueRepository{
		DB: db,
	}
}

func (r *notificationQueueRepository) Enqueue(ctx context.Context, item *domain.NotificationQueueItem) error {
	payload, err := marshalPayload(item.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	query := `
		INSERT INTO notification_queue (id, kind, event_id, join_request_id, requester_id, user_id, payload, status, attempts, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), $7, $8, $9, $10, $11)
	`
	_, err = r.DB.ExecContext(ctx, query,
		item.ID, item.Kind, item.EventID, item.JoinRequestID, item.RequesterID,
		item.UserID, payload, item.Status, item.Attempts, item.CreatedAt, item.UpdatedAt)
	return err
}

// ClaimBatch flips up to limit queued items (oldest first) to processing in
// one conditional update. FOR UPDATE SKIP LOCKED in the sub-select means two
// concurrent claims partition the queue instead of double-claiming; the
// returned rows are the ones this call owns.
func (r *notificationQueueRepository) ClaimBatch(ctx context.Context, limit int) ([]*domain.NotificationQueueItem, error) {
	query := `
		UPDATE notification_queue
		SET status = $1, updated_at = NOW()
		WHERE id IN (
			SELECT id FROM notification_queue
			WHERE status = $2
			ORDER BY created_at ASC
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + queueColumns
	rows, err := r.DB.QueryContext(ctx, query,
		domain.QueueStatusProcessing, domain.QueueStatusQueued, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanQueueItems(rows)
}

func (r *notificationQueueRepository) MarkSent(ctx context.Context, id string) error {
	query := `
		UPDATE notification_queue
		SET status = $2, last_error = NULL, updated_at = NOW()
		WHERE id = $1
	`
	return r.execExpectingOne(ctx, query, id, domain.QueueStatusSent)
}

func (r *notificationQueueRepository) MarkFailed(ctx context.Context, id, lastError string) error {
	query := `
		UPDATE notification_queue
		SET status = $2, attempts = attempts + 1, last_error = $3, updated_at = NOW()
		WHERE id = $1
	`
	return r.execExpectingOne(ctx, query, id, domain.QueueStatusFailed, lastError)
}

func (r *notificationQueueRepository) CountByStatus(ctx context.Context) (*domain.QueueSummary, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM notification_queue GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summary := &domain.QueueSummary{}
	for rows.Next() {
		var status domain.QueueStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		switch status {
		case domain.QueueStatusQueued:
			summary.Queued = count
		case domain.QueueStatusProcessing:
			summary.Processing = count
		case domain.QueueStatusSent:
			summary.Sent = count
		case domain.QueueStatusFailed:
			summary.Failed = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return summary, nil
}

func (r *notificationQueueRepository) ListRecent(ctx context.Context, limit int) ([]*domain.NotificationQueueItem, error) {
	query := `
		SELECT ` + queueColumns + `
		FROM notification_queue
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanQueueItems(rows)
}

func (r *notificationQueueRepository) RequeueFailed(ctx context.Context, params domain.RequeueFailedParams) ([]string, error) {
	set := "status = $1, updated_at = NOW()"
	if params.ResetAttempts {
		set += ", attempts = 0, last_error = NULL"
	}

	where := []string{"status = $2", "created_at >= NOW() - ($3 * INTERVAL '1 hour')"}
	args := []any{domain.QueueStatusQueued, domain.QueueStatusFailed, params.SinceHours}
	if params.Kind != "" {
		args = append(args, params.Kind)
		where = append(where, fmt.Sprintf("kind = $%d", len(args)))
	}
	if params.EventID != "" {
		args = append(args, params.EventID)
		where = append(where, fmt.Sprintf("event_id = $%d", len(args)))
	}
	args = append(args, params.Limit)

	query := fmt.Sprintf(`
		UPDATE notification_queue
		SET %s
		WHERE id IN (
			SELECT id FROM notification_queue
			WHERE %s
			ORDER BY created_at DESC
			LIMIT $%d
		)
		RETURNING id
	`, set, strings.Join(where, " AND "), len(args))

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// RequeueOne recovers a single failed item, or a stuck processing one (e.g.
// after a worker crash between claim and outcome).
func (r *notificationQueueRepository) RequeueOne(ctx context.Context, id string, resetAttempts bool) error {
	set := "status = $1, updated_at = NOW()"
	if resetAttempts {
		set += ", attempts = 0, last_error = NULL"
	}
	query := fmt.Sprintf(`
		UPDATE notification_queue
		SET %s
		WHERE id = $2 AND status IN ($3, $4)
	`, set)
	return r.execExpectingOne(ctx, query,
		domain.QueueStatusQueued, id, domain.QueueStatusFailed, domain.QueueStatusProcessing)
}

func (r *notificationQueueRepository) execExpectingOne(ctx context.Context, query string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func marshalPayload(payload map[string]any) ([]byte, error) {
	if payload == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(payload)
}

func scanQueueItems(rows *sql.Rows) ([]*domain.NotificationQueueItem, error) {
	var items []*domain.NotificationQueueItem
	for rows.Next() {
		item := &domain.NotificationQueueItem{}
		var joinRequestID, requesterID, userID, lastError sql.NullString
		var payload []byte
		err := rows.Scan(&item.ID, &item.Kind, &item.EventID, &joinRequestID,
			&requesterID, &userID, &payload, &item.Status, &item.Attempts,
			&lastError, &item.CreatedAt, &item.UpdatedAt)
		if err != nil {
			return nil, err
		}
		item.JoinRequestID = joinRequestID.String
		item.RequesterID = requesterID.String
		item.UserID = userID.String
		item.LastError = lastError.String
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &item.Payload); err != nil {
				return nil, fmt.Errorf("unmarshal payload for %s: %w", item.ID, err)
			}
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if items == nil {
		items = []*domain.NotificationQueueItem{}
	}
	return items, nil
}
