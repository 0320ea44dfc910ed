package postgres

import (
	"context"
	"database/sql"

	"gatherly/internal/domain"
)

type notificationLogRepository struct {
	DB *sql.DB
}

func NewNotificationLogRepository(db *sql.DB) domain.NotificationLogRepository {
	return &notificationLogRepository{
		DB: db,
	}
}

func (r *notificationLogRepository) Create(ctx context.Context, entry *domain.NotificationLog) error {
	query := `
		INSERT INTO notification_log (kind, status, recipient_email, created_at)
		VALUES ($1, $2, NULLIF($3, ''), $4)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		entry.Kind, entry.Status, entry.RecipientEmail, entry.CreatedAt).
		Scan(&entry.ID)
}
