package postgres

import (
	"context"
	"database/sql"
	"errors"

	"gatherly/internal/domain"
)

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

func (r *eventRepository) Create(ctx context.Context, event *domain.Event) error {
	query := `
		INSERT INTO events (title, host_user_id, capacity, start_date, start_time, exact_location_visible, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		event.Title, event.HostUserID, event.Capacity, event.Date, event.Time,
		event.ExactLocationVisible, event.CreatedAt, event.UpdatedAt).
		Scan(&event.ID)
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `
		SELECT id, title, host_user_id, capacity, start_date, start_time, exact_location_visible, created_at, updated_at
		FROM events
		WHERE id = $1
	`
	event := &domain.Event{}
	err := r.DB.QueryRowContext(ctx, query, id).
		Scan(&event.ID, &event.Title, &event.HostUserID, &event.Capacity,
			&event.Date, &event.Time, &event.ExactLocationVisible,
			&event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return event, nil
}

// UnlockLocation performs the one-way false→true transition. The status
// guard in the WHERE clause makes the call idempotent and the flag
// monotonic: zero rows affected means some earlier call already unlocked.
func (r *eventRepository) UnlockLocation(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE events
		SET exact_location_visible = TRUE, updated_at = NOW()
		WHERE id = $1 AND exact_location_visible = FALSE
	`
	res, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}
