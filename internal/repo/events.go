package repo

import (
	"context"
	"fmt"

	"skillsphere/internal/model"
)

const eventColumns = `
	id, organization_id, created_by, title, description, location,
	start_time, end_time, registration_deadline, capacity, visibility,
	auto_approve, status, is_active, created_at, updated_at`

func (r *repository) CreateEvent(ctx context.Context, e *model.Event) (int64, error) {
	query := `
		INSERT INTO events (organization_id, created_by, title, description, location,
		                    start_time, end_time, registration_deadline, capacity,
		                    visibility, auto_approve, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`

	var id int64
	if err := r.db.QueryRowContext(ctx, query,
		e.OrganizationID, e.CreatedBy, e.Title, e.Description, e.Location,
		e.StartTime, e.EndTime, e.RegistrationDeadline, e.Capacity,
		e.Visibility, e.AutoApprove, e.Status,
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to insert event: %w", err)
	}
	return id, nil
}

func (r *repository) GetEventByID(ctx context.Context, id int64) (*model.Event, error) {
	query := `SELECT` + eventColumns + `
		FROM events WHERE id = $1 AND is_active = TRUE`
	row := r.db.QueryRowContext(ctx, query, id)

	var e model.Event
	if err := scanEvent(row, &e); err != nil {
		return nil, ErrEventNotFound
	}
	return &e, nil
}

// GetVisibleEvents lists published events the viewer may see: every inter
// event, plus intra events of organizations the viewer belongs to or owns
// events in. Admins (all=true) see everything, drafts included.
func (r *repository) GetVisibleEvents(ctx context.Context, viewerID int64, all bool) ([]model.Event, error) {
	query := `SELECT` + eventColumns + `
		FROM events e
		WHERE e.is_active = TRUE
		  AND (e.status = 'published'
		       OR e.created_by = $1)
		  AND (e.visibility = 'inter'
		       OR e.created_by = $1
		       OR e.organization_id IN (
		             SELECT organization_id FROM org_memberships
		             WHERE user_id = $1 AND status = 'member'))
		ORDER BY e.start_time ASC
	`
	args := []any{viewerID}
	if all {
		query = `SELECT` + eventColumns + `
			FROM events e
			WHERE e.is_active = TRUE
			ORDER BY e.start_time ASC
		`
		args = nil
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := scanEvent(rows, &e); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}

	return events, rows.Err()
}

func (r *repository) UpdateEvent(ctx context.Context, e *model.Event) error {
	query := `
		UPDATE events
		SET title = $1, description = $2, location = $3, start_time = $4,
		    end_time = $5, registration_deadline = $6, capacity = $7,
		    status = $8, updated_at = NOW()
		WHERE id = $9 AND is_active = TRUE
		RETURNING id
	`

	var id int64
	if err := r.db.QueryRowContext(ctx, query,
		e.Title, e.Description, e.Location, e.StartTime,
		e.EndTime, e.RegistrationDeadline, e.Capacity,
		e.Status, e.ID,
	).Scan(&id); err != nil {
		return ErrEventNotFound
	}
	return nil
}

func (r *repository) CancelEvent(ctx context.Context, id int64) error {
	query := `
		UPDATE events
		SET status = 'cancelled', is_active = FALSE, updated_at = NOW()
		WHERE id = $1 AND is_active = TRUE
		RETURNING id
	`

	var got int64
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&got); err != nil {
		return ErrEventNotFound
	}
	return nil
}

func (r *repository) CountActiveRegistrations(ctx context.Context, eventID int64) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM registrations
		WHERE event_id = $1 AND status IN ` + activeRegistrationStatuses

	var count int
	if err := r.db.QueryRowContext(ctx, query, eventID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count registrations: %w", err)
	}

	return count, nil
}

func scanEvent(row rowScanner, e *model.Event) error {
	return row.Scan(
		&e.ID,
		&e.OrganizationID,
		&e.CreatedBy,
		&e.Title,
		&e.Description,
		&e.Location,
		&e.StartTime,
		&e.EndTime,
		&e.RegistrationDeadline,
		&e.Capacity,
		&e.Visibility,
		&e.AutoApprove,
		&e.Status,
		&e.IsActive,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
}
