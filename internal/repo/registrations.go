package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"skillsphere/internal/model"
)

const registrationColumns = `id, event_id, user_id, status, created_at, updated_at`

// RegisterForEventTx runs the whole registration gate chain in one
// transaction. The event row is locked first, so concurrent attempts at the
// last seat serialize and exactly one succeeds.
func (r *repository) RegisterForEventTx(ctx context.Context, eventID, userID int64, now time.Time) (*model.Registration, error) {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	var event model.Event
	err = tx.QueryRowContext(ctx, `
		SELECT id, organization_id, capacity, registration_deadline, visibility,
		       auto_approve, status
		FROM events
		WHERE id = $1 AND is_active = TRUE
		FOR UPDATE
	`, eventID).Scan(&event.ID, &event.OrganizationID, &event.Capacity,
		&event.RegistrationDeadline, &event.Visibility, &event.AutoApprove,
		&event.Status)
	if err != nil {
		_ = tx.Rollback()
		return nil, ErrEventNotFound
	}

	if event.Status != model.EventStatusPublished {
		_ = tx.Rollback()
		return nil, ErrEventNotOpen
	}

	if now.After(event.RegistrationDeadline) {
		_ = tx.Rollback()
		return nil, ErrDeadlinePassed
	}

	if event.Visibility == model.EventVisibilityIntra {
		var member bool
		err = tx.QueryRowContext(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM org_memberships
				WHERE organization_id = $1 AND user_id = $2 AND status = 'member'
			)
		`, event.OrganizationID, userID).Scan(&member)
		if err != nil {
			_ = tx.Rollback()
			return nil, fmt.Errorf("failed to check membership: %w", err)
		}
		if !member {
			_ = tx.Rollback()
			return nil, ErrNotMember
		}
	}

	var existingID int64
	var existingStatus string
	err = tx.QueryRowContext(ctx, `
		SELECT id, status
		FROM registrations
		WHERE event_id = $1 AND user_id = $2
	`, eventID, userID).Scan(&existingID, &existingStatus)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		_ = tx.Rollback()
		return nil, fmt.Errorf("failed to check duplicate registration: %w", err)
	}
	if err == nil {
		switch existingStatus {
		case model.RegistrationStatusCancelled, model.RegistrationStatusRejected:
			// dormant row, may be revived below
		default:
			_ = tx.Rollback()
			return nil, ErrDuplicateRegistration
		}
	}

	var count int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM registrations
		WHERE event_id = $1 AND status IN `+activeRegistrationStatuses, eventID).Scan(&count)
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("failed to count registrations: %w", err)
	}
	if count >= event.Capacity {
		_ = tx.Rollback()
		return nil, ErrEventFull
	}

	status := model.RegistrationStatusPending
	if event.AutoApprove {
		status = model.RegistrationStatusRegistered
	}

	reg := &model.Registration{EventID: eventID, UserID: userID, Status: status}
	if existingID != 0 {
		err = tx.QueryRowContext(ctx, `
			UPDATE registrations
			SET status = $1, updated_at = NOW()
			WHERE id = $2
			RETURNING id, created_at, updated_at
		`, status, existingID).Scan(&reg.ID, &reg.CreatedAt, &reg.UpdatedAt)
	} else {
		err = tx.QueryRowContext(ctx, `
			INSERT INTO registrations (event_id, user_id, status)
			VALUES ($1, $2, $3)
			RETURNING id, created_at, updated_at
		`, eventID, userID, status).Scan(&reg.ID, &reg.CreatedAt, &reg.UpdatedAt)
	}
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("failed to create registration: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return reg, nil
}

// CancelRegistrationTx flips the caller's registration to cancelled. Seat
// usage is derived from the registration set, so nothing else to touch.
func (r *repository) CancelRegistrationTx(ctx context.Context, eventID, userID int64) (*model.Registration, error) {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	var reg model.Registration
	err = tx.QueryRowContext(ctx, `
		SELECT `+registrationColumns+`
		FROM registrations
		WHERE event_id = $1 AND user_id = $2
		FOR UPDATE
	`, eventID, userID).Scan(&reg.ID, &reg.EventID, &reg.UserID, &reg.Status,
		&reg.CreatedAt, &reg.UpdatedAt)
	if err != nil {
		_ = tx.Rollback()
		return nil, ErrRegistrationNotFound
	}

	switch reg.Status {
	case model.RegistrationStatusCancelled, model.RegistrationStatusRejected:
		_ = tx.Rollback()
		return nil, ErrRegistrationNotFound
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE registrations
		SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1
	`, reg.ID); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("failed to cancel registration: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit cancellation transaction: %w", err)
	}

	reg.Status = model.RegistrationStatusCancelled
	return &reg, nil
}

// DecideRegistrationTx applies an organizer decision to a pending
// registration. Approval re-checks capacity under the event lock, since
// auto-approved registrations may have filled the event in the meantime.
func (r *repository) DecideRegistrationTx(ctx context.Context, eventID, registrationID int64, approve bool) (*model.Registration, error) {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	var capacity int
	err = tx.QueryRowContext(ctx, `
		SELECT capacity FROM events
		WHERE id = $1 AND is_active = TRUE
		FOR UPDATE
	`, eventID).Scan(&capacity)
	if err != nil {
		_ = tx.Rollback()
		return nil, ErrEventNotFound
	}

	var reg model.Registration
	err = tx.QueryRowContext(ctx, `
		SELECT `+registrationColumns+`
		FROM registrations
		WHERE id = $1 AND event_id = $2 AND status = 'pending'
		FOR UPDATE
	`, registrationID, eventID).Scan(&reg.ID, &reg.EventID, &reg.UserID,
		&reg.Status, &reg.CreatedAt, &reg.UpdatedAt)
	if err != nil {
		_ = tx.Rollback()
		return nil, ErrRegistrationNotFound
	}

	newStatus := model.RegistrationStatusRejected
	if approve {
		var count int
		err = tx.QueryRowContext(ctx, `
			SELECT COUNT(*)
			FROM registrations
			WHERE event_id = $1 AND status IN ('registered', 'attended')
		`, eventID).Scan(&count)
		if err != nil {
			_ = tx.Rollback()
			return nil, fmt.Errorf("failed to count registrations: %w", err)
		}
		if count >= capacity {
			_ = tx.Rollback()
			return nil, ErrEventFull
		}
		newStatus = model.RegistrationStatusRegistered
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE registrations
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`, newStatus, reg.ID); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("failed to update registration status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	reg.Status = newStatus
	return &reg, nil
}

func (r *repository) MarkAttendanceTx(ctx context.Context, eventID, registrationID int64) (*model.Registration, error) {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	var reg model.Registration
	err = tx.QueryRowContext(ctx, `
		SELECT `+registrationColumns+`
		FROM registrations
		WHERE id = $1 AND event_id = $2 AND status = 'registered'
		FOR UPDATE
	`, registrationID, eventID).Scan(&reg.ID, &reg.EventID, &reg.UserID,
		&reg.Status, &reg.CreatedAt, &reg.UpdatedAt)
	if err != nil {
		_ = tx.Rollback()
		return nil, ErrRegistrationNotFound
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE registrations
		SET status = 'attended', updated_at = NOW()
		WHERE id = $1
	`, reg.ID); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("failed to mark attendance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	reg.Status = model.RegistrationStatusAttended
	return &reg, nil
}

// ExpireIfPendingTx rejects a registration that is still awaiting organizer
// approval. Used by the consumer worker once the registration deadline has
// passed; returns false when the registration was already decided.
func (r *repository) ExpireIfPendingTx(ctx context.Context, registrationID int64) (bool, error) {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	var currentStatus string
	err = tx.QueryRowContext(ctx, `
		SELECT status
		FROM registrations
		WHERE id = $1
		FOR UPDATE
	`, registrationID).Scan(&currentStatus)
	if err != nil {
		_ = tx.Rollback()
		return false, fmt.Errorf("failed to select registration for expiry: %w", err)
	}

	if currentStatus != model.RegistrationStatusPending {
		_ = tx.Rollback()
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE registrations
		SET status = 'rejected', updated_at = NOW()
		WHERE id = $1
	`, registrationID); err != nil {
		_ = tx.Rollback()
		return false, fmt.Errorf("failed to expire registration: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit expiry transaction: %w", err)
	}

	return true, nil
}

func (r *repository) GetRegistrationByID(ctx context.Context, id int64) (*model.Registration, error) {
	query := `
		SELECT ` + registrationColumns + `
		FROM registrations
		WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, query, id)

	var reg model.Registration
	if err := row.Scan(
		&reg.ID,
		&reg.EventID,
		&reg.UserID,
		&reg.Status,
		&reg.CreatedAt,
		&reg.UpdatedAt,
	); err != nil {
		return nil, ErrRegistrationNotFound
	}

	return &reg, nil
}

func (r *repository) GetRegistrationsByEventID(ctx context.Context, eventID int64) ([]model.Registration, error) {
	query := `
		SELECT ` + registrationColumns + `
		FROM registrations
		WHERE event_id = $1 AND status != 'cancelled'
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get registrations: %w", err)
	}
	defer rows.Close()

	var regs []model.Registration
	for rows.Next() {
		var reg model.Registration
		if err := rows.Scan(
			&reg.ID,
			&reg.EventID,
			&reg.UserID,
			&reg.Status,
			&reg.CreatedAt,
			&reg.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan registration: %w", err)
		}
		regs = append(regs, reg)
	}

	return regs, rows.Err()
}

func (r *repository) GetRegistrationsByUserID(ctx context.Context, userID int64) ([]model.Registration, error) {
	query := `
		SELECT ` + registrationColumns + `
		FROM registrations
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get registrations: %w", err)
	}
	defer rows.Close()

	var regs []model.Registration
	for rows.Next() {
		var reg model.Registration
		if err := rows.Scan(
			&reg.ID,
			&reg.EventID,
			&reg.UserID,
			&reg.Status,
			&reg.CreatedAt,
			&reg.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan registration: %w", err)
		}
		regs = append(regs, reg)
	}

	return regs, rows.Err()
}
