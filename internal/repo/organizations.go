package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"skillsphere/internal/model"
)

const membershipColumns = `id, organization_id, user_id, status, created_at, updated_at`

// CreateOrganizationTx inserts the organization and its owner's membership
// row in one transaction, so an organization never exists without a member.
func (r *repository) CreateOrganizationTx(ctx context.Context, o *model.Organization) (int64, error) {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	var exists bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM organizations WHERE name = $1 AND is_active = TRUE)`,
		o.Name,
	).Scan(&exists)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("failed to check organization name: %w", err)
	}
	if exists {
		_ = tx.Rollback()
		return 0, ErrOrgNameTaken
	}

	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO organizations (name, description, logo_url, owner_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, o.Name, o.Description, o.LogoURL, o.OwnerID).Scan(&id)
	if err != nil {
		_ = tx.Rollback()
		// a concurrent create can slip past the EXISTS check; the unique
		// index on active names is the backstop
		if isUniqueViolation(err) {
			return 0, ErrOrgNameTaken
		}
		return 0, fmt.Errorf("failed to insert organization: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO org_memberships (organization_id, user_id, status)
		VALUES ($1, $2, 'member')
	`, id, o.OwnerID); err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("failed to insert owner membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return id, nil
}

func (r *repository) GetOrganizationByID(ctx context.Context, id int64) (*model.Organization, error) {
	query := `
		SELECT id, name, description, logo_url, owner_id, is_active,
		       created_at, updated_at
		FROM organizations WHERE id = $1 AND is_active = TRUE
	`
	row := r.db.QueryRowContext(ctx, query, id)

	var o model.Organization
	if err := scanOrganization(row, &o); err != nil {
		return nil, ErrOrgNotFound
	}
	return &o, nil
}

func (r *repository) GetAllOrganizations(ctx context.Context) ([]model.Organization, error) {
	query := `
		SELECT id, name, description, logo_url, owner_id, is_active,
		       created_at, updated_at
		FROM organizations
		WHERE is_active = TRUE
		ORDER BY name ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get organizations: %w", err)
	}
	defer rows.Close()

	var orgs []model.Organization
	for rows.Next() {
		var o model.Organization
		if err := scanOrganization(rows, &o); err != nil {
			return nil, fmt.Errorf("failed to scan organization: %w", err)
		}
		orgs = append(orgs, o)
	}

	return orgs, rows.Err()
}

func (r *repository) UpdateOrganization(ctx context.Context, o *model.Organization) error {
	query := `
		UPDATE organizations
		SET name = $1, description = $2, logo_url = $3, updated_at = NOW()
		WHERE id = $4 AND is_active = TRUE
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		o.Name, o.Description, o.LogoURL, o.ID,
	).Scan(&id)
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		return ErrOrgNameTaken
	case errors.Is(err, sql.ErrNoRows):
		return ErrOrgNotFound
	default:
		return fmt.Errorf("failed to update organization: %w", err)
	}
}

func (r *repository) DeactivateOrganization(ctx context.Context, id int64) error {
	query := `
		UPDATE organizations
		SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1 AND is_active = TRUE
		RETURNING id
	`

	var got int64
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&got); err != nil {
		return ErrOrgNotFound
	}
	return nil
}

// CreateJoinRequestTx files a membership request. A rejected row is revived
// back to pending; a pending or member row is a conflict.
func (r *repository) CreateJoinRequestTx(ctx context.Context, orgID, userID int64) (*model.Membership, error) {
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

	var orgExists bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM organizations WHERE id = $1 AND is_active = TRUE)`,
		orgID,
	).Scan(&orgExists)
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("failed to check organization: %w", err)
	}
	if !orgExists {
		_ = tx.Rollback()
		return nil, ErrOrgNotFound
	}

	var existingID int64
	var existingStatus string
	err = tx.QueryRowContext(ctx, `
		SELECT id, status
		FROM org_memberships
		WHERE organization_id = $1 AND user_id = $2
		FOR UPDATE
	`, orgID, userID).Scan(&existingID, &existingStatus)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		_ = tx.Rollback()
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}

	m := &model.Membership{
		OrganizationID: orgID,
		UserID:         userID,
		Status:         model.MembershipStatusPending,
	}

	if err == nil {
		switch existingStatus {
		case model.MembershipStatusMember:
			_ = tx.Rollback()
			return nil, ErrAlreadyMember
		case model.MembershipStatusPending:
			_ = tx.Rollback()
			return nil, ErrDuplicateRequest
		}
		err = tx.QueryRowContext(ctx, `
			UPDATE org_memberships
			SET status = 'pending', updated_at = NOW()
			WHERE id = $1
			RETURNING id, created_at, updated_at
		`, existingID).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	} else {
		err = tx.QueryRowContext(ctx, `
			INSERT INTO org_memberships (organization_id, user_id, status)
			VALUES ($1, $2, 'pending')
			RETURNING id, created_at, updated_at
		`, orgID, userID).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	}
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("failed to create join request: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return m, nil
}

// DecideJoinRequestTx applies an owner decision to a pending join request.
// A request that is no longer pending reports ErrRequestNotFound, so a
// second approval of the same request fails cleanly.
func (r *repository) DecideJoinRequestTx(ctx context.Context, orgID, userID int64, approve bool) (*model.Membership, error) {
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

	var m model.Membership
	err = tx.QueryRowContext(ctx, `
		SELECT `+membershipColumns+`
		FROM org_memberships
		WHERE organization_id = $1 AND user_id = $2 AND status = 'pending'
		FOR UPDATE
	`, orgID, userID).Scan(&m.ID, &m.OrganizationID, &m.UserID, &m.Status,
		&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		_ = tx.Rollback()
		return nil, ErrRequestNotFound
	}

	newStatus := model.MembershipStatusRejected
	if approve {
		newStatus = model.MembershipStatusMember
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE org_memberships
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`, newStatus, m.ID); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("failed to update membership status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	m.Status = newStatus
	return &m, nil
}

// RemoveMemberTx deletes the membership row outright, so the user can apply
// again later without tripping the unique index.
func (r *repository) RemoveMemberTx(ctx context.Context, orgID, userID int64) error {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	var id int64
	err = tx.QueryRowContext(ctx, `
		SELECT id
		FROM org_memberships
		WHERE organization_id = $1 AND user_id = $2 AND status = 'member'
		FOR UPDATE
	`, orgID, userID).Scan(&id)
	if err != nil {
		_ = tx.Rollback()
		return ErrNotMember
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM org_memberships WHERE id = $1
	`, id); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to remove member: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *repository) GetMembership(ctx context.Context, orgID, userID int64) (*model.Membership, error) {
	query := `
		SELECT ` + membershipColumns + `
		FROM org_memberships
		WHERE organization_id = $1 AND user_id = $2
	`
	row := r.db.QueryRowContext(ctx, query, orgID, userID)

	var m model.Membership
	if err := row.Scan(&m.ID, &m.OrganizationID, &m.UserID, &m.Status,
		&m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, ErrRequestNotFound
	}
	return &m, nil
}

func (r *repository) GetMembershipsByOrgID(ctx context.Context, orgID int64) ([]model.Membership, error) {
	query := `
		SELECT ` + membershipColumns + `
		FROM org_memberships
		WHERE organization_id = $1 AND status != 'rejected'
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to get memberships: %w", err)
	}
	defer rows.Close()

	var members []model.Membership
	for rows.Next() {
		var m model.Membership
		if err := rows.Scan(&m.ID, &m.OrganizationID, &m.UserID, &m.Status,
			&m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		members = append(members, m)
	}

	return members, rows.Err()
}

func (r *repository) GetMembershipsByUserID(ctx context.Context, userID int64) ([]model.Membership, error) {
	query := `
		SELECT ` + membershipColumns + `
		FROM org_memberships
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get memberships: %w", err)
	}
	defer rows.Close()

	var members []model.Membership
	for rows.Next() {
		var m model.Membership
		if err := rows.Scan(&m.ID, &m.OrganizationID, &m.UserID, &m.Status,
			&m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		members = append(members, m)
	}

	return members, rows.Err()
}

func (r *repository) IsMember(ctx context.Context, orgID, userID int64) (bool, error) {
	var member bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM org_memberships
			WHERE organization_id = $1 AND user_id = $2 AND status = 'member'
		)
	`, orgID, userID).Scan(&member)
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return member, nil
}

func scanOrganization(row rowScanner, o *model.Organization) error {
	return row.Scan(
		&o.ID,
		&o.Name,
		&o.Description,
		&o.LogoURL,
		&o.OwnerID,
		&o.IsActive,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
}
