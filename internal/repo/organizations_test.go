package repo

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillsphere/internal/model"
)

func TestCreateJoinRequestTx(t *testing.T) {
	r, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("SELECT id, status").
		WithArgs(int64(7), int64(10)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("INSERT INTO org_memberships").
		WithArgs(int64(7), int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(int64(3), now, now))
	mock.ExpectCommit()

	m, err := r.CreateJoinRequestTx(context.Background(), 7, 10)

	require.NoError(t, err)
	assert.Equal(t, model.MembershipStatusPending, m.Status)
	assert.Equal(t, int64(3), m.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateJoinRequestTx_AlreadyMember(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("SELECT id, status").
		WithArgs(int64(7), int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).
			AddRow(int64(3), model.MembershipStatusMember))
	mock.ExpectRollback()

	_, err := r.CreateJoinRequestTx(context.Background(), 7, 10)

	assert.ErrorIs(t, err, ErrAlreadyMember)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateJoinRequestTx_DuplicateRequest(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("SELECT id, status").
		WithArgs(int64(7), int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).
			AddRow(int64(3), model.MembershipStatusPending))
	mock.ExpectRollback()

	_, err := r.CreateJoinRequestTx(context.Background(), 7, 10)

	assert.ErrorIs(t, err, ErrDuplicateRequest)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateJoinRequestTx_OrgMissing(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	_, err := r.CreateJoinRequestTx(context.Background(), 7, 10)

	assert.ErrorIs(t, err, ErrOrgNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecideJoinRequestTx_Approve(t *testing.T) {
	r, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, organization_id, user_id, status").
		WithArgs(int64(7), int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "user_id", "status", "created_at", "updated_at"}).
			AddRow(int64(3), int64(7), int64(10), model.MembershipStatusPending, now, now))
	mock.ExpectExec("UPDATE org_memberships").
		WithArgs(model.MembershipStatusMember, int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	m, err := r.DecideJoinRequestTx(context.Background(), 7, 10, true)

	require.NoError(t, err)
	assert.Equal(t, model.MembershipStatusMember, m.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A request that was already approved is no longer pending; a second
// approval must report it as absent.
func TestDecideJoinRequestTx_AlreadyDecided(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, organization_id, user_id, status").
		WithArgs(int64(7), int64(10)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := r.DecideJoinRequestTx(context.Background(), 7, 10, true)

	assert.ErrorIs(t, err, ErrRequestNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveMemberTx(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id").
		WithArgs(int64(7), int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))
	mock.ExpectExec("DELETE FROM org_memberships").
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := r.RemoveMemberTx(context.Background(), 7, 10)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveMemberTx_NotMember(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id").
		WithArgs(int64(7), int64(10)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := r.RemoveMemberTx(context.Background(), 7, 10)

	assert.ErrorIs(t, err, ErrNotMember)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrganizationTx(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("Robotics Club").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery("INSERT INTO organizations").
		WithArgs("Robotics Club", "", "", int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectExec("INSERT INTO org_memberships").
		WithArgs(int64(7), int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	id, err := r.CreateOrganizationTx(context.Background(), &model.Organization{
		Name:    "Robotics Club",
		OwnerID: 10,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// The EXISTS probe is not serialized, so two concurrent creates of the same
// name can both pass it; the partial unique index on active names catches
// the loser at insert time.
func TestCreateOrganizationTx_NameRace(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("Robotics Club").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery("INSERT INTO organizations").
		WithArgs("Robotics Club", "", "", int64(10)).
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	_, err := r.CreateOrganizationTx(context.Background(), &model.Organization{
		Name:    "Robotics Club",
		OwnerID: 10,
	})

	assert.ErrorIs(t, err, ErrOrgNameTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateOrganization_NameTaken(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectQuery("UPDATE organizations").
		WithArgs("Chess Club", "", "", int64(7)).
		WillReturnError(&pq.Error{Code: "23505"})

	err := r.UpdateOrganization(context.Background(), &model.Organization{
		ID:   7,
		Name: "Chess Club",
	})

	assert.ErrorIs(t, err, ErrOrgNameTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateOrganization_Missing(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectQuery("UPDATE organizations").
		WithArgs("Chess Club", "", "", int64(7)).
		WillReturnError(sql.ErrNoRows)

	err := r.UpdateOrganization(context.Background(), &model.Organization{
		ID:   7,
		Name: "Chess Club",
	})

	assert.ErrorIs(t, err, ErrOrgNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrganizationTx_NameTaken(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("Robotics Club").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, err := r.CreateOrganizationTx(context.Background(), &model.Organization{
		Name:    "Robotics Club",
		OwnerID: 10,
	})

	assert.ErrorIs(t, err, ErrOrgNameTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}
