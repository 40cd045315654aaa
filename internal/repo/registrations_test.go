package repo

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/dbpg"

	"skillsphere/internal/model"
)

func newMockRepo(t *testing.T) (*repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := zerolog.Nop()
	return &repository{db: &dbpg.DB{Master: db}, log: &logger}, mock
}

func expectEventLock(mock sqlmock.Sqlmock, eventID int64, capacity int, deadline time.Time, visibility string, autoApprove bool, status string) {
	rows := sqlmock.NewRows([]string{
		"id", "organization_id", "capacity", "registration_deadline",
		"visibility", "auto_approve", "status",
	}).AddRow(eventID, int64(7), capacity, deadline, visibility, autoApprove, status)
	mock.ExpectQuery("SELECT id, organization_id, capacity, registration_deadline").
		WithArgs(eventID).
		WillReturnRows(rows)
}

func TestRegisterForEventTx_EventNotFound(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, organization_id, capacity, registration_deadline").
		WithArgs(int64(1)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := r.RegisterForEventTx(context.Background(), 1, 10, time.Now())

	assert.ErrorIs(t, err, ErrEventNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterForEventTx_NotPublished(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectBegin()
	expectEventLock(mock, 1, 10, time.Now().Add(time.Hour), model.EventVisibilityInter, true, model.EventStatusDraft)
	mock.ExpectRollback()

	_, err := r.RegisterForEventTx(context.Background(), 1, 10, time.Now())

	assert.ErrorIs(t, err, ErrEventNotOpen)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterForEventTx_DeadlinePassed(t *testing.T) {
	r, mock := newMockRepo(t)

	// plenty of free seats, the deadline gate must still reject
	mock.ExpectBegin()
	expectEventLock(mock, 1, 100, time.Now().Add(-time.Minute), model.EventVisibilityInter, true, model.EventStatusPublished)
	mock.ExpectRollback()

	_, err := r.RegisterForEventTx(context.Background(), 1, 10, time.Now())

	assert.ErrorIs(t, err, ErrDeadlinePassed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterForEventTx_Full(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectBegin()
	expectEventLock(mock, 1, 1, time.Now().Add(time.Hour), model.EventVisibilityInter, true, model.EventStatusPublished)
	mock.ExpectQuery("SELECT id, status").
		WithArgs(int64(1), int64(10)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	_, err := r.RegisterForEventTx(context.Background(), 1, 10, time.Now())

	assert.ErrorIs(t, err, ErrEventFull)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterForEventTx_Duplicate(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectBegin()
	expectEventLock(mock, 1, 10, time.Now().Add(time.Hour), model.EventVisibilityInter, true, model.EventStatusPublished)
	mock.ExpectQuery("SELECT id, status").
		WithArgs(int64(1), int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).
			AddRow(int64(5), model.RegistrationStatusRegistered))
	mock.ExpectRollback()

	_, err := r.RegisterForEventTx(context.Background(), 1, 10, time.Now())

	assert.ErrorIs(t, err, ErrDuplicateRegistration)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterForEventTx_AutoApprove(t *testing.T) {
	r, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectBegin()
	expectEventLock(mock, 1, 10, now.Add(time.Hour), model.EventVisibilityInter, true, model.EventStatusPublished)
	mock.ExpectQuery("SELECT id, status").
		WithArgs(int64(1), int64(10)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery("INSERT INTO registrations").
		WithArgs(int64(1), int64(10), model.RegistrationStatusRegistered).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(int64(42), now, now))
	mock.ExpectCommit()

	reg, err := r.RegisterForEventTx(context.Background(), 1, 10, now)

	require.NoError(t, err)
	assert.Equal(t, int64(42), reg.ID)
	assert.Equal(t, model.RegistrationStatusRegistered, reg.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterForEventTx_ManualApprovalPending(t *testing.T) {
	r, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectBegin()
	expectEventLock(mock, 1, 10, now.Add(time.Hour), model.EventVisibilityInter, false, model.EventStatusPublished)
	mock.ExpectQuery("SELECT id, status").
		WithArgs(int64(1), int64(10)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("INSERT INTO registrations").
		WithArgs(int64(1), int64(10), model.RegistrationStatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(int64(43), now, now))
	mock.ExpectCommit()

	reg, err := r.RegisterForEventTx(context.Background(), 1, 10, now)

	require.NoError(t, err)
	assert.Equal(t, model.RegistrationStatusPending, reg.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterForEventTx_RevivesCancelledRow(t *testing.T) {
	r, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectBegin()
	expectEventLock(mock, 1, 10, now.Add(time.Hour), model.EventVisibilityInter, true, model.EventStatusPublished)
	mock.ExpectQuery("SELECT id, status").
		WithArgs(int64(1), int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).
			AddRow(int64(5), model.RegistrationStatusCancelled))
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("UPDATE registrations").
		WithArgs(model.RegistrationStatusRegistered, int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(int64(5), now, now))
	mock.ExpectCommit()

	reg, err := r.RegisterForEventTx(context.Background(), 1, 10, now)

	require.NoError(t, err)
	assert.Equal(t, int64(5), reg.ID)
	assert.Equal(t, model.RegistrationStatusRegistered, reg.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterForEventTx_IntraRequiresMembership(t *testing.T) {
	r, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectBegin()
	expectEventLock(mock, 1, 10, now.Add(time.Hour), model.EventVisibilityIntra, true, model.EventStatusPublished)
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(7), int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	_, err := r.RegisterForEventTx(context.Background(), 1, 10, now)

	assert.ErrorIs(t, err, ErrNotMember)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelRegistrationTx(t *testing.T) {
	r, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, event_id, user_id, status").
		WithArgs(int64(1), int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "user_id", "status", "created_at", "updated_at"}).
			AddRow(int64(5), int64(1), int64(10), model.RegistrationStatusRegistered, now, now))
	mock.ExpectExec("UPDATE registrations").
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	reg, err := r.CancelRegistrationTx(context.Background(), 1, 10)

	require.NoError(t, err)
	assert.Equal(t, model.RegistrationStatusCancelled, reg.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelRegistrationTx_AlreadyCancelled(t *testing.T) {
	r, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, event_id, user_id, status").
		WithArgs(int64(1), int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "user_id", "status", "created_at", "updated_at"}).
			AddRow(int64(5), int64(1), int64(10), model.RegistrationStatusCancelled, now, now))
	mock.ExpectRollback()

	_, err := r.CancelRegistrationTx(context.Background(), 1, 10)

	assert.ErrorIs(t, err, ErrRegistrationNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecideRegistrationTx_ApproveFull(t *testing.T) {
	r, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT capacity FROM events").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"capacity"}).AddRow(2))
	mock.ExpectQuery("SELECT id, event_id, user_id, status").
		WithArgs(int64(5), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "user_id", "status", "created_at", "updated_at"}).
			AddRow(int64(5), int64(1), int64(10), model.RegistrationStatusPending, now, now))
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectRollback()

	_, err := r.DecideRegistrationTx(context.Background(), 1, 5, true)

	assert.ErrorIs(t, err, ErrEventFull)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecideRegistrationTx_NotPending(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT capacity FROM events").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"capacity"}).AddRow(10))
	mock.ExpectQuery("SELECT id, event_id, user_id, status").
		WithArgs(int64(5), int64(1)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := r.DecideRegistrationTx(context.Background(), 1, 5, true)

	assert.ErrorIs(t, err, ErrRegistrationNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExpireIfPendingTx(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(model.RegistrationStatusPending))
	mock.ExpectExec("UPDATE registrations").
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	expired, err := r.ExpireIfPendingTx(context.Background(), 5)

	require.NoError(t, err)
	assert.True(t, expired)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExpireIfPendingTx_AlreadyDecided(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(model.RegistrationStatusRegistered))
	mock.ExpectRollback()

	expired, err := r.ExpireIfPendingTx(context.Background(), 5)

	require.NoError(t, err)
	assert.False(t, expired)
	assert.NoError(t, mock.ExpectationsWereMet())
}
