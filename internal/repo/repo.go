package repo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/dbpg"

	"skillsphere/internal/model"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already taken")

	ErrEventNotFound  = errors.New("event not found")
	ErrEventNotOpen   = errors.New("event is not open for registration")
	ErrEventFull      = errors.New("event is full")
	ErrDeadlinePassed = errors.New("registration deadline passed")

	ErrDuplicateRegistration = errors.New("duplicate registration")
	ErrRegistrationNotFound  = errors.New("registration not found")

	ErrOrgNotFound      = errors.New("organization not found")
	ErrOrgNameTaken     = errors.New("organization name already taken")
	ErrAlreadyMember    = errors.New("already a member")
	ErrNotMember        = errors.New("not a member")
	ErrDuplicateRequest = errors.New("duplicate join request")
	ErrRequestNotFound  = errors.New("join request not found")
)

// Statuses that occupy a seat. Cancelled and rejected registrations do not
// count against event capacity.
const activeRegistrationStatuses = `('pending', 'registered', 'attended')`

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

type Repository interface {
	CreateUser(ctx context.Context, u *model.User) (int64, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetAllUsers(ctx context.Context) ([]model.User, error)
	UpdateUser(ctx context.Context, u *model.User) error
	DeactivateUser(ctx context.Context, id int64) error

	CreateEvent(ctx context.Context, e *model.Event) (int64, error)
	GetEventByID(ctx context.Context, id int64) (*model.Event, error)
	GetVisibleEvents(ctx context.Context, viewerID int64, all bool) ([]model.Event, error)
	UpdateEvent(ctx context.Context, e *model.Event) error
	CancelEvent(ctx context.Context, id int64) error

	RegisterForEventTx(ctx context.Context, eventID, userID int64, now time.Time) (*model.Registration, error)
	CancelRegistrationTx(ctx context.Context, eventID, userID int64) (*model.Registration, error)
	DecideRegistrationTx(ctx context.Context, eventID, registrationID int64, approve bool) (*model.Registration, error)
	MarkAttendanceTx(ctx context.Context, eventID, registrationID int64) (*model.Registration, error)
	ExpireIfPendingTx(ctx context.Context, registrationID int64) (bool, error)
	GetRegistrationByID(ctx context.Context, id int64) (*model.Registration, error)
	GetRegistrationsByEventID(ctx context.Context, eventID int64) ([]model.Registration, error)
	GetRegistrationsByUserID(ctx context.Context, userID int64) ([]model.Registration, error)
	CountActiveRegistrations(ctx context.Context, eventID int64) (int, error)

	CreateOrganizationTx(ctx context.Context, o *model.Organization) (int64, error)
	GetOrganizationByID(ctx context.Context, id int64) (*model.Organization, error)
	GetAllOrganizations(ctx context.Context) ([]model.Organization, error)
	UpdateOrganization(ctx context.Context, o *model.Organization) error
	DeactivateOrganization(ctx context.Context, id int64) error

	CreateJoinRequestTx(ctx context.Context, orgID, userID int64) (*model.Membership, error)
	DecideJoinRequestTx(ctx context.Context, orgID, userID int64, approve bool) (*model.Membership, error)
	RemoveMemberTx(ctx context.Context, orgID, userID int64) error
	GetMembership(ctx context.Context, orgID, userID int64) (*model.Membership, error)
	GetMembershipsByOrgID(ctx context.Context, orgID int64) ([]model.Membership, error)
	GetMembershipsByUserID(ctx context.Context, userID int64) ([]model.Membership, error)
	IsMember(ctx context.Context, orgID, userID int64) (bool, error)

	MigrateUp(migrationsDir string) error
	MigrateDown(migrationsDir string) error
}

type repository struct {
	db  *dbpg.DB
	log *zerolog.Logger
}

func NewRepository(db *dbpg.DB, log *zerolog.Logger) (Repository, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if err := db.Master.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}
	return &repository{db: db, log: log}, nil
}

func (r *repository) MigrateUp(migrationsDir string) error {
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.up.sql"))
	if err != nil {
		return fmt.Errorf("failed to read migration files: %w", err)
	}

	for _, file := range files {
		sqlBytes, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", file, err)
		}

		if _, err := r.db.ExecContext(context.Background(), string(sqlBytes)); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file, err)
		}
	}

	r.log.Info().Msgf("Migrations applied successfully from %s", migrationsDir)
	return nil
}

func (r *repository) MigrateDown(migrationsDir string) error {
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.down.sql"))
	if err != nil {
		return fmt.Errorf("failed to read rollback files: %w", err)
	}

	for _, file := range files {
		sqlBytes, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read rollback file %s: %w", file, err)
		}

		if _, err := r.db.ExecContext(context.Background(), string(sqlBytes)); err != nil {
			return fmt.Errorf("failed to rollback migration %s: %w", file, err)
		}
	}

	r.log.Info().Msgf("Migrations rolled back successfully from %s", migrationsDir)
	return nil
}
