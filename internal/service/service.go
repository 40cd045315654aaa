package service

import (
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"

	"skillsphere/internal/dto"
	"skillsphere/internal/model"
	"skillsphere/internal/repo"
	"skillsphere/pkg/auth"
)

// Publisher posts messages to the delayed notification exchange.
type Publisher interface {
	Publish(message []byte, delaySeconds int) error
}

// Notifier delivers best-effort user notifications.
type Notifier interface {
	SendRegistrationEmail(eventTitle, status, recipientEmail string) error
	SendMembershipEmail(orgName, status, recipientEmail string) error
}

type Service interface {
	RegisterUser(ctx *ginext.Context)
	Login(ctx *ginext.Context)

	GetMe(ctx *ginext.Context)
	GetAllUsers(ctx *ginext.Context)
	UpdateUser(ctx *ginext.Context)
	DeleteUser(ctx *ginext.Context)

	CreateEvent(ctx *ginext.Context)
	GetAllEvents(ctx *ginext.Context)
	GetEvent(ctx *ginext.Context)
	UpdateEvent(ctx *ginext.Context)
	DeleteEvent(ctx *ginext.Context)

	RegisterForEvent(ctx *ginext.Context)
	CancelRegistration(ctx *ginext.Context)
	GetEventRegistrations(ctx *ginext.Context)
	DecideRegistration(ctx *ginext.Context)
	MarkAttendance(ctx *ginext.Context)

	CreateOrganization(ctx *ginext.Context)
	GetAllOrganizations(ctx *ginext.Context)
	GetOrganization(ctx *ginext.Context)
	UpdateOrganization(ctx *ginext.Context)
	DeleteOrganization(ctx *ginext.Context)
	JoinOrganization(ctx *ginext.Context)
	DecideJoinRequest(ctx *ginext.Context)
	RemoveMember(ctx *ginext.Context)
}

type service struct {
	repo   repo.Repository
	log    *zerolog.Logger
	rbt    Publisher
	mail   Notifier
	tokens *auth.Service
}

func NewService(repo repo.Repository, logger *zerolog.Logger, rbt Publisher, mail Notifier, tokens *auth.Service) Service {
	return &service{
		repo:   repo,
		log:    logger,
		rbt:    rbt,
		mail:   mail,
		tokens: tokens,
	}
}

// identity returns the user id and role resolved by the auth middleware.
// Both are zero values on routes served without a bearer token.
func identity(ctx *ginext.Context) (int64, string) {
	return ctx.GetInt64("user_id"), ctx.GetString("user_role")
}

// canManageEvent reports whether the caller may mutate the given event:
// admins always, organizers only for events they created or events of
// organizations they own.
func (s *service) canManageEvent(ctx *ginext.Context, e *model.Event) bool {
	userID, role := identity(ctx)
	if role == model.RoleAdmin {
		return true
	}
	if role != model.RoleOrganizer {
		return false
	}
	if e.CreatedBy == userID {
		return true
	}
	org, err := s.repo.GetOrganizationByID(ctx.Request.Context(), e.OrganizationID)
	if err != nil {
		return false
	}
	return org.OwnerID == userID
}

// canManageOrg reports whether the caller owns the organization or is admin.
func canManageOrg(ctx *ginext.Context, o *model.Organization) bool {
	userID, role := identity(ctx)
	return role == model.RoleAdmin || o.OwnerID == userID
}

func userResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		Bio:       u.Bio,
		ResumeURL: u.ResumeURL,
		CreatedAt: u.CreatedAt,
	}
}

func eventResponse(e *model.Event) dto.EventResponse {
	return dto.EventResponse{
		ID:                   e.ID,
		OrganizationID:       e.OrganizationID,
		Title:                e.Title,
		Description:          e.Description,
		Location:             e.Location,
		StartTime:            e.StartTime,
		EndTime:              e.EndTime,
		RegistrationDeadline: e.RegistrationDeadline,
		Capacity:             e.Capacity,
		Visibility:           e.Visibility,
		AutoApprove:          e.AutoApprove,
		Status:               e.Status,
		CreatedAt:            e.CreatedAt,
	}
}

func registrationResponse(r *model.Registration) dto.RegistrationResponse {
	return dto.RegistrationResponse{
		ID:        r.ID,
		EventID:   r.EventID,
		UserID:    r.UserID,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func membershipResponse(m *model.Membership) dto.MembershipResponse {
	return dto.MembershipResponse{
		ID:             m.ID,
		OrganizationID: m.OrganizationID,
		UserID:         m.UserID,
		Status:         m.Status,
		CreatedAt:      m.CreatedAt,
	}
}

func organizationResponse(o *model.Organization) dto.OrganizationResponse {
	return dto.OrganizationResponse{
		ID:          o.ID,
		Name:        o.Name,
		Description: o.Description,
		LogoURL:     o.LogoURL,
		OwnerID:     o.OwnerID,
		CreatedAt:   o.CreatedAt,
	}
}
