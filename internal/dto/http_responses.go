package dto

import (
	"time"

	"github.com/wb-go/wbf/ginext"
)

const (
	FieldBadFormat     = "FIELD_BADFORMAT"
	FieldIncorrect     = "FIELD_INCORRECT"
	ServiceUnavailable = "SERVICE_UNAVAILABLE"
	InternalError      = "Service is currently unavailable. Please try again later."

	Unauthorized = "UNAUTHORIZED"
	Forbidden    = "FORBIDDEN"

	UserNotFound  = "USER_NOT_FOUND"
	EmailTaken    = "EMAIL_TAKEN"
	WrongPassword = "WRONG_CREDENTIALS"

	EventNotFound  = "EVENT_NOT_FOUND"
	EventNotOpen   = "EVENT_NOT_OPEN"
	EventFull      = "EVENT_FULL"
	DeadlinePassed = "DEADLINE_PASSED"

	RegistrationNotFound  = "REGISTRATION_NOT_FOUND"
	RegistrationDuplicate = "REGISTRATION_DUPLICATE"

	OrgNotFound      = "ORG_NOT_FOUND"
	OrgNameTaken     = "ORG_NAME_TAKEN"
	AlreadyMember    = "ALREADY_MEMBER"
	NotMember        = "NOT_A_MEMBER"
	RequestDuplicate = "REQUEST_DUPLICATE"
	RequestNotFound  = "REQUEST_NOT_FOUND"
)

type RegisterUserRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"required,oneof=student organizer"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateUserRequest struct {
	Name      string `json:"name" validate:"omitempty,min=2,max=255"`
	Bio       string `json:"bio" validate:"omitempty,max=2000"`
	ResumeURL string `json:"resume_url" validate:"omitempty,url"`
}

type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

type UserResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Bio       string    `json:"bio,omitempty"`
	ResumeURL string    `json:"resume_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type ProfileResponse struct {
	UserResponse
	Registrations []RegistrationResponse `json:"registrations"`
	Memberships   []MembershipResponse   `json:"memberships"`
}

type CreateEventRequest struct {
	OrganizationID       int64     `json:"organization_id" validate:"required,gt=0"`
	Title                string    `json:"title" validate:"required,min=3,max=255"`
	Description          string    `json:"description"`
	Location             string    `json:"location"`
	StartTime            time.Time `json:"start_time" validate:"required,future"`
	EndTime              time.Time `json:"end_time"`
	RegistrationDeadline time.Time `json:"registration_deadline" validate:"required,future"`
	Capacity             int       `json:"capacity" validate:"required,gt=0"`
	Visibility           string    `json:"visibility" validate:"required,oneof=inter intra"`
	AutoApprove          bool      `json:"auto_approve"`
	Status               string    `json:"status" validate:"omitempty,oneof=draft published"`
}

type UpdateEventRequest struct {
	Title                string     `json:"title" validate:"omitempty,min=3,max=255"`
	Description          *string    `json:"description"`
	Location             *string    `json:"location"`
	StartTime            *time.Time `json:"start_time"`
	EndTime              *time.Time `json:"end_time"`
	RegistrationDeadline *time.Time `json:"registration_deadline"`
	Capacity             int        `json:"capacity" validate:"omitempty,gt=0"`
	Status               string     `json:"status" validate:"omitempty,oneof=draft published cancelled completed"`
}

type EventResponse struct {
	ID                   int64     `json:"id"`
	OrganizationID       int64     `json:"organization_id"`
	Title                string    `json:"title"`
	Description          string    `json:"description"`
	Location             string    `json:"location"`
	StartTime            time.Time `json:"start_time"`
	EndTime              time.Time `json:"end_time"`
	RegistrationDeadline time.Time `json:"registration_deadline"`
	Capacity             int       `json:"capacity"`
	Visibility           string    `json:"visibility"`
	AutoApprove          bool      `json:"auto_approve"`
	Status               string    `json:"status"`
	CreatedAt            time.Time `json:"created_at"`
}

type EventInfoResponse struct {
	EventResponse
	AvailableSeats int                    `json:"available_seats"`
	UpdatedAt      time.Time              `json:"updated_at"`
	Registrations  []RegistrationResponse `json:"registrations,omitempty"`
}

type RegistrationResponse struct {
	ID         int64     `json:"id"`
	EventID    int64     `json:"event_id"`
	UserID     int64     `json:"user_id"`
	UserName   string    `json:"user_name,omitempty"`
	EventTitle string    `json:"event_title,omitempty"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// DecideRequest carries an organizer decision on a pending registration
// or join request.
type DecideRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
}

type CreateOrganizationRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=255"`
	Description string `json:"description"`
	LogoURL     string `json:"logo_url" validate:"omitempty,url"`
}

type UpdateOrganizationRequest struct {
	Name        string  `json:"name" validate:"omitempty,min=2,max=255"`
	Description *string `json:"description"`
	LogoURL     *string `json:"logo_url"`
}

type OrganizationResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	LogoURL     string    `json:"logo_url"`
	OwnerID     int64     `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type OrganizationInfoResponse struct {
	OrganizationResponse
	Members         []MembershipResponse `json:"members,omitempty"`
	PendingRequests []MembershipResponse `json:"pending_requests,omitempty"`
}

type MembershipResponse struct {
	ID             int64     `json:"id"`
	OrganizationID int64     `json:"organization_id"`
	UserID         int64     `json:"user_id"`
	UserName       string    `json:"user_name,omitempty"`
	OrgName        string    `json:"org_name,omitempty"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

// RegistrationExpireMessage is published to the delayed exchange when a
// registration is created pending organizer approval; the consumer expires
// it if it is still pending once the registration deadline has passed.
type RegistrationExpireMessage struct {
	RegistrationID int64     `json:"registration_id"`
	EventID        int64     `json:"event_id"`
	ExpireAt       time.Time `json:"expire_at"`
}

type Response struct {
	Status string `json:"status"`
	Error  *Error `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

type Error struct {
	Code string `json:"code"`
	Desc string `json:"desc"`
}

func BadResponseError(c *ginext.Context, code, desc string) {
	c.JSON(400, Response{
		Status: "error",
		Error: &Error{
			Code: code,
			Desc: desc,
		},
	})
}

func UnauthorizedError(c *ginext.Context, desc string) {
	c.JSON(401, Response{
		Status: "error",
		Error: &Error{
			Code: Unauthorized,
			Desc: desc,
		},
	})
}

func ForbiddenError(c *ginext.Context, desc string) {
	c.JSON(403, Response{
		Status: "error",
		Error: &Error{
			Code: Forbidden,
			Desc: desc,
		},
	})
}

func NotFoundError(c *ginext.Context, code, desc string) {
	c.JSON(404, Response{
		Status: "error",
		Error: &Error{
			Code: code,
			Desc: desc,
		},
	})
}

func InternalServerError(c *ginext.Context) {
	c.JSON(500, Response{
		Status: "error",
		Error: &Error{
			Code: ServiceUnavailable,
			Desc: InternalError,
		},
	})
}

func FieldBadFormatError(c *ginext.Context, fieldName string) {
	BadResponseError(c, FieldBadFormat, "Field '"+fieldName+"' has bad format")
}

func FieldIncorrectError(c *ginext.Context, fieldName string) {
	BadResponseError(c, FieldIncorrect, "Field '"+fieldName+"' is incorrect")
}

func EventNotFoundError(c *ginext.Context) {
	NotFoundError(c, EventNotFound, "Event not found")
}

func OrgNotFoundError(c *ginext.Context) {
	NotFoundError(c, OrgNotFound, "Organization not found")
}

func UserNotFoundError(c *ginext.Context) {
	NotFoundError(c, UserNotFound, "User not found")
}

func RegistrationNotFoundError(c *ginext.Context) {
	NotFoundError(c, RegistrationNotFound, "Registration not found")
}

func RegistrationDuplicateError(c *ginext.Context) {
	BadResponseError(c, RegistrationDuplicate, "You have already registered for this event")
}

func SuccessResponse(c *ginext.Context, data any) {
	c.JSON(200, Response{
		Status: "ok",
		Data:   data,
	})
}

func SuccessCreatedResponse(c *ginext.Context, data any) {
	c.JSON(201, Response{
		Status: "ok",
		Data:   data,
	})
}
