package model

import "time"

const (
	RoleStudent   = "student"
	RoleOrganizer = "organizer"
	RoleAdmin     = "admin"
)

const (
	EventVisibilityInter = "inter"
	EventVisibilityIntra = "intra"
)

const (
	EventStatusDraft     = "draft"
	EventStatusPublished = "published"
	EventStatusCancelled = "cancelled"
	EventStatusCompleted = "completed"
)

const (
	RegistrationStatusPending    = "pending"
	RegistrationStatusRegistered = "registered"
	RegistrationStatusRejected   = "rejected"
	RegistrationStatusAttended   = "attended"
	RegistrationStatusCancelled  = "cancelled"
)

const (
	MembershipStatusPending  = "pending"
	MembershipStatusMember   = "member"
	MembershipStatusRejected = "rejected"
)

type User struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	Bio          string    `db:"bio,omitempty" json:"bio,omitempty"`
	ResumeURL    string    `db:"resume_url,omitempty" json:"resume_url,omitempty"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

type Organization struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description,omitempty" json:"description,omitempty"`
	LogoURL     string    `db:"logo_url,omitempty" json:"logo_url,omitempty"`
	OwnerID     int64     `db:"owner_id" json:"owner_id"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

type Event struct {
	ID                   int64     `db:"id" json:"id"`
	OrganizationID       int64     `db:"organization_id" json:"organization_id"`
	CreatedBy            int64     `db:"created_by" json:"created_by"`
	Title                string    `db:"title" json:"title"`
	Description          string    `db:"description,omitempty" json:"description,omitempty"`
	Location             string    `db:"location,omitempty" json:"location,omitempty"`
	StartTime            time.Time `db:"start_time" json:"start_time"`
	EndTime              time.Time `db:"end_time,omitempty" json:"end_time,omitempty"`
	RegistrationDeadline time.Time `db:"registration_deadline" json:"registration_deadline"`
	Capacity             int       `db:"capacity" json:"capacity"`
	Visibility           string    `db:"visibility" json:"visibility"`
	AutoApprove          bool      `db:"auto_approve" json:"auto_approve"`
	Status               string    `db:"status" json:"status"`
	IsActive             bool      `db:"is_active" json:"is_active"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}

type Registration struct {
	ID        int64     `db:"id" json:"id"`
	EventID   int64     `db:"event_id" json:"event_id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Membership is the authoritative join between users and organizations.
// Exactly one row per (organization_id, user_id); a row with status
// "pending" is a join request, "member" an accepted membership.
type Membership struct {
	ID             int64     `db:"id" json:"id"`
	OrganizationID int64     `db:"organization_id" json:"organization_id"`
	UserID         int64     `db:"user_id" json:"user_id"`
	Status         string    `db:"status" json:"status"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
