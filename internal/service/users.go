package service

import (
	"fmt"
	"strconv"

	"github.com/wb-go/wbf/ginext"

	"skillsphere/internal/dto"
	"skillsphere/internal/model"
	"skillsphere/internal/repo"
	"skillsphere/pkg/auth"
	"skillsphere/pkg/validator"
)

func (s *service) RegisterUser(ctx *ginext.Context) {
	var req dto.RegisterUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to hash password")
		dto.InternalServerError(ctx)
		return
	}

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
	}

	id, err := s.repo.CreateUser(ctx.Request.Context(), user)
	if err != nil {
		if err == repo.ErrEmailTaken {
			dto.BadResponseError(ctx, dto.EmailTaken, "Email is already registered")
			return
		}
		s.log.Error().Err(err).Msg("failed to create user in DB")
		dto.InternalServerError(ctx)
		return
	}
	user.ID = id

	s.log.Info().Int64("user_id", id).Str("role", user.Role).Msg("user registered successfully")

	dto.SuccessCreatedResponse(ctx, userResponse(user))
}

func (s *service) Login(ctx *ginext.Context) {
	var req dto.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	user, err := s.repo.GetUserByEmail(ctx.Request.Context(), req.Email)
	if err != nil {
		dto.UnauthorizedError(ctx, "Wrong email or password")
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		dto.UnauthorizedError(ctx, "Wrong email or password")
		return
	}

	token, expiresAt, err := s.tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to issue token")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().Int64("user_id", user.ID).Msg("user logged in")

	dto.SuccessResponse(ctx, dto.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      userResponse(user),
	})
}

// GetMe returns the caller's profile together with their registrations and
// memberships, both derived from the authoritative tables on read.
func (s *service) GetMe(ctx *ginext.Context) {
	userID, _ := identity(ctx)

	user, err := s.repo.GetUserByID(ctx.Request.Context(), userID)
	if err != nil {
		dto.UserNotFoundError(ctx)
		return
	}

	regs, err := s.repo.GetRegistrationsByUserID(ctx.Request.Context(), userID)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to get user registrations")
		dto.InternalServerError(ctx)
		return
	}

	memberships, err := s.repo.GetMembershipsByUserID(ctx.Request.Context(), userID)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to get user memberships")
		dto.InternalServerError(ctx)
		return
	}

	resp := dto.ProfileResponse{
		UserResponse:  userResponse(user),
		Registrations: make([]dto.RegistrationResponse, 0, len(regs)),
		Memberships:   make([]dto.MembershipResponse, 0, len(memberships)),
	}
	for i := range regs {
		item := registrationResponse(&regs[i])
		if event, err := s.repo.GetEventByID(ctx.Request.Context(), regs[i].EventID); err == nil {
			item.EventTitle = event.Title
		}
		resp.Registrations = append(resp.Registrations, item)
	}
	for i := range memberships {
		item := membershipResponse(&memberships[i])
		if org, err := s.repo.GetOrganizationByID(ctx.Request.Context(), memberships[i].OrganizationID); err == nil {
			item.OrgName = org.Name
		}
		resp.Memberships = append(resp.Memberships, item)
	}

	dto.SuccessResponse(ctx, resp)
}

func (s *service) GetAllUsers(ctx *ginext.Context) {
	users, err := s.repo.GetAllUsers(ctx.Request.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list users")
		dto.InternalServerError(ctx)
		return
	}

	resp := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		resp = append(resp, userResponse(&users[i]))
	}

	dto.SuccessResponse(ctx, resp)
}

func (s *service) UpdateUser(ctx *ginext.Context) {
	targetID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid user ID")
		return
	}

	userID, role := identity(ctx)
	if role != model.RoleAdmin && userID != targetID {
		dto.ForbiddenError(ctx, "You may only update your own profile")
		return
	}

	var req dto.UpdateUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	user, err := s.repo.GetUserByID(ctx.Request.Context(), targetID)
	if err != nil {
		dto.UserNotFoundError(ctx)
		return
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Bio != "" {
		user.Bio = req.Bio
	}
	if req.ResumeURL != "" {
		user.ResumeURL = req.ResumeURL
	}

	if err := s.repo.UpdateUser(ctx.Request.Context(), user); err != nil {
		if err == repo.ErrUserNotFound {
			dto.UserNotFoundError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to update user")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().Int64("user_id", targetID).Msg("user updated")

	dto.SuccessResponse(ctx, userResponse(user))
}

func (s *service) DeleteUser(ctx *ginext.Context) {
	targetID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid user ID")
		return
	}

	if err := s.repo.DeactivateUser(ctx.Request.Context(), targetID); err != nil {
		if err == repo.ErrUserNotFound {
			dto.UserNotFoundError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to deactivate user")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().Int64("user_id", targetID).Msg("user deactivated")

	dto.SuccessResponse(ctx, nil)
}
