package service

import (
	"fmt"
	"strconv"

	"github.com/wb-go/wbf/ginext"

	"skillsphere/internal/dto"
	"skillsphere/internal/model"
	"skillsphere/internal/repo"
	"skillsphere/pkg/validator"
)

func (s *service) CreateOrganization(ctx *ginext.Context) {
	var req dto.CreateOrganizationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	userID, _ := identity(ctx)

	org := &model.Organization{
		Name:        req.Name,
		Description: req.Description,
		LogoURL:     req.LogoURL,
		OwnerID:     userID,
	}

	id, err := s.repo.CreateOrganizationTx(ctx.Request.Context(), org)
	if err != nil {
		if err == repo.ErrOrgNameTaken {
			dto.BadResponseError(ctx, dto.OrgNameTaken, "Organization name is already taken")
			return
		}
		s.log.Error().Err(err).Msg("failed to create organization")
		dto.InternalServerError(ctx)
		return
	}
	org.ID = id

	s.log.Info().Int64("org_id", id).Int64("owner_id", userID).Msg("organization created successfully")

	dto.SuccessCreatedResponse(ctx, organizationResponse(org))
}

func (s *service) GetAllOrganizations(ctx *ginext.Context) {
	orgs, err := s.repo.GetAllOrganizations(ctx.Request.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list organizations")
		dto.InternalServerError(ctx)
		return
	}

	resp := make([]dto.OrganizationResponse, 0, len(orgs))
	for i := range orgs {
		resp = append(resp, organizationResponse(&orgs[i]))
	}

	dto.SuccessResponse(ctx, resp)
}

func (s *service) GetOrganization(ctx *ginext.Context) {
	orgID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid organization ID")
		return
	}

	org, err := s.repo.GetOrganizationByID(ctx.Request.Context(), orgID)
	if err != nil {
		dto.OrgNotFoundError(ctx)
		return
	}

	memberships, err := s.repo.GetMembershipsByOrgID(ctx.Request.Context(), orgID)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to get memberships")
		dto.InternalServerError(ctx)
		return
	}

	resp := dto.OrganizationInfoResponse{
		OrganizationResponse: organizationResponse(org),
	}

	manager := canManageOrg(ctx, org)
	for i := range memberships {
		m := &memberships[i]
		item := membershipResponse(m)
		if user, err := s.repo.GetUserByID(ctx.Request.Context(), m.UserID); err == nil {
			item.UserName = user.Name
		}
		switch m.Status {
		case model.MembershipStatusMember:
			resp.Members = append(resp.Members, item)
		case model.MembershipStatusPending:
			// pending requests are the owner's business only
			if manager {
				resp.PendingRequests = append(resp.PendingRequests, item)
			}
		}
	}

	dto.SuccessResponse(ctx, resp)
}

func (s *service) UpdateOrganization(ctx *ginext.Context) {
	orgID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid organization ID")
		return
	}

	var req dto.UpdateOrganizationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	org, err := s.repo.GetOrganizationByID(ctx.Request.Context(), orgID)
	if err != nil {
		dto.OrgNotFoundError(ctx)
		return
	}

	if !canManageOrg(ctx, org) {
		dto.ForbiddenError(ctx, "You may not modify this organization")
		return
	}

	if req.Name != "" {
		org.Name = req.Name
	}
	if req.Description != nil {
		org.Description = *req.Description
	}
	if req.LogoURL != nil {
		org.LogoURL = *req.LogoURL
	}

	if err := s.repo.UpdateOrganization(ctx.Request.Context(), org); err != nil {
		switch err {
		case repo.ErrOrgNotFound:
			dto.OrgNotFoundError(ctx)
			return
		case repo.ErrOrgNameTaken:
			dto.BadResponseError(ctx, dto.OrgNameTaken, "Organization name is already taken")
			return
		default:
			s.log.Error().Err(err).Msg("failed to update organization")
			dto.InternalServerError(ctx)
			return
		}
	}

	s.log.Info().Int64("org_id", orgID).Msg("organization updated")

	dto.SuccessResponse(ctx, organizationResponse(org))
}

func (s *service) DeleteOrganization(ctx *ginext.Context) {
	orgID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid organization ID")
		return
	}

	org, err := s.repo.GetOrganizationByID(ctx.Request.Context(), orgID)
	if err != nil {
		dto.OrgNotFoundError(ctx)
		return
	}

	if !canManageOrg(ctx, org) {
		dto.ForbiddenError(ctx, "You may not delete this organization")
		return
	}

	if err := s.repo.DeactivateOrganization(ctx.Request.Context(), orgID); err != nil {
		if err == repo.ErrOrgNotFound {
			dto.OrgNotFoundError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to deactivate organization")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().Int64("org_id", orgID).Msg("organization deactivated")

	dto.SuccessResponse(ctx, nil)
}

func (s *service) JoinOrganization(ctx *ginext.Context) {
	orgID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid organization ID")
		return
	}

	userID, _ := identity(ctx)

	m, err := s.repo.CreateJoinRequestTx(ctx.Request.Context(), orgID, userID)
	if err != nil {
		switch err {
		case repo.ErrOrgNotFound:
			dto.OrgNotFoundError(ctx)
			return
		case repo.ErrAlreadyMember:
			dto.BadResponseError(ctx, dto.AlreadyMember, "You are already a member of this organization")
			return
		case repo.ErrDuplicateRequest:
			dto.BadResponseError(ctx, dto.RequestDuplicate, "You already have a pending request for this organization")
			return
		default:
			s.log.Error().Err(err).Msg("failed to create join request")
			dto.InternalServerError(ctx)
			return
		}
	}

	s.log.Info().
		Int64("org_id", orgID).
		Int64("user_id", userID).
		Msg("join request created")

	dto.SuccessCreatedResponse(ctx, membershipResponse(m))
}

func (s *service) DecideJoinRequest(ctx *ginext.Context) {
	orgID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid organization ID")
		return
	}
	targetID, err := strconv.ParseInt(ctx.Param("userId"), 10, 64)
	if err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid user ID")
		return
	}

	var req dto.DecideRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	org, err := s.repo.GetOrganizationByID(ctx.Request.Context(), orgID)
	if err != nil {
		dto.OrgNotFoundError(ctx)
		return
	}

	if !canManageOrg(ctx, org) {
		dto.ForbiddenError(ctx, "You may not decide join requests for this organization")
		return
	}

	m, err := s.repo.DecideJoinRequestTx(ctx.Request.Context(), orgID, targetID, req.Decision == "approve")
	if err != nil {
		if err == repo.ErrRequestNotFound {
			dto.NotFoundError(ctx, dto.RequestNotFound, "No pending join request for this user")
			return
		}
		s.log.Error().Err(err).Msg("failed to decide join request")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().
		Int64("org_id", orgID).
		Int64("user_id", targetID).
		Str("status", m.Status).
		Msg("join request decided")

	if user, err := s.repo.GetUserByID(ctx.Request.Context(), targetID); err == nil {
		if err := s.mail.SendMembershipEmail(org.Name, m.Status, user.Email); err != nil {
			s.log.Warn().Err(err).Msg("failed to send membership notification")
		}
	}

	dto.SuccessResponse(ctx, membershipResponse(m))
}

func (s *service) RemoveMember(ctx *ginext.Context) {
	orgID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid organization ID")
		return
	}
	targetID, err := strconv.ParseInt(ctx.Param("userId"), 10, 64)
	if err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid user ID")
		return
	}

	org, err := s.repo.GetOrganizationByID(ctx.Request.Context(), orgID)
	if err != nil {
		dto.OrgNotFoundError(ctx)
		return
	}

	// Members may leave on their own; removing someone else requires
	// owning the organization.
	userID, _ := identity(ctx)
	if targetID != userID && !canManageOrg(ctx, org) {
		dto.ForbiddenError(ctx, "You may not remove members from this organization")
		return
	}

	if targetID == org.OwnerID {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "The owner cannot leave their own organization")
		return
	}

	if err := s.repo.RemoveMemberTx(ctx.Request.Context(), orgID, targetID); err != nil {
		if err == repo.ErrNotMember {
			dto.NotFoundError(ctx, dto.NotMember, "User is not a member of this organization")
			return
		}
		s.log.Error().Err(err).Msg("failed to remove member")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().
		Int64("org_id", orgID).
		Int64("user_id", targetID).
		Msg("member removed")

	dto.SuccessResponse(ctx, nil)
}
