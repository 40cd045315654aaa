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

func (s *service) CreateEvent(ctx *ginext.Context) {
	var req dto.CreateEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		s.log.Error().Err(err).Msg("failed to parse create event request")
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		s.log.Error().Msgf("validation failed: %v", verr)
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	org, err := s.repo.GetOrganizationByID(ctx.Request.Context(), req.OrganizationID)
	if err != nil {
		dto.OrgNotFoundError(ctx)
		return
	}

	userID, role := identity(ctx)
	if role != model.RoleAdmin && org.OwnerID != userID {
		dto.ForbiddenError(ctx, "Only the organization owner may create its events")
		return
	}

	status := req.Status
	if status == "" {
		status = model.EventStatusPublished
	}

	event := &model.Event{
		OrganizationID:       req.OrganizationID,
		CreatedBy:            userID,
		Title:                req.Title,
		Description:          req.Description,
		Location:             req.Location,
		StartTime:            req.StartTime,
		EndTime:              req.EndTime,
		RegistrationDeadline: req.RegistrationDeadline,
		Capacity:             req.Capacity,
		Visibility:           req.Visibility,
		AutoApprove:          req.AutoApprove,
		Status:               status,
	}

	id, err := s.repo.CreateEvent(ctx.Request.Context(), event)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to create event in DB")
		dto.InternalServerError(ctx)
		return
	}
	event.ID = id

	s.log.Info().Int64("event_id", id).Int64("org_id", event.OrganizationID).Msg("event created successfully")

	dto.SuccessCreatedResponse(ctx, eventResponse(event))
}

func (s *service) GetAllEvents(ctx *ginext.Context) {
	userID, role := identity(ctx)

	events, err := s.repo.GetVisibleEvents(ctx.Request.Context(), userID, role == model.RoleAdmin)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list events")
		dto.InternalServerError(ctx)
		return
	}

	resp := make([]dto.EventInfoResponse, 0, len(events))
	for i := range events {
		e := &events[i]

		count, err := s.repo.CountActiveRegistrations(ctx.Request.Context(), e.ID)
		if err != nil {
			s.log.Error().Err(err).Msg("failed to count registrations for event")
			continue
		}

		resp = append(resp, dto.EventInfoResponse{
			EventResponse:  eventResponse(e),
			AvailableSeats: e.Capacity - count,
			UpdatedAt:      e.UpdatedAt,
		})
	}

	dto.SuccessResponse(ctx, resp)
}

func (s *service) GetEvent(ctx *ginext.Context) {
	eventID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid event ID")
		return
	}

	event, err := s.repo.GetEventByID(ctx.Request.Context(), eventID)
	if err != nil {
		dto.EventNotFoundError(ctx)
		return
	}

	// Intra events are hidden from non-members; report them as absent
	// rather than forbidden so they are not discoverable.
	if event.Visibility == model.EventVisibilityIntra && !s.canManageEvent(ctx, event) {
		userID, _ := identity(ctx)
		member, err := s.repo.IsMember(ctx.Request.Context(), event.OrganizationID, userID)
		if err != nil {
			s.log.Error().Err(err).Msg("failed to check membership")
			dto.InternalServerError(ctx)
			return
		}
		if !member {
			dto.EventNotFoundError(ctx)
			return
		}
	}

	count, err := s.repo.CountActiveRegistrations(ctx.Request.Context(), eventID)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to count registrations")
		dto.InternalServerError(ctx)
		return
	}

	resp := dto.EventInfoResponse{
		EventResponse:  eventResponse(event),
		AvailableSeats: event.Capacity - count,
		UpdatedAt:      event.UpdatedAt,
	}

	if s.canManageEvent(ctx, event) {
		registrations, err := s.repo.GetRegistrationsByEventID(ctx.Request.Context(), eventID)
		if err != nil {
			s.log.Error().Err(err).Msg("failed to get registrations for organizer view")
			dto.InternalServerError(ctx)
			return
		}
		for i := range registrations {
			resp.Registrations = append(resp.Registrations, registrationResponse(&registrations[i]))
		}
	}

	dto.SuccessResponse(ctx, resp)
}

func (s *service) UpdateEvent(ctx *ginext.Context) {
	eventID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid event ID")
		return
	}

	var req dto.UpdateEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	event, err := s.repo.GetEventByID(ctx.Request.Context(), eventID)
	if err != nil {
		dto.EventNotFoundError(ctx)
		return
	}

	if !s.canManageEvent(ctx, event) {
		dto.ForbiddenError(ctx, "You may not modify this event")
		return
	}

	if req.Title != "" {
		event.Title = req.Title
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.Location != nil {
		event.Location = *req.Location
	}
	if req.StartTime != nil {
		event.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		event.EndTime = *req.EndTime
	}
	if req.RegistrationDeadline != nil {
		event.RegistrationDeadline = *req.RegistrationDeadline
	}
	if req.Capacity > 0 {
		count, err := s.repo.CountActiveRegistrations(ctx.Request.Context(), eventID)
		if err != nil {
			s.log.Error().Err(err).Msg("failed to count registrations")
			dto.InternalServerError(ctx)
			return
		}
		// seats in use are derived from registrations, so a capacity below
		// the current count would go negative in listings
		if req.Capacity < count {
			dto.BadResponseError(ctx, dto.FieldIncorrect,
				"Capacity cannot be lower than the number of active registrations")
			return
		}
		event.Capacity = req.Capacity
	}
	if req.Status != "" {
		event.Status = req.Status
	}

	if err := s.repo.UpdateEvent(ctx.Request.Context(), event); err != nil {
		if err == repo.ErrEventNotFound {
			dto.EventNotFoundError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to update event")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().Int64("event_id", eventID).Msg("event updated")

	dto.SuccessResponse(ctx, eventResponse(event))
}

func (s *service) DeleteEvent(ctx *ginext.Context) {
	eventID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid event ID")
		return
	}

	event, err := s.repo.GetEventByID(ctx.Request.Context(), eventID)
	if err != nil {
		dto.EventNotFoundError(ctx)
		return
	}

	if !s.canManageEvent(ctx, event) {
		dto.ForbiddenError(ctx, "You may not delete this event")
		return
	}

	if err := s.repo.CancelEvent(ctx.Request.Context(), eventID); err != nil {
		if err == repo.ErrEventNotFound {
			dto.EventNotFoundError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to cancel event")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().Int64("event_id", eventID).Msg("event cancelled")

	dto.SuccessResponse(ctx, nil)
}
