package service

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/wb-go/wbf/ginext"

	"skillsphere/internal/dto"
	"skillsphere/internal/model"
	"skillsphere/internal/repo"
	"skillsphere/pkg/validator"
)

func (s *service) RegisterForEvent(ctx *ginext.Context) {
	eventID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid event ID")
		return
	}

	userID, _ := identity(ctx)

	reg, err := s.repo.RegisterForEventTx(ctx.Request.Context(), eventID, userID, time.Now())
	if err != nil {
		switch err {
		case repo.ErrEventNotFound:
			dto.EventNotFoundError(ctx)
			return
		case repo.ErrEventNotOpen:
			dto.BadResponseError(ctx, dto.EventNotOpen, "Event is not open for registration")
			return
		case repo.ErrDeadlinePassed:
			dto.BadResponseError(ctx, dto.DeadlinePassed, "Registration deadline has passed")
			return
		case repo.ErrEventFull:
			dto.BadResponseError(ctx, dto.EventFull, "Event is full")
			return
		case repo.ErrDuplicateRegistration:
			dto.RegistrationDuplicateError(ctx)
			return
		case repo.ErrNotMember:
			dto.ForbiddenError(ctx, "This event is open to organization members only")
			return
		default:
			s.log.Error().Err(err).Msg("failed to register for event")
			dto.InternalServerError(ctx)
			return
		}
	}

	s.log.Info().
		Int64("registration_id", reg.ID).
		Int64("event_id", eventID).
		Int64("user_id", userID).
		Str("status", reg.Status).
		Msg("registration created successfully")

	event, err := s.repo.GetEventByID(ctx.Request.Context(), eventID)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to get event after registration")
		dto.InternalServerError(ctx)
		return
	}

	// A pending registration expires at the deadline unless the organizer
	// decides it first; the delayed message drives that sweep.
	if reg.Status == model.RegistrationStatusPending {
		msg := dto.RegistrationExpireMessage{
			RegistrationID: reg.ID,
			EventID:        eventID,
			ExpireAt:       event.RegistrationDeadline,
		}
		payload, err := json.Marshal(msg)
		if err != nil {
			s.log.Error().Err(err).Msg("failed to marshal expire message")
		} else {
			delaySeconds := int(time.Until(event.RegistrationDeadline).Seconds())
			if err := s.rbt.Publish(payload, delaySeconds); err != nil {
				s.log.Error().Err(err).Msg("failed to publish expire message to RabbitMQ")
			}
		}
	}

	if user, err := s.repo.GetUserByID(ctx.Request.Context(), userID); err == nil {
		if err := s.mail.SendRegistrationEmail(event.Title, reg.Status, user.Email); err != nil {
			s.log.Warn().Err(err).Msg("failed to send registration notification")
		}
	}

	dto.SuccessCreatedResponse(ctx, registrationResponse(reg))
}

func (s *service) CancelRegistration(ctx *ginext.Context) {
	eventID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid event ID")
		return
	}

	userID, _ := identity(ctx)

	reg, err := s.repo.CancelRegistrationTx(ctx.Request.Context(), eventID, userID)
	if err != nil {
		if err == repo.ErrRegistrationNotFound {
			dto.RegistrationNotFoundError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to cancel registration")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().
		Int64("registration_id", reg.ID).
		Int64("event_id", eventID).
		Msg("registration cancelled")

	if event, err := s.repo.GetEventByID(ctx.Request.Context(), eventID); err == nil {
		if user, err := s.repo.GetUserByID(ctx.Request.Context(), userID); err == nil {
			if err := s.mail.SendRegistrationEmail(event.Title, reg.Status, user.Email); err != nil {
				s.log.Warn().Err(err).Msg("failed to send cancellation notification")
			}
		}
	}

	dto.SuccessResponse(ctx, registrationResponse(reg))
}

func (s *service) GetEventRegistrations(ctx *ginext.Context) {
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
		dto.ForbiddenError(ctx, "You may not view registrations for this event")
		return
	}

	registrations, err := s.repo.GetRegistrationsByEventID(ctx.Request.Context(), eventID)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to get registrations")
		dto.InternalServerError(ctx)
		return
	}

	resp := make([]dto.RegistrationResponse, 0, len(registrations))
	for i := range registrations {
		item := registrationResponse(&registrations[i])
		if user, err := s.repo.GetUserByID(ctx.Request.Context(), registrations[i].UserID); err == nil {
			item.UserName = user.Name
		}
		resp = append(resp, item)
	}

	dto.SuccessResponse(ctx, resp)
}

func (s *service) DecideRegistration(ctx *ginext.Context) {
	eventID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid event ID")
		return
	}
	registrationID, err := strconv.ParseInt(ctx.Param("registrationId"), 10, 64)
	if err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid registration ID")
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

	event, err := s.repo.GetEventByID(ctx.Request.Context(), eventID)
	if err != nil {
		dto.EventNotFoundError(ctx)
		return
	}

	if !s.canManageEvent(ctx, event) {
		dto.ForbiddenError(ctx, "You may not decide registrations for this event")
		return
	}

	reg, err := s.repo.DecideRegistrationTx(ctx.Request.Context(), eventID, registrationID, req.Decision == "approve")
	if err != nil {
		switch err {
		case repo.ErrEventNotFound:
			dto.EventNotFoundError(ctx)
			return
		case repo.ErrRegistrationNotFound:
			dto.RegistrationNotFoundError(ctx)
			return
		case repo.ErrEventFull:
			dto.BadResponseError(ctx, dto.EventFull, "Event is full")
			return
		default:
			s.log.Error().Err(err).Msg("failed to decide registration")
			dto.InternalServerError(ctx)
			return
		}
	}

	s.log.Info().
		Int64("registration_id", reg.ID).
		Str("status", reg.Status).
		Msg("registration decided")

	if user, err := s.repo.GetUserByID(ctx.Request.Context(), reg.UserID); err == nil {
		if err := s.mail.SendRegistrationEmail(event.Title, reg.Status, user.Email); err != nil {
			s.log.Warn().Err(err).Msg("failed to send decision notification")
		}
	}

	dto.SuccessResponse(ctx, registrationResponse(reg))
}

func (s *service) MarkAttendance(ctx *ginext.Context) {
	eventID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid event ID")
		return
	}
	registrationID, err := strconv.ParseInt(ctx.Param("registrationId"), 10, 64)
	if err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid registration ID")
		return
	}

	event, err := s.repo.GetEventByID(ctx.Request.Context(), eventID)
	if err != nil {
		dto.EventNotFoundError(ctx)
		return
	}

	if !s.canManageEvent(ctx, event) {
		dto.ForbiddenError(ctx, "You may not record attendance for this event")
		return
	}

	reg, err := s.repo.MarkAttendanceTx(ctx.Request.Context(), eventID, registrationID)
	if err != nil {
		if err == repo.ErrRegistrationNotFound {
			dto.RegistrationNotFoundError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to mark attendance")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().Int64("registration_id", reg.ID).Msg("attendance recorded")

	dto.SuccessResponse(ctx, registrationResponse(reg))
}
