package consumerWorker

import (
	"context"
	"encoding/json"

	"github.com/wb-go/wbf/zlog"

	"skillsphere/internal/dto"
	"skillsphere/internal/mailer"
	"skillsphere/internal/rabbit"
	"skillsphere/internal/repo"
)

// Reader consumes delayed expiry messages: a registration that is still
// pending once its event's registration deadline has passed gets rejected,
// and the user is notified by email.
type Reader struct {
	RMQ    *rabbit.Client
	repo   repo.Repository
	mail   *mailer.Mailer
	done   chan struct{}
	cancel context.CancelFunc
}

func NewReader(rmq *rabbit.Client, repo repo.Repository, mail *mailer.Mailer) *Reader {
	return &Reader{
		RMQ:  rmq,
		repo: repo,
		mail: mail,
		done: make(chan struct{}),
	}
}

func (r *Reader) Start(ctx context.Context) {
	cctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	zlog.Logger.Info().Msg("RabbitMQ Reader started")

	go func() {
		defer close(r.done)

		handler := func(body []byte) error {
			var msg dto.RegistrationExpireMessage
			if err := json.Unmarshal(body, &msg); err != nil {
				zlog.Logger.Error().
					Err(err).
					Msgf("Failed to unmarshal message: %s", string(body))
				return err
			}

			zlog.Logger.Info().
				Int64("registration_id", msg.RegistrationID).
				Int64("event_id", msg.EventID).
				Msg("Received expiry message from RabbitMQ")

			expired, err := r.repo.ExpireIfPendingTx(cctx, msg.RegistrationID)
			if err != nil {
				zlog.Logger.Error().
					Err(err).
					Int64("registration_id", msg.RegistrationID).
					Msg("Failed to expire registration (DB operation)")
				return err
			}

			if !expired {
				zlog.Logger.Info().
					Int64("registration_id", msg.RegistrationID).
					Msg("Registration already decided or cancelled, skipping email")
				return nil
			}

			reg, err := r.repo.GetRegistrationByID(cctx, msg.RegistrationID)
			if err != nil {
				zlog.Logger.Error().
					Err(err).
					Int64("registration_id", msg.RegistrationID).
					Msg("Failed to get registration from DB in worker")
				return nil
			}

			event, err := r.repo.GetEventByID(cctx, reg.EventID)
			if err != nil {
				zlog.Logger.Error().
					Err(err).
					Int64("event_id", reg.EventID).
					Msg("Failed to get event from DB in worker")
				return nil
			}

			user, err := r.repo.GetUserByID(cctx, reg.UserID)
			if err != nil {
				zlog.Logger.Error().
					Err(err).
					Int64("user_id", reg.UserID).
					Msg("Failed to get user from DB in worker")
				return nil
			}

			if err := r.mail.SendRegistrationEmail(event.Title, reg.Status, user.Email); err != nil {
				zlog.Logger.Warn().
					Err(err).
					Msg("Failed to send notification on e-mail")
			} else {
				zlog.Logger.Info().
					Str("email", user.Email).
					Int64("registration_id", msg.RegistrationID).
					Msg("Expiry email sent successfully")
			}

			return nil
		}

		if err := r.RMQ.Consume(handler); err != nil {
			zlog.Logger.Error().Err(err).Msg("Failed to start consuming")
			return
		}

		<-cctx.Done()
		zlog.Logger.Info().Msg("RabbitMQ Reader stopped by context")
	}()
}

func (r *Reader) Stop() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
}
