package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/stepup/internal/notification/entity"
	"github.com/shandysiswandi/stepup/internal/pkg/mail"
	"github.com/shandysiswandi/stepup/internal/pkg/valueobject"
)

const otpEmailSubject = "Your verification code"

const otpEmailBody = `<html>
<body>
<p>Hello,</p>
<p>Your verification code is <strong>{{.code}}</strong>.</p>
<p>It expires in {{.expires_minutes}} minutes. If you did not request this code, please contact {{.support_email}}.</p>
<p>{{.company_name}} &copy; {{.year}}</p>
</body>
</html>`

// sendOTPEmail delivers the code and records the attempt in the delivery
// log. Failures stay inside this module; the issuer never sees them.
func (s *Usecase) sendOTPEmail(ctx context.Context, in ConsumeOTPChallengeIssuedInput) {
	data := s.baseEmailTemplateData()
	data["code"] = in.Code
	data["expires_minutes"] = in.ExpiresMinutes

	body, err := s.renderTemplate("otp_email", otpEmailBody, data)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render otp email body", "user_id", in.UserID, "challenge_id", in.ChallengeID, "error", err)
		return
	}

	logID := s.uid.Generate()
	if err := s.repoDB.CreateDeliveryLog(ctx, entity.CreateDeliveryLog{
		ID:          logID,
		ChallengeID: in.ChallengeID,
		UserID:      in.UserID,
		Email:       in.Email,
		Channel:     entity.ChannelEmail,
		Status:      entity.DeliveryStatusQueued,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to repo create delivery log", "user_id", in.UserID, "challenge_id", in.ChallengeID, "error", err)
		return
	}

	mailErr := s.repoMail.Send(ctx, mail.Message{
		To:       []string{in.Email},
		Subject:  otpEmailSubject,
		HTMLBody: body,
	})
	if mailErr == nil {
		if err := s.repoDB.UpdateDeliveryLogStatus(ctx, entity.UpdateDeliveryLog{
			ID:               logID,
			Status:           entity.DeliveryStatusSent,
			ProviderResponse: valueobject.JSONMap{},
		}); err != nil {
			slog.ErrorContext(ctx, "failed to repo update delivery log status sent", "log_id", logID, "error", err)
		}
		return
	}

	nextRetry := s.clock.Now().Add(s.retryDelay())
	if err := s.repoDB.UpdateDeliveryLogStatus(ctx, entity.UpdateDeliveryLog{
		ID:               logID,
		Status:           entity.DeliveryStatusFailed,
		ProviderResponse: valueobject.JSONMap{"error": mailErr.Error()},
		NextRetryAt:      &nextRetry,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to repo update delivery log status failed", "log_id", logID, "error", err)
	}

	slog.ErrorContext(ctx, "failed to send otp email", "log_id", logID, "user_id", in.UserID, "challenge_id", in.ChallengeID, "error", mailErr)
}

func (s *Usecase) retryDelay() time.Duration {
	delay := s.cfg.GetMinute("modules.notification.retry_delay_minutes")
	if delay <= 0 {
		return 2 * time.Minute
	}
	return delay
}
