package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shandysiswandi/stepup/internal/notification/usecase"
	"github.com/shandysiswandi/stepup/internal/pkg/instrument"
	"github.com/shandysiswandi/stepup/internal/pkg/messaging"
	"github.com/shandysiswandi/stepup/internal/pkg/uid"
	"github.com/shandysiswandi/stepup/internal/shared/event"
)

const keyOfCorrelationID string = "cID"

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, headers []messaging.Header) context.Context {
	for i := range headers {
		if headers[i].Key == keyOfCorrelationID {
			return instrument.SetCorrelationID(ctx, string(headers[i].Value))
		}
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

func (h *MQHandler) OTPChallengeIssuedNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "OTPChallengeIssuedNotification")
	defer span.End()

	// The body carries the plaintext code, so it is never logged.
	slog.InfoContext(ctx, "consume: otp challenge issued notification", "subject", msg.Subject())

	var payload event.OTPChallengeIssuedMessage
	if err := json.Unmarshal(msg.Body(), &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of otp challenge issued notification", "error", err)
		return nil
	}

	if err := h.uc.ConsumeOTPChallengeIssued(ctx, usecase.ConsumeOTPChallengeIssuedInput{
		ChallengeID:    payload.ChallengeID,
		UserID:         payload.UserID,
		Email:          payload.Email,
		Code:           payload.Code,
		ExpiresMinutes: payload.ExpiresMinutes,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume otp challenge issued", "challenge_id", payload.ChallengeID, "error", err)
		return err
	}

	return nil
}
