package mq

import (
	"context"
	"encoding/json"

	"github.com/shandysiswandi/stepup/internal/pkg/instrument"
	"github.com/shandysiswandi/stepup/internal/pkg/messaging"
	"github.com/shandysiswandi/stepup/internal/shared/event"
	"github.com/shandysiswandi/stepup/internal/stepup/usecase"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Messaging
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Messaging, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishOTPChallengeIssued(ctx context.Context, msg usecase.OTPChallengeIssuedEvent) error {
	ctx, span := m.ins.Tracer("stepup.outbound.mq").Start(ctx, "PublishOTPChallengeIssued")
	defer span.End()

	body, err := json.Marshal(event.OTPChallengeIssuedMessage{
		ChallengeID:    msg.ChallengeID,
		UserID:         msg.UserID,
		Email:          msg.Email,
		Code:           msg.Code,
		ExpiresMinutes: msg.ExpiresMinutes,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, event.OTPChallengeIssuedDestination, messaging.OutgoingMessage{
		Body:    body,
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
