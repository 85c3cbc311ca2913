package mq

import (
	"context"
	"encoding/json"

	"github.com/shandysiswandi/adminauth/internal/auth/usecase"
	"github.com/shandysiswandi/adminauth/internal/pkg/instrument"
	"github.com/shandysiswandi/adminauth/internal/pkg/messaging"
	"github.com/shandysiswandi/adminauth/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Publisher
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Publisher, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishOTPIssued(ctx context.Context, msg usecase.OTPIssuedEvent) error {
	return m.publish(ctx, "PublishOTPIssued", event.OTPIssuedDestination, msg.Email, event.OTPIssuedMessage{
		ProcessID:  msg.ProcessID,
		AdminID:    msg.AdminID,
		Email:      msg.Email,
		DeviceID:   msg.DeviceID,
		DeviceName: msg.DeviceName,
		ExpiresAt:  msg.ExpiresAt,
		Timezone:   msg.Timezone,
	})
}

func (m *Messaging) PublishOTPVerified(ctx context.Context, msg usecase.OTPVerifiedEvent) error {
	return m.publish(ctx, "PublishOTPVerified", event.OTPVerifiedDestination, msg.Email, event.OTPVerifiedMessage{
		ProcessID:  msg.ProcessID,
		AdminID:    msg.AdminID,
		Email:      msg.Email,
		DeviceID:   msg.DeviceID,
		VerifiedAt: msg.VerifiedAt,
		Timezone:   msg.Timezone,
	})
}

func (m *Messaging) PublishOTPInvalidated(ctx context.Context, msg usecase.OTPInvalidatedEvent) error {
	return m.publish(ctx, "PublishOTPInvalidated", event.OTPInvalidatedDestination, msg.Email, event.OTPInvalidatedMessage{
		ProcessID: msg.ProcessID,
		AdminID:   msg.AdminID,
		Email:     msg.Email,
		Reason:    string(msg.State),
	})
}

// publish keys every message by email so one owner's events stay ordered on
// brokers that partition (Kafka) or order (Pub/Sub) by key.
func (m *Messaging) publish(ctx context.Context, op, destination, key string, payload any) error {
	ctx, span := m.ins.Tracer("auth.outbound.mq").Start(ctx, op)
	defer span.End()

	body, err := json.Marshal(payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, destination, messaging.OutgoingMessage{
		Body:        body,
		Key:         []byte(key),
		OrderingKey: key,
		Headers:     []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
