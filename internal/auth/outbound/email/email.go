package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/shandysiswandi/adminauth/internal/auth/usecase"
	"github.com/shandysiswandi/adminauth/internal/pkg/instrument"
	"github.com/shandysiswandi/adminauth/internal/pkg/mail"
	"go.opentelemetry.io/otel/codes"
)

const subjectOTP = "Your OTP Code"

var otpTemplate = template.Must(template.New("otp").Parse(`<!DOCTYPE html>
<html>
  <head>
    <meta charset="utf-8">
    <title>OTP Verification</title>
  </head>
  <body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <div style="background: #4f46e5; padding: 30px; text-align: center; border-radius: 10px 10px 0 0;">
      <h1 style="color: white; margin: 0;">{{.Product}}</h1>
      <p style="color: rgba(255,255,255,0.8); margin: 10px 0 0 0;">OTP Verification</p>
    </div>
    <div style="background: #f9f9f9; padding: 30px; border-radius: 0 0 10px 10px; border: 1px solid #ddd;">
      <h2>Your OTP Code</h2>
      <p>Please use the OTP below to complete your verification:</p>
      <div style="background: white; padding: 20px; border-radius: 5px; text-align: center; margin: 30px 0; border: 2px dashed #4f46e5;">
        <h1 style="font-size: 48px; letter-spacing: 10px; color: #4f46e5; margin: 0;">{{.Code}}</h1>
      </div>
      <p>This OTP will expire in <strong>{{.ExpiryMinutes}} minutes</strong>.</p>
      {{if .DeviceName}}<p>Requested from: {{.DeviceName}}</p>{{end}}
      <p>If you didn't request this OTP, please ignore this email.</p>
      <div style="margin-top: 40px; padding-top: 20px; border-top: 1px solid #eee; color: #666; font-size: 14px;">
        <p>Best regards,<br>The {{.Product}} Team</p>
      </div>
    </div>
  </body>
</html>
`))

type otpView struct {
	Product       string
	Code          string
	DeviceName    string
	ExpiryMinutes int
}

type Mail struct {
	client  mail.Mail
	ins     instrument.Instrumentation
	product string
}

// New builds the OTP mailer. product names the sender in the body.
func New(client mail.Mail, ins instrument.Instrumentation, product string) *Mail {
	if product == "" {
		product = "Admin Panel"
	}
	return &Mail{client: client, ins: ins, product: product}
}

func (m *Mail) SendOTP(ctx context.Context, msg usecase.OTPMail) error {
	ctx, span := m.ins.Tracer("auth.outbound.email").Start(ctx, "SendOTP")
	defer span.End()

	var html bytes.Buffer
	if err := otpTemplate.Execute(&html, otpView{
		Product:       m.product,
		Code:          msg.Code,
		DeviceName:    msg.DeviceName,
		ExpiryMinutes: msg.ExpiryMinutes,
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	err := m.client.Send(ctx, mail.Message{
		To:       []string{msg.Email},
		Subject:  subjectOTP,
		HTMLBody: html.String(),
		TextBody: fmt.Sprintf("Your OTP code is: %s. This code will expire in %d minutes.", msg.Code, msg.ExpiryMinutes),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
