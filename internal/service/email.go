package service

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"toolshare-backend/internal/domain"
	"toolshare-backend/internal/logger"
	"toolshare-backend/internal/utils"
)

const (
	defaultSendGridHost = "https://api.sendgrid.com"
	sendGridMailPath    = "/v3/mail/send"
)

type sendGridEmailService struct {
	apiKey string
	host   string
	from   *mail.Email
}

// NewEmailService returns a SendGrid backed mailer, or one that only logs
// the messages when apiKey is empty.
func NewEmailService(apiKey, fromEmail, fromName string) EmailService {
	if apiKey == "" {
		return NewLoggingEmailService()
	}
	return newSendGridEmailService(apiKey, defaultSendGridHost, fromEmail, fromName)
}

func newSendGridEmailService(apiKey, host, fromEmail, fromName string) *sendGridEmailService {
	return &sendGridEmailService{
		apiKey: apiKey,
		host:   host,
		from:   mail.NewEmail(fromName, fromEmail),
	}
}

func (s *sendGridEmailService) SendReservationRequestNotification(ctx context.Context, ownerEmail, ownerName, renterName, toolName string, r *domain.Reservation) error {
	subject, body := reservationRequestMessage(ownerName, renterName, toolName, r)
	return s.send(ctx, ownerEmail, ownerName, subject, body)
}

func (s *sendGridEmailService) SendReservationStatusNotification(ctx context.Context, renterEmail, renterName, toolName string, r *domain.Reservation) error {
	subject, body := reservationStatusMessage(renterName, toolName, r)
	return s.send(ctx, renterEmail, renterName, subject, body)
}

func (s *sendGridEmailService) send(ctx context.Context, to, toName, subject, body string) error {
	logger.ExternalServiceCall(ctx, "SendGrid", "send", "to", to, "subject", subject)

	message := mail.NewSingleEmail(s.from, subject, mail.NewEmail(toName, to), body, "")
	request := sendgrid.GetRequest(s.apiKey, sendGridMailPath, s.host)
	request.Method = "POST"
	request.Body = mail.GetRequestBody(message)

	response, err := sendgrid.MakeRequestWithContext(ctx, request)
	if err != nil {
		err = fmt.Errorf("failed to send email via sendgrid: %w", err)
		logger.ExternalServiceResult(ctx, "SendGrid", "send", err, "to", to)
		return err
	}
	if response.StatusCode >= 400 {
		err = fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
		logger.ExternalServiceResult(ctx, "SendGrid", "send", err, "to", to)
		return err
	}

	logger.ExternalServiceResult(ctx, "SendGrid", "send", nil, "to", to, "status", response.StatusCode)
	return nil
}

type loggingEmailService struct{}

func NewLoggingEmailService() EmailService {
	return loggingEmailService{}
}

func (loggingEmailService) SendReservationRequestNotification(ctx context.Context, ownerEmail, ownerName, renterName, toolName string, r *domain.Reservation) error {
	subject, _ := reservationRequestMessage(ownerName, renterName, toolName, r)
	logger.InfoContext(ctx, "Email not sent, no provider configured", "to", ownerEmail, "subject", subject)
	return nil
}

func (loggingEmailService) SendReservationStatusNotification(ctx context.Context, renterEmail, renterName, toolName string, r *domain.Reservation) error {
	subject, _ := reservationStatusMessage(renterName, toolName, r)
	logger.InfoContext(ctx, "Email not sent, no provider configured", "to", renterEmail, "subject", subject)
	return nil
}

func reservationRequestMessage(ownerName, renterName, toolName string, r *domain.Reservation) (string, string) {
	subject := fmt.Sprintf("New reservation request: %s", toolName)
	body := fmt.Sprintf("Hello %s,\n\n%s would like to rent your %s from %s to %s for %s.\n\nReservation #%d is waiting for your approval.\n\nBest regards,\nThe ToolShare Team",
		ownerName, renterName, toolName, r.StartDate, r.EndDate, utils.FormatPrice(r.TotalPrice), r.ID)
	return subject, body
}

func reservationStatusMessage(renterName, toolName string, r *domain.Reservation) (string, string) {
	subject := fmt.Sprintf("Reservation #%d is now %s", r.ID, r.Status)
	body := fmt.Sprintf("Hello %s,\n\nYour reservation of %s from %s to %s is now %s.\n\nBest regards,\nThe ToolShare Team",
		renterName, toolName, r.StartDate, r.EndDate, r.Status)
	return subject, body
}
