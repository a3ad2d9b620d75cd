package email

import (
	"context"
	"fmt"
	"net/smtp"

	"shopora-backend/pkg/logger"
)

type OrderConfirmationData struct {
	Email   string
	OrderID string
	Total   string
}

type OrderRefundData struct {
	Email   string
	OrderID string
	Amount  string
}

type EmailService interface {
	SendOrderConfirmationEmail(ctx context.Context, data OrderConfirmationData) error
	SendOrderRefundEmail(ctx context.Context, data OrderRefundData) error
}

type smtpEmailService struct {
	smtpAddr string
	smtpFrom string
}

// NewSMTPEmailService talks to a plain SMTP relay. In development this is
// usually mailhog on localhost:1025.
func NewSMTPEmailService(smtpHost, smtpPort, from string) EmailService {
	return &smtpEmailService{
		smtpAddr: smtpHost + ":" + smtpPort,
		smtpFrom: from,
	}
}

func (s *smtpEmailService) SendOrderConfirmationEmail(ctx context.Context, data OrderConfirmationData) error {
	subject := "Your Shopora order has been placed"
	body := fmt.Sprintf(`Hi,

Thank you for your order!

Order ID: %s
Total: %s

We will notify you when your order ships.`, data.OrderID, data.Total)

	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		s.smtpFrom, data.Email, subject, body))

	err := smtp.SendMail(s.smtpAddr, nil, s.smtpFrom, []string{data.Email}, msg)
	if err != nil {
		logger.Info("Failed to send email", map[string]interface{}{
			"error":     err.Error(),
			"to":        data.Email,
			"smtp_addr": s.smtpAddr,
		})
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

func (s *smtpEmailService) SendOrderRefundEmail(ctx context.Context, data OrderRefundData) error {
	subject := "Your Shopora order has been refunded"
	body := fmt.Sprintf(`Hi,

Your refund has been processed.

Order ID: %s
Refunded amount: %s

The funds should appear on your statement within a few business days.`, data.OrderID, data.Amount)

	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		s.smtpFrom, data.Email, subject, body))

	return smtp.SendMail(s.smtpAddr, nil, s.smtpFrom, []string{data.Email}, msg)
}
