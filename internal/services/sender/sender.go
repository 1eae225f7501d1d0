// Package services реализует отправку почтовых уведомлений о решениях
// по KYC-проверке через SMTP-транспорт.
package services

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/agent-panel/internal/lib/sl"
	"github.com/magabrotheeeer/agent-panel/internal/lib/smtp"
	"github.com/magabrotheeeer/agent-panel/internal/models"
)

// SenderService отправляет уведомления пользователям.
type SenderService struct {
	transport smtp.TransportInterface
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(transport smtp.TransportInterface, log *slog.Logger) *SenderService {
	return &SenderService{
		transport: transport,
		log:       log,
	}
}

// SendKYCDecision отправляет владельцу профиля письмо о решении по его
// KYC-документу. Вызывающая сторона не откатывает решение при ошибке
// отправки: письмо — уведомление, а не часть транзакции.
func (s *SenderService) SendKYCDecision(email, name, outcome string) error {
	if name == "" {
		name = models.EmailPrefix(email)
	}

	var subject, bodyText string
	switch outcome {
	case models.KYCStatusVerified:
		subject = "KYC Verification Approved"
		bodyText = fmt.Sprintf("Dear %s,\n\nYour KYC verification has been approved. "+
			"You now have full access to all AI Agent features.\n\nBest regards,\nAI Agent Team", name)
	case models.KYCStatusRejected:
		subject = "KYC Verification Rejected"
		bodyText = fmt.Sprintf("Dear %s,\n\nYour KYC document was rejected. "+
			"Please log in to your profile and upload a valid document (NID or Passport).\n\n"+
			"Best regards,\nAI Agent Team", name)
	default:
		return fmt.Errorf("unknown kyc outcome: %s", outcome)
	}

	return s.sendEmail([]string{email}, subject, bodyText)
}

func (s *SenderService) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("Failed to connect to SMTP server", "error", sl.Err(err))
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("Failed to set MAIL FROM", "from", s.transport.GetSMTPUser(), "error", sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("Failed to set RCPT TO", "recipient", addr, "error", sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("Failed to get Data writer", "error", sl.Err(err))
		return err
	}

	_, err = wc.Write([]byte(msg))
	if err != nil {
		s.log.Error("Failed to write email body", "error", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("Failed to close Data writer", "error", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("Failed to quit SMTP client", "error", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", "to", to)
	return nil
}
