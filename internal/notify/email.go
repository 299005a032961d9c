// internal/notify/email.go

package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"sync"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"gopkg.in/gomail.v2"

	"github.com/techswap/techswap-backend/internal/config"
)

type EmailNotification struct {
	To      string
	ToName  string
	Subject string
	Body    string
	HTML    string
}

// EmailService sends transactional email
type EmailService interface {
	SendEmail(ctx context.Context, notification *EmailNotification) error
}

// SMTPEmailService implements email notifications using SMTP
type SMTPEmailService struct {
	from     string
	fromName string
	dialer   *gomail.Dialer
}

// NewSMTPEmailService creates a new SMTP email service
func NewSMTPEmailService(cfg *config.Config) (EmailService, error) {
	if cfg.SMTPHost == "" || cfg.SMTPUser == "" || cfg.SMTPPassword == "" || cfg.EmailFrom == "" {
		return nil, fmt.Errorf("incomplete SMTP configuration")
	}

	dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
	dialer.TLSConfig = &tls.Config{InsecureSkipVerify: false}

	return &SMTPEmailService{
		from:     cfg.EmailFrom,
		fromName: cfg.EmailFromName,
		dialer:   dialer,
	}, nil
}

func (s *SMTPEmailService) SendEmail(ctx context.Context, notification *EmailNotification) error {
	m := gomail.NewMessage()

	m.SetHeader("From", m.FormatAddress(s.from, s.fromName))
	m.SetHeader("To", notification.To)
	m.SetHeader("Subject", notification.Subject)

	if notification.HTML != "" {
		m.SetBody("text/html", notification.HTML)
		if notification.Body != "" {
			m.AddAlternative("text/plain", notification.Body)
		}
	} else {
		m.SetBody("text/plain", notification.Body)
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		log.Printf("Failed to send email to %s: %v", notification.To, err)
		return err
	}

	return nil
}

// SendGridEmailService implements email notifications using SendGrid
type SendGridEmailService struct {
	client   *sendgrid.Client
	from     string
	fromName string
}

// NewSendGridEmailService creates a new SendGrid email service
func NewSendGridEmailService(cfg *config.Config) (EmailService, error) {
	if cfg.SendGridAPIKey == "" || cfg.EmailFrom == "" {
		return nil, fmt.Errorf("incomplete SendGrid configuration")
	}

	return &SendGridEmailService{
		client:   sendgrid.NewSendClient(cfg.SendGridAPIKey),
		from:     cfg.EmailFrom,
		fromName: cfg.EmailFromName,
	}, nil
}

func (s *SendGridEmailService) SendEmail(ctx context.Context, notification *EmailNotification) error {
	from := mail.NewEmail(s.fromName, s.from)
	to := mail.NewEmail(notification.ToName, notification.To)

	message := mail.NewSingleEmail(from, notification.Subject, to, notification.Body, notification.HTML)

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		log.Printf("Failed to send email to %s: %v", notification.To, err)
		return err
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d", response.StatusCode)
	}

	return nil
}

// MockEmailService records emails instead of sending them. Used in
// development and tests.
type MockEmailService struct {
	mu   sync.Mutex
	Sent []*EmailNotification
}

func NewMockEmailService() *MockEmailService {
	return &MockEmailService{}
}

func (s *MockEmailService) SendEmail(ctx context.Context, notification *EmailNotification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Sent = append(s.Sent, notification)
	log.Printf("Mock email to %s: %s", notification.To, notification.Subject)
	return nil
}

// NewEmailService selects a provider based on configuration
func NewEmailService(cfg *config.Config) (EmailService, error) {
	switch cfg.EmailProvider {
	case "sendgrid":
		return NewSendGridEmailService(cfg)
	case "smtp":
		return NewSMTPEmailService(cfg)
	case "mock":
		return NewMockEmailService(), nil
	default:
		return nil, fmt.Errorf("unknown email provider: %s", cfg.EmailProvider)
	}
}
