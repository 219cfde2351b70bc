// Package sender отправляет почтовые уведомления об истекающих подписках.
package sender

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"

	"github.com/avdeev-lv/subscription-manager/internal/config"
	"github.com/avdeev-lv/subscription-manager/internal/lib/sl"
	"github.com/avdeev-lv/subscription-manager/internal/models"
)

// Service потребляет уведомления из очереди и отправляет письма по SMTP.
type Service struct {
	cfg *config.Config
	log *slog.Logger
}

// New создает новый экземпляр Service.
func New(cfg *config.Config, log *slog.Logger) *Service {
	return &Service{
		cfg: cfg,
		log: log,
	}
}

// SendExpiringNotice разбирает сообщение очереди и отправляет письмо
// о скором окончании подписки.
func (s *Service) SendExpiringNotice(body []byte) error {
	var message models.ExpiringSubscription
	if err := json.Unmarshal(body, &message); err != nil {
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	subject := "Your subscription is expiring soon"
	bodyText := fmt.Sprintf("Hello, %s!\n\nYour %s subscription expires on %s.\n\nPlease renew it in advance.",
		message.Name, message.PlanName, message.EndDate.Format("2006-01-02"))

	msg := strings.Join([]string{
		fmt.Sprintf("From: %s", s.cfg.SMTPUser),
		fmt.Sprintf("To: %s", message.Email),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	return s.send([]string{message.Email}, []byte(msg))
}

// send устанавливает SMTP-соединение со STARTTLS и отправляет письмо.
func (s *Service) send(to []string, msg []byte) error {
	addr := s.cfg.SMTPHost + ":" + s.cfg.SMTPPort

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		s.log.Error("failed to dial SMTP server", sl.Err(err))
		return fmt.Errorf("failed to dial SMTP server: %w", err)
	}

	client, err := smtp.NewClient(conn, s.cfg.SMTPHost)
	if err != nil {
		s.log.Error("failed to create SMTP client", sl.Err(err))
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer func() {
		_ = client.Close()
	}()

	tlsConfig := &tls.Config{
		ServerName: s.cfg.SMTPHost,
		MinVersion: tls.VersionTLS12,
	}
	ok, _ := client.Extension("STARTTLS")
	if !ok {
		s.log.Error("SMTP server does not support STARTTLS")
		return fmt.Errorf("smtp server does not support STARTTLS")
	}
	if err = client.StartTLS(tlsConfig); err != nil {
		s.log.Error("failed to start TLS", sl.Err(err))
		return fmt.Errorf("failed to start TLS: %w", err)
	}

	auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)
	if err = client.Auth(auth); err != nil {
		s.log.Error("smtp auth failed", sl.Err(err))
		return fmt.Errorf("smtp auth failed: %w", err)
	}

	if err = client.Mail(s.cfg.SMTPUser); err != nil {
		return fmt.Errorf("smtp MAIL failed: %w", err)
	}
	for _, rcpt := range to {
		if err = client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("smtp RCPT failed: %w", err)
		}
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA failed: %w", err)
	}
	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close message writer: %w", err)
	}
	return client.Quit()
}
