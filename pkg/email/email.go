package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"

	"go-jobboard-backend/config"
	"go-jobboard-backend/internal/domain"
)

// sendFunc matches smtp.SendMail.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailService sends applicant notifications over SMTP.
type EmailService struct {
	host      string
	port      string
	username  string
	password  string
	fromEmail string
	send      sendFunc
}

func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{
		host:      cfg.SMTPHost,
		port:      cfg.SMTPPort,
		username:  cfg.SMTPUsername,
		password:  cfg.SMTPPassword,
		fromEmail: cfg.SMTPFromEmail,
		send:      smtp.SendMail,
	}
}

var statusTemplate = template.Must(template.New("status").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>Application update</title></head>
<body style="font-family: Arial, sans-serif; color: #333;">
  <p>Hi {{.ApplicantName}},</p>
  <p>Your application for <strong>{{.JobTitle}}</strong> is now <strong>{{.Status}}</strong>.</p>
  {{if eq .Status "HIRED"}}<p>Congratulations! The recruiter will contact you with next steps.</p>{{end}}
  {{if eq .Status "REJECTED"}}<p>Thank you for your interest. We encourage you to apply for other openings.</p>{{end}}
</body>
</html>`))

func (s *EmailService) render(n domain.StatusNotice) ([]byte, error) {
	var body bytes.Buffer
	if err := statusTemplate.Execute(&body, n); err != nil {
		return nil, fmt.Errorf("failed to execute email template: %w", err)
	}
	msg := fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: Your application for %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n%s",
		s.fromEmail, n.ApplicantEmail, n.JobTitle, body.String(),
	)
	return []byte(msg), nil
}

// NotifyStatusChange emails the applicant about a new application status.
func (s *EmailService) NotifyStatusChange(ctx context.Context, n domain.StatusNotice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.IsConfigured() {
		return nil
	}
	msg, err := s.render(n)
	if err != nil {
		return err
	}
	auth := smtp.PlainAuth("", s.username, s.password, s.host)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	if err := s.send(addr, auth, s.fromEmail, []string{n.ApplicantEmail}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (s *EmailService) IsConfigured() bool {
	return s.host != "" && s.username != "" && s.password != ""
}
