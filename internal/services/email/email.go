package email

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
)

// EmailService handles sending emails
type EmailService struct {
	smtpHost     string
	smtpPort     string
	smtpUsername string
	smtpPassword string
	fromEmail    string
}

// NewEmailService creates a new email service
func NewEmailService() *EmailService {
	return &EmailService{
		smtpHost:     os.Getenv("SMTP_HOST"),
		smtpPort:     os.Getenv("SMTP_PORT"),
		smtpUsername: os.Getenv("SMTP_USERNAME"),
		smtpPassword: os.Getenv("SMTP_PASSWORD"),
		fromEmail:    os.Getenv("FROM_EMAIL"),
	}
}

// SendInvitationEmail sends an invitation link to a pre-provisioned account
func (s *EmailService) SendInvitationEmail(toEmail, firstName, token string) error {
	subject := "You're invited to GreenLoop"
	inviteLink := fmt.Sprintf("%s/invitations/accept?token=%s", os.Getenv("FRONTEND_URL"), token)

	greeting := firstName
	if greeting == "" {
		greeting = "there"
	}

	body := fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: Arial, sans-serif; line-height: 1.6; }
			.container { max-width: 600px; margin: 0 auto; padding: 20px; }
			.header { background-color: #16A34A; color: white; padding: 10px; text-align: center; }
			.content { padding: 20px; }
			.button { display: inline-block; background-color: #16A34A; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header">
				<h1>GreenLoop</h1>
			</div>
			<div class="content">
				<h2>Hello %s,</h2>
				<p>Your workplace has invited you to join GreenLoop, the sustainability engagement platform. Set a password to activate your account.</p>
				<p><a href="%s" class="button">Accept Invitation</a></p>
				<p>Or copy and paste this link in your browser: %s</p>
				<p>This invitation will expire in 7 days.</p>
				<p>Best regards,<br>The GreenLoop Team</p>
			</div>
		</div>
	</body>
	</html>
	`, greeting, inviteLink, inviteLink)

	return s.sendEmail(toEmail, subject, body)
}

// SendPasswordChangedEmail notifies a user their password was updated
func (s *EmailService) SendPasswordChangedEmail(toEmail, firstName string) error {
	subject := "Your GreenLoop password was changed"
	body := fmt.Sprintf(`
	<p>Hi %s,</p>
	<p>Your GreenLoop password was just changed. If this wasn't you, contact your administrator immediately.</p>
	`, firstName)

	return s.sendEmail(toEmail, subject, body)
}

// sendEmail sends an HTML email via SMTP
func (s *EmailService) sendEmail(to, subject, body string) error {
	if s.smtpHost == "" {
		log.Printf("SMTP not configured, skipping email to %s: %s", to, subject)
		return nil
	}

	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s", s.fromEmail, to, subject, body))

	auth := smtp.PlainAuth("", s.smtpUsername, s.smtpPassword, s.smtpHost)
	addr := s.smtpHost + ":" + s.smtpPort

	if err := smtp.SendMail(addr, auth, s.fromEmail, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
