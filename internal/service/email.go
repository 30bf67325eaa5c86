package service

import (
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/pageza/mealplanner/backend/config"
	"github.com/pageza/mealplanner/backend/internal/models"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type EmailService struct {
	cfg config.SMTPConfig
	log *zap.Logger
}

func NewEmailService(cfg config.SMTPConfig, log *zap.Logger) *EmailService {
	return &EmailService{cfg: cfg, log: log}
}

// Configured reports whether an SMTP relay is set up.
func (s *EmailService) Configured() bool {
	return s.cfg.Host != "" && s.cfg.Port != ""
}

func (s *EmailService) SendEmail(to, subject, body string) error {
	// If SMTP is not configured, log the email instead
	if !s.Configured() {
		s.log.Info("SMTP not configured, logging email",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.String("body", body),
		)
		return nil
	}

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	from := fmt.Sprintf("%s <%s>", s.cfg.FromName, s.cfg.From)
	msg := []byte(fmt.Sprintf("To: %s\r\n"+
		"From: %s\r\n"+
		"Subject: %s\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: text/html; charset=UTF-8\r\n"+
		"\r\n"+
		"%s\r\n", to, from, subject, body))

	addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)
	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

// SendOTPEmail mails a one-time code for the given flow.
func (s *EmailService) SendOTPEmail(user *models.User, purpose models.OTPPurpose, code string, ttl time.Duration) error {
	action := otpAction(purpose)
	caser := cases.Title(language.English)
	subject := fmt.Sprintf("%s - %s", caser.String(action), s.cfg.FromName)
	return s.SendEmail(user.Email, subject, s.buildOTPEmailBody(user, action, code, ttl))
}

func (s *EmailService) SendWelcomeEmail(user *models.User) error {
	subject := fmt.Sprintf("Welcome to %s!", s.cfg.FromName)
	return s.SendEmail(user.Email, subject, s.buildWelcomeEmailBody(user))
}

func otpAction(purpose models.OTPPurpose) string {
	switch purpose {
	case models.OTPResetPassword:
		return "reset your password"
	default:
		return "verify your email"
	}
}

func (s *EmailService) buildOTPEmailBody(user *models.User, action, code string, ttl time.Duration) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<h2 style="color: #4CAF50; margin-top: 0;">Hi %s,</h2>
	<p>Use the code below to %s.</p>
	<p style="font-size: 32px; font-weight: bold; letter-spacing: 8px; text-align: center; background-color: #f4f4f4; padding: 16px; border-radius: 5px;">%s</p>
	<p style="color: #666; font-size: 12px;">
		This code expires in %d minutes. If you didn't request it, you can safely ignore this email.
	</p>
</body>
</html>
`, user.Name, action, code, int(ttl.Minutes()))
}

func (s *EmailService) buildWelcomeEmailBody(user *models.User) string {
	frontendURL := strings.TrimRight(s.cfg.FrontendURL, "/")
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<h2 style="color: #4CAF50; margin-top: 0;">Hello %s!</h2>
	<p>Your email has been verified. Plan your week, build shopping lists and keep track of what you cooked.</p>
	<p style="text-align: center; margin: 30px 0;">
		<a href="%s/meal-planner" style="background-color: #4CAF50; color: white; padding: 15px 30px; text-decoration: none; border-radius: 5px; font-weight: bold;">Start planning</a>
	</p>
</body>
</html>
`, user.Name, frontendURL)
}
