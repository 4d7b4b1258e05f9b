package services

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/AnshRaj112/travelnest-backend/internal/models"
	"github.com/AnshRaj112/travelnest-backend/internal/otp"
)

// Mailer delivers transactional email. Implementations must be safe for
// concurrent use.
type Mailer interface {
	SendOTP(ctx context.Context, to, code string, purpose otp.State, ttl time.Duration) error
	SendWelcome(ctx context.Context, to, name string) error
	SendAdminOTP(ctx context.Context, to, code string, ttl time.Duration) error
	SendInquiryNotification(ctx context.Context, to string, inquiry *models.Inquiry) error
}

type mailMessage struct {
	Subject string
	Body    string
}

func otpMessage(code string, purpose otp.State, ttl time.Duration) mailMessage {
	minutes := int(ttl.Minutes())
	switch purpose {
	case otp.StateReset:
		return mailMessage{
			Subject: "Reset your password - TravelNest",
			Body: fmt.Sprintf(`Hello,

We received a request to reset your TravelNest password.

Your password reset code is: %s

This code will expire in %d minutes.

If you didn't request this, ignore this email and your password will remain unchanged.

TravelNest Team
`, code, minutes),
		}
	default:
		return mailMessage{
			Subject: "Verify your email - TravelNest",
			Body: fmt.Sprintf(`Hello,

Thanks for signing up with TravelNest!

Your email verification code is: %s

This code will expire in %d minutes.

If you didn't create an account, please ignore this email.

TravelNest Team
`, code, minutes),
		}
	}
}

func welcomeMessage(name string) mailMessage {
	return mailMessage{
		Subject: "Welcome to TravelNest!",
		Body: fmt.Sprintf(`Hello %s,

Your email is verified and your TravelNest account is ready.

You can now:
- Save packages to your wishlist
- Send booking inquiries in one click
- Get trip updates from our travel experts

Happy travels,
TravelNest Team
`, name),
	}
}

func adminOTPMessage(code string, ttl time.Duration) mailMessage {
	return mailMessage{
		Subject: "Admin sign-in code - TravelNest",
		Body: fmt.Sprintf(`Your admin sign-in code is: %s

It expires in %d minutes and can be used once.
`, code, int(ttl.Minutes())),
	}
}

func inquiryMessage(inq *models.Inquiry) mailMessage {
	var b strings.Builder
	fmt.Fprintf(&b, "New booking inquiry %s\n\n", inq.Reference)
	fmt.Fprintf(&b, "Name: %s\nEmail: %s\nPhone: %s\n", inq.Name, inq.Email, inq.Phone)
	if inq.PackageTitle != "" {
		fmt.Fprintf(&b, "Package: %s\n", inq.PackageTitle)
	}
	if inq.TravelDate != nil {
		fmt.Fprintf(&b, "Travel date: %s\n", inq.TravelDate.Format("2006-01-02"))
	}
	fmt.Fprintf(&b, "Travellers: %d adults, %d children\n", inq.Adults, inq.Children)
	if inq.Message != "" {
		fmt.Fprintf(&b, "\n%s\n", inq.Message)
	}
	return mailMessage{
		Subject: "New inquiry " + inq.Reference,
		Body:    b.String(),
	}
}

// SMTPMailer sends mail through an authenticated SMTP relay.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string

	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		send:     smtp.SendMail,
	}
}

func (m *SMTPMailer) deliver(ctx context.Context, to string, msg mailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	raw := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n%s",
		m.from, to, msg.Subject, strings.ReplaceAll(msg.Body, "\n", "\r\n"))

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	if err := m.send(addr, auth, m.from, []string{to}, []byte(raw)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

func (m *SMTPMailer) SendOTP(ctx context.Context, to, code string, purpose otp.State, ttl time.Duration) error {
	return m.deliver(ctx, to, otpMessage(code, purpose, ttl))
}

func (m *SMTPMailer) SendWelcome(ctx context.Context, to, name string) error {
	return m.deliver(ctx, to, welcomeMessage(name))
}

func (m *SMTPMailer) SendAdminOTP(ctx context.Context, to, code string, ttl time.Duration) error {
	return m.deliver(ctx, to, adminOTPMessage(code, ttl))
}

func (m *SMTPMailer) SendInquiryNotification(ctx context.Context, to string, inquiry *models.Inquiry) error {
	return m.deliver(ctx, to, inquiryMessage(inquiry))
}

// LogMailer writes messages to the log instead of sending them. Used in
// development when no SMTP relay is configured.
type LogMailer struct {
	logger *zap.Logger
}

func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) log(level zapcore.Level, to string, msg mailMessage, fields ...zap.Field) {
	m.logger.Log(level, "email not sent (no SMTP configured)",
		append([]zap.Field{zap.String("to", to), zap.String("subject", msg.Subject)}, fields...)...)
}

func (m *LogMailer) SendOTP(_ context.Context, to, code string, purpose otp.State, ttl time.Duration) error {
	// codes only at debug so an info-level logger never records them
	m.log(zapcore.DebugLevel, to, otpMessage(code, purpose, ttl), zap.String("code", code))
	return nil
}

func (m *LogMailer) SendWelcome(_ context.Context, to, name string) error {
	m.log(zapcore.InfoLevel, to, welcomeMessage(name))
	return nil
}

func (m *LogMailer) SendAdminOTP(_ context.Context, to, code string, ttl time.Duration) error {
	m.log(zapcore.DebugLevel, to, adminOTPMessage(code, ttl), zap.String("code", code))
	return nil
}

func (m *LogMailer) SendInquiryNotification(_ context.Context, to string, inquiry *models.Inquiry) error {
	m.log(zapcore.InfoLevel, to, inquiryMessage(inquiry), zap.String("reference", inquiry.Reference))
	return nil
}
