package email

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"

	"github.com/baechuer/movie-review/services/auth-service/internal/application/auth"
	"github.com/baechuer/movie-review/services/auth-service/internal/domain"
)

// SMTPNotifier sends OTP emails straight from the auth service.
type SMTPNotifier struct {
	lg zerolog.Logger

	host     string
	port     int
	user     string
	pass     string
	from     string
	insecure bool

	timeout time.Duration
	now     func() time.Time

	// send is swapped in tests
	send func(ctx context.Context, c *mail.Client, m *mail.Msg) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
	Insecure bool
}

func NewSMTPNotifier(cfg SMTPConfig, lg zerolog.Logger, now func() time.Time) *SMTPNotifier {
	if now == nil {
		now = time.Now
	}
	return &SMTPNotifier{
		lg:       lg.With().Str("component", "smtp_notifier").Logger(),
		host:     cfg.Host,
		port:     cfg.Port,
		user:     cfg.Username,
		pass:     cfg.Password,
		from:     cfg.From,
		insecure: cfg.Insecure,
		timeout:  cfg.Timeout,
		now:      now,
		send: func(ctx context.Context, c *mail.Client, m *mail.Msg) error {
			return c.DialAndSendWithContext(ctx, m)
		},
	}
}

// PermanentError marks a failure retrying will not fix (bad address, rejected credentials).
type PermanentError struct{ msg string }

func (e PermanentError) Error() string { return e.msg }

// TemporaryError marks a failure that may succeed on a later attempt.
type TemporaryError struct{ msg string }

func (e TemporaryError) Error() string { return e.msg }

func (s *SMTPNotifier) SendOTP(ctx context.Context, n auth.OTPNotification) error {
	subject, text, htmlBody, err := renderOTP(n, s.now())
	if err != nil {
		return err
	}
	return s.deliver(ctx, n.Email, subject, text, htmlBody)
}

// renderOTP builds subject, text and HTML bodies for the purpose.
func renderOTP(n auth.OTPNotification, now time.Time) (subject, text, htmlBody string, err error) {
	mins := int(n.ExpiresAt.Sub(now).Round(time.Minute).Minutes())
	if mins < 1 {
		mins = 1
	}
	name := n.Name
	if name == "" {
		name = "there"
	}

	var intro string
	switch n.Purpose {
	case domain.PurposeSignup:
		subject = "Verify your email"
		intro = "Thanks for signing up. Use this code to verify your email address."
	case domain.PurposePasswordReset:
		subject = "Reset your password"
		intro = "We received a request to reset your password. Use this code to choose a new one."
	default:
		return "", "", "", PermanentError{msg: fmt.Sprintf("unknown otp purpose %q", n.Purpose)}
	}

	text = fmt.Sprintf("Hi %s,\n\n%s\n\n    %s\n\nThe code expires in %d minutes. If you did not ask for it, ignore this email.\n",
		name, intro, n.Code, mins)
	htmlBody = renderCodeHTML(subject, "Hi "+name+",", intro, n.Code, mins)
	return subject, text, htmlBody, nil
}

func (s *SMTPNotifier) deliver(ctx context.Context, to, subject, textBody, htmlBody string) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	m := mail.NewMsg()
	if err := m.From(s.from); err != nil {
		return PermanentError{msg: "invalid from address: " + err.Error()}
	}
	if err := m.To(to); err != nil {
		return PermanentError{msg: "invalid to address: " + err.Error()}
	}
	m.Subject(subject)

	// Text fallback + HTML alternative
	m.SetBodyString(mail.TypeTextPlain, textBody)
	m.AddAlternativeString(mail.TypeTextHTML, htmlBody)

	tlsPolicy := mail.TLSMandatory
	if s.insecure {
		tlsPolicy = mail.TLSOpportunistic
	}

	opts := []mail.Option{
		mail.WithPort(s.port),
		mail.WithTLSPolicy(tlsPolicy),
	}
	if s.user != "" {
		opts = append(opts, mail.WithSMTPAuth(mail.SMTPAuthPlain), mail.WithUsername(s.user), mail.WithPassword(s.pass))
	}

	c, err := mail.NewClient(s.host, opts...)
	if err != nil {
		return PermanentError{msg: "smtp client init failed: " + err.Error()}
	}

	if err := s.send(ctx, c, m); err != nil {
		s.lg.Error().Err(err).Str("subject", subject).Msg("smtp send failed")

		msg := err.Error()
		if containsAny(msg, "535", "5.7.8", "authentication", "Username and Password not accepted") {
			return PermanentError{msg: "smtp auth failed: " + msg}
		}
		return TemporaryError{msg: "smtp transient failure: " + msg}
	}

	s.lg.Info().Str("subject", subject).Msg("smtp send ok")
	return nil
}

func renderCodeHTML(title, greeting, intro, code string, mins int) string {
	escTitle := html.EscapeString(title)
	escGreeting := html.EscapeString(greeting)
	escIntro := html.EscapeString(intro)
	escCode := html.EscapeString(code)

	return `<!doctype html>
<html>
  <body style="font-family:Arial,Helvetica,sans-serif; line-height:1.4;">
    <h2>` + escTitle + `</h2>
    <p>` + escGreeting + `</p>
    <p>` + escIntro + `</p>

    <p style="font-size:28px; letter-spacing:6px; font-weight:bold; background:#f4f4f4; padding:12px 16px; display:inline-block; border-radius:6px;">
      ` + escCode + `
    </p>

    <p style="color:#555; font-size:12px;">
      The code expires in ` + fmt.Sprint(mins) + ` minutes. If you did not ask for it, ignore this email.
    </p>
  </body>
</html>`
}

func containsAny(s string, subs ...string) bool {
	for _, x := range subs {
		if x != "" && strings.Contains(s, x) {
			return true
		}
	}
	return false
}
