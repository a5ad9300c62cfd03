package audit

import (
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// Logger provides structured audit logging for auth business events
type Logger struct {
	log zerolog.Logger
}

// New creates a new audit logger
func New(log zerolog.Logger) *Logger {
	return &Logger{
		log: log.With().Bool("audit", true).Logger(),
	}
}

// human-readable message per action; unknown actions fall back to "audit"
var messages = map[string]string{
	"signup":                   "Account signed up, verification code sent",
	"otp_verified":             "Email verified",
	"otp_resent":               "Verification code resent",
	"login_success":            "User logged in successfully",
	"login_failed":             "Login attempt failed",
	"password_reset_requested": "Password reset requested",
	"password_reset_completed": "Password reset completed",
}

// warn-level actions
var warnActions = map[string]bool{
	"login_failed": true,
}

// Record writes one audit line. It matches the service's audit hook signature.
// Email values are masked before they reach the log.
func (l *Logger) Record(action string, fields map[string]string) {
	evt := l.log.Info()
	if warnActions[action] {
		evt = l.log.Warn()
	}
	evt = evt.Str("action", action)

	// stable field order keeps log lines diffable
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := fields[k]
		if k == "email" {
			v = maskEmail(v)
		}
		evt = evt.Str(k, v)
	}

	msg, ok := messages[action]
	if !ok {
		msg = "audit"
	}
	evt.Msg(msg)
}

// maskEmail partially masks email for privacy in logs
func maskEmail(email string) string {
	if len(email) < 5 {
		return "***"
	}
	// Show first 2 chars and domain
	at := strings.IndexByte(email, '@')
	if at < 0 {
		return email[:2] + "***"
	}
	if at < 2 {
		return email[:1] + "***" + email[at:]
	}
	return email[:2] + "***" + email[at:]
}
