package memory

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/baechuer/movie-review/services/auth-service/internal/application/auth"
)

// LogNotifier writes codes to the log instead of sending them. Dev only.
// It also keeps the last notification per email so local tooling and tests can read it.
type LogNotifier struct {
	log zerolog.Logger

	mu   sync.Mutex
	last map[string]auth.OTPNotification
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log, last: map[string]auth.OTPNotification{}}
}

func (n *LogNotifier) SendOTP(ctx context.Context, msg auth.OTPNotification) error {
	n.mu.Lock()
	n.last[msg.Email] = msg
	n.mu.Unlock()

	n.log.Info().
		Str("account_id", msg.AccountID).
		Str("email", msg.Email).
		Str("purpose", string(msg.Purpose)).
		Str("code", msg.Code).
		Time("expires_at", msg.ExpiresAt).
		Msg("otp (log notifier)")
	return nil
}

// Last returns the most recent notification sent to email.
func (n *LogNotifier) Last(email string) (auth.OTPNotification, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	msg, ok := n.last[email]
	return msg, ok
}
