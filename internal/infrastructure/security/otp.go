package security

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/baechuer/movie-review/services/auth-service/internal/domain"
)

const (
	OTPDigits     = 6
	DefaultOTPTTL = 10 * time.Minute
)

var otpSpace = big.NewInt(1_000_000) // 10^OTPDigits

// OTPGenerator draws codes uniformly from 000000..999999. Leading zeros are kept.
type OTPGenerator struct {
	ttl    time.Duration
	now    func() time.Time
	random io.Reader
}

func NewOTPGenerator(ttl time.Duration, now func() time.Time) *OTPGenerator {
	if ttl <= 0 {
		ttl = DefaultOTPTTL
	}
	if now == nil {
		now = time.Now
	}
	return &OTPGenerator{ttl: ttl, now: now, random: rand.Reader}
}

func (g *OTPGenerator) Generate() (string, error) {
	n, err := rand.Int(g.random, otpSpace)
	if err != nil {
		return "", domain.ErrRandomFailed(err)
	}
	return fmt.Sprintf("%0*d", OTPDigits, n.Int64()), nil
}

// ExpiryFor is the same window for both purposes.
func (g *OTPGenerator) ExpiryFor(purpose domain.OTPPurpose) time.Time {
	return g.now().Add(g.ttl)
}
