package redis

import (
	"fmt"
	"strings"
	"time"

	"github.com/baechuer/movie-review/services/auth-service/internal/domain"
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}

// encodeAccount flattens an account into HSET field/value pairs.
// Challenge fields are written only when a challenge is present.
func encodeAccount(a domain.Account) []any {
	verified := "0"
	if a.Verified {
		verified = "1"
	}
	out := []any{
		fID, a.ID,
		fName, a.Name,
		fEmail, a.Email,
		fPasswordHash, a.PasswordHash,
		fRole, string(a.Role),
		fVerified, verified,
		fCreatedAt, formatTime(a.CreatedAt),
		fUpdatedAt, formatTime(a.UpdatedAt),
	}
	if a.Challenge != nil {
		out = append(out,
			fOTPCode, a.Challenge.Code,
			fOTPExpiresAt, formatTime(a.Challenge.ExpiresAt),
			fOTPPurpose, string(a.Challenge.Purpose),
		)
	}
	return out
}

func decodeAccount(m map[string]string) (domain.Account, error) {
	if !domain.IsValidRole(m[fRole]) {
		return domain.Account{}, domain.ErrCorruptAccount(fRole)
	}
	created, err := time.Parse(time.RFC3339Nano, m[fCreatedAt])
	if err != nil {
		return domain.Account{}, domain.ErrCorruptAccount(fCreatedAt)
	}
	updated, err := time.Parse(time.RFC3339Nano, m[fUpdatedAt])
	if err != nil {
		return domain.Account{}, domain.ErrCorruptAccount(fUpdatedAt)
	}

	a := domain.Account{
		ID:           m[fID],
		Name:         m[fName],
		Email:        m[fEmail],
		PasswordHash: m[fPasswordHash],
		Role:         domain.Role(m[fRole]),
		Verified:     m[fVerified] == "1",
		CreatedAt:    created.UTC(),
		UpdatedAt:    updated.UTC(),
	}

	code, hasCode := m[fOTPCode]
	exp, hasExp := m[fOTPExpiresAt]
	purpose, hasPurpose := m[fOTPPurpose]
	switch {
	case !hasCode && !hasExp && !hasPurpose:
	case hasCode && hasExp && hasPurpose:
		if !domain.IsValidPurpose(purpose) {
			return domain.Account{}, domain.ErrCorruptAccount(fOTPPurpose)
		}
		expiresAt, err := time.Parse(time.RFC3339Nano, exp)
		if err != nil {
			return domain.Account{}, domain.ErrCorruptAccount(fOTPExpiresAt)
		}
		a.Challenge = &domain.Challenge{
			Code:      code,
			ExpiresAt: expiresAt.UTC(),
			Purpose:   domain.OTPPurpose(purpose),
		}
	default:
		return domain.Account{}, domain.ErrCorruptAccount("otp")
	}
	return a, nil
}

// pairsToMap turns a HGETALL script reply into a map.
func pairsToMap(vals []any) (map[string]string, error) {
	if len(vals)%2 != 0 {
		return nil, fmt.Errorf("odd HGETALL reply length %d", len(vals))
	}
	m := make(map[string]string, len(vals)/2)
	for i := 0; i < len(vals); i += 2 {
		k, ok1 := vals[i].(string)
		v, ok2 := vals[i+1].(string)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("non-string HGETALL entry at %d", i)
		}
		m[k] = v
	}
	return m, nil
}
