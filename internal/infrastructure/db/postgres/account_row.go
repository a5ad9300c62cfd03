package postgres

import (
	"database/sql"
	"time"

	"github.com/baechuer/movie-review/services/auth-service/internal/domain"
)

const accountColumns = `id, name, email, password_hash, role, verified, otp_code, otp_expires_at, otp_purpose, created_at, updated_at`

type accountRow struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         string
	Verified     bool
	OTPCode      sql.NullString
	OTPExpiresAt sql.NullTime
	OTPPurpose   sql.NullString
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccountRow(row rowScanner) (accountRow, error) {
	var ar accountRow
	err := row.Scan(
		&ar.ID,
		&ar.Name,
		&ar.Email,
		&ar.PasswordHash,
		&ar.Role,
		&ar.Verified,
		&ar.OTPCode,
		&ar.OTPExpiresAt,
		&ar.OTPPurpose,
		&ar.CreatedAt,
		&ar.UpdatedAt,
	)
	return ar, err
}

// toDomainAccount refuses rows that break the all-or-none OTP rule.
func toDomainAccount(ar accountRow) (domain.Account, error) {
	if !domain.IsValidRole(ar.Role) {
		return domain.Account{}, domain.ErrCorruptAccount("role")
	}

	a := domain.Account{
		ID:           ar.ID,
		Name:         ar.Name,
		Email:        ar.Email,
		PasswordHash: ar.PasswordHash,
		Role:         domain.Role(ar.Role),
		Verified:     ar.Verified,
		CreatedAt:    ar.CreatedAt.UTC(),
		UpdatedAt:    ar.UpdatedAt.UTC(),
	}

	switch {
	case !ar.OTPCode.Valid && !ar.OTPExpiresAt.Valid && !ar.OTPPurpose.Valid:
	case ar.OTPCode.Valid && ar.OTPExpiresAt.Valid && ar.OTPPurpose.Valid:
		if !domain.IsValidPurpose(ar.OTPPurpose.String) {
			return domain.Account{}, domain.ErrCorruptAccount("otp_purpose")
		}
		a.Challenge = &domain.Challenge{
			Code:      ar.OTPCode.String,
			ExpiresAt: ar.OTPExpiresAt.Time.UTC(),
			Purpose:   domain.OTPPurpose(ar.OTPPurpose.String),
		}
	default:
		return domain.Account{}, domain.ErrCorruptAccount("otp")
	}
	return a, nil
}

// challengeArgs flattens a challenge into the three nullable columns.
func challengeArgs(ch *domain.Challenge) (sql.NullString, sql.NullTime, sql.NullString) {
	if ch == nil {
		return sql.NullString{}, sql.NullTime{}, sql.NullString{}
	}
	return sql.NullString{String: ch.Code, Valid: true},
		sql.NullTime{Time: ch.ExpiresAt.UTC(), Valid: true},
		sql.NullString{String: string(ch.Purpose), Valid: true}
}
