package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/baechuer/movie-review/services/auth-service/internal/application/auth"
	"github.com/baechuer/movie-review/services/auth-service/internal/domain"
)

// AccountRepo is the Postgres auth.AccountStore.
// Challenge writes are single UPDATE statements guarded by the expected prior state.
type AccountRepo struct {
	db *sql.DB
}

func NewAccountRepo(db *sql.DB) *AccountRepo {
	return &AccountRepo{db: db}
}

var _ auth.AccountStore = (*AccountRepo)(nil)

// ---------- helpers ----------

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func (r *AccountRepo) queryOne(ctx context.Context, q string, args ...any) (domain.Account, error) {
	ar, err := scanAccountRow(r.db.QueryRowContext(ctx, q, args...))
	if err != nil {
		if isNoRows(err) {
			return domain.Account{}, domain.ErrAccountNotFound()
		}
		return domain.Account{}, domain.ErrDBUnavailable(err)
	}
	return toDomainAccount(ar)
}

// explainMiss runs after a guarded write touched no rows: either the account
// is gone, or its state moved on and guardErr applies.
func (r *AccountRepo) explainMiss(ctx context.Context, id string, guardErr *domain.Error) error {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM accounts WHERE id = $1`, id).Scan(&one)
	if err != nil {
		if isNoRows(err) {
			return domain.ErrAccountNotFound()
		}
		return domain.ErrDBUnavailable(err)
	}
	return guardErr
}

// ---------- auth.AccountStore ----------

func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	email = normalizeEmail(email)
	if email == "" {
		return domain.Account{}, domain.ErrAccountNotFound()
	}

	const q = `SELECT ` + accountColumns + `
FROM accounts
WHERE email = $1
LIMIT 1;`
	return r.queryOne(ctx, q, email)
}

func (r *AccountRepo) GetByID(ctx context.Context, id string) (domain.Account, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Account{}, domain.ErrAccountNotFound()
	}

	const q = `SELECT ` + accountColumns + `
FROM accounts
WHERE id = $1
LIMIT 1;`
	return r.queryOne(ctx, q, id)
}

func (r *AccountRepo) Create(ctx context.Context, a domain.Account) (domain.Account, error) {
	a.Email = normalizeEmail(a.Email)
	switch {
	case a.ID == "":
		return domain.Account{}, domain.ErrMissingField("id")
	case a.Email == "":
		return domain.Account{}, domain.ErrMissingField("email")
	case a.PasswordHash == "":
		return domain.Account{}, domain.ErrMissingField("password_hash")
	}
	if a.Role == "" {
		a.Role = domain.RoleUser
	}
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = a.CreatedAt
	}
	code, expires, purpose := challengeArgs(a.Challenge)

	const q = `
INSERT INTO accounts (id, name, email, password_hash, role, verified, otp_code, otp_expires_at, otp_purpose, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
RETURNING ` + accountColumns + `;`

	ar, err := scanAccountRow(r.db.QueryRowContext(ctx, q,
		a.ID, a.Name, a.Email, a.PasswordHash, string(a.Role), a.Verified,
		code, expires, purpose, a.CreatedAt.UTC(), a.UpdatedAt.UTC(),
	))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Account{}, domain.ErrEmailAlreadyExists()
		}
		return domain.Account{}, domain.ErrDBUnavailable(err)
	}
	return toDomainAccount(ar)
}

func (r *AccountRepo) MarkVerified(ctx context.Context, id string, upd auth.MarkVerified) (domain.Account, error) {
	const q = `
UPDATE accounts
SET verified = TRUE,
    otp_code = NULL,
    otp_expires_at = NULL,
    otp_purpose = NULL,
    updated_at = $3
WHERE id = $1 AND otp_code = $2 AND otp_purpose = 'signup'
RETURNING ` + accountColumns + `;`

	ar, err := scanAccountRow(r.db.QueryRowContext(ctx, q, id, upd.Code, stamp(upd.At)))
	if err != nil {
		if isNoRows(err) {
			return domain.Account{}, r.explainMiss(ctx, id, domain.ErrStaleChallenge())
		}
		return domain.Account{}, domain.ErrDBUnavailable(err)
	}
	return toDomainAccount(ar)
}

func (r *AccountRepo) ReplaceChallenge(ctx context.Context, id string, upd auth.ReplaceChallenge) error {
	code, expires, purpose := challengeArgs(&upd.Challenge)

	const q = `
UPDATE accounts
SET otp_code = $2,
    otp_expires_at = $3,
    otp_purpose = $4,
    updated_at = $5
WHERE id = $1 AND ($6::boolean = FALSE OR verified = FALSE);`

	res, err := r.db.ExecContext(ctx, q, id, code, expires, purpose, stamp(upd.At), upd.RequireUnverified)
	if err != nil {
		return domain.ErrDBUnavailable(err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return r.explainMiss(ctx, id, domain.ErrAlreadyVerified())
	}
	return nil
}

func (r *AccountRepo) ResetPassword(ctx context.Context, id string, upd auth.ResetPassword) error {
	if upd.PasswordHash == "" {
		return domain.ErrMissingField("password_hash")
	}

	const q = `
UPDATE accounts
SET password_hash = $3,
    otp_code = NULL,
    otp_expires_at = NULL,
    otp_purpose = NULL,
    updated_at = $4
WHERE id = $1 AND otp_code = $2 AND otp_purpose = 'password_reset';`

	res, err := r.db.ExecContext(ctx, q, id, upd.Code, upd.PasswordHash, stamp(upd.At))
	if err != nil {
		return domain.ErrDBUnavailable(err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return r.explainMiss(ctx, id, domain.ErrStaleChallenge())
	}
	return nil
}

func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}
