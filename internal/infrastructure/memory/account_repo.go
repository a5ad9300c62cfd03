package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/baechuer/movie-review/services/auth-service/internal/application/auth"
	"github.com/baechuer/movie-review/services/auth-service/internal/domain"
)

// AccountRepo is an in-process auth.AccountStore for dev and tests.
// A single mutex makes every guarded write trivially atomic.
type AccountRepo struct {
	mu      sync.RWMutex
	byID    map[string]domain.Account
	byEmail map[string]string // email -> accountID
}

func NewAccountRepo() *AccountRepo {
	return &AccountRepo{
		byID:    make(map[string]domain.Account),
		byEmail: make(map[string]string),
	}
}

var _ auth.AccountStore = (*AccountRepo)(nil)

// copies keep callers from mutating stored challenges through the pointer
func clone(a domain.Account) domain.Account {
	if a.Challenge != nil {
		ch := *a.Challenge
		a.Challenge = &ch
	}
	return a
}

func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return domain.Account{}, domain.ErrAccountNotFound()
	}
	id, ok := r.byEmail[email]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound()
	}
	return clone(r.byID[id]), nil
}

func (r *AccountRepo) GetByID(ctx context.Context, id string) (domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound()
	}
	return clone(a), nil
}

func (r *AccountRepo) Create(ctx context.Context, a domain.Account) (domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	if a.Email == "" {
		return domain.Account{}, domain.ErrMissingField("email")
	}
	if _, exists := r.byEmail[a.Email]; exists {
		return domain.Account{}, domain.ErrEmailAlreadyExists()
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Role == "" {
		a.Role = domain.RoleUser
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = a.CreatedAt
	}

	r.byID[a.ID] = clone(a)
	r.byEmail[a.Email] = a.ID
	return clone(a), nil
}

func (r *AccountRepo) MarkVerified(ctx context.Context, id string, upd auth.MarkVerified) (domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound()
	}
	if !a.Challenge.Matches(upd.Code, domain.PurposeSignup) {
		return domain.Account{}, domain.ErrStaleChallenge()
	}
	a.Verified = true
	a.Challenge = nil
	a.UpdatedAt = stamp(upd.At)
	r.byID[id] = a
	return clone(a), nil
}

func (r *AccountRepo) ReplaceChallenge(ctx context.Context, id string, upd auth.ReplaceChallenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return domain.ErrAccountNotFound()
	}
	if upd.RequireUnverified && a.Verified {
		return domain.ErrAlreadyVerified()
	}
	ch := upd.Challenge
	a.Challenge = &ch
	a.UpdatedAt = stamp(upd.At)
	r.byID[id] = a
	return nil
}

func (r *AccountRepo) ResetPassword(ctx context.Context, id string, upd auth.ResetPassword) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return domain.ErrAccountNotFound()
	}
	if !a.Challenge.Matches(upd.Code, domain.PurposePasswordReset) {
		return domain.ErrStaleChallenge()
	}
	a.PasswordHash = upd.PasswordHash
	a.Challenge = nil
	a.UpdatedAt = stamp(upd.At)
	r.byID[id] = a
	return nil
}

func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}
