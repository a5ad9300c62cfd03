package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/baechuer/movie-review/services/auth-service/internal/domain"
)

/*
Shared audit capture
*/

type auditEntry struct {
	action string
	fields map[string]string
}

/*
Clock
*/

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

/*
Fakes for ports
*/

type fakeAccountStore struct {
	mu sync.Mutex

	byID    map[string]domain.Account
	idByKey map[string]string // email -> id

	// injected errors (if set, method returns error)
	getByIDErr    error
	getByEmailErr error
	createErr     error
	markErr       error
	replaceErr    error
	resetErr      error

	// afterRead runs once, right after GetByEmail returns, to simulate a racing request.
	afterRead func()

	creates  int
	replaced []ReplaceChallenge
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{
		byID:    map[string]domain.Account{},
		idByKey: map[string]string{},
	}
}

func cloneAccount(a domain.Account) domain.Account {
	if a.Challenge != nil {
		ch := *a.Challenge
		a.Challenge = &ch
	}
	return a
}

// put seeds an account directly, bypassing the service.
func (f *fakeAccountStore) put(a domain.Account) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[a.ID] = cloneAccount(a)
	f.idByKey[a.Email] = a.ID
}

func (f *fakeAccountStore) get(t *testing.T, email string) domain.Account {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.idByKey[email]
	if !ok {
		t.Fatalf("no account stored for %q", email)
	}
	return cloneAccount(f.byID[id])
}

func (f *fakeAccountStore) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	a, err := f.getByEmail(email)
	if err == nil && f.afterRead != nil {
		hook := f.afterRead
		f.afterRead = nil
		hook()
	}
	return a, err
}

func (f *fakeAccountStore) getByEmail(email string) (domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getByEmailErr != nil {
		return domain.Account{}, f.getByEmailErr
	}
	id, ok := f.idByKey[email]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound()
	}
	return cloneAccount(f.byID[id]), nil
}

func (f *fakeAccountStore) GetByID(ctx context.Context, id string) (domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getByIDErr != nil {
		return domain.Account{}, f.getByIDErr
	}
	a, ok := f.byID[id]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound()
	}
	return cloneAccount(a), nil
}

func (f *fakeAccountStore) Create(ctx context.Context, a domain.Account) (domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return domain.Account{}, f.createErr
	}
	if _, ok := f.idByKey[a.Email]; ok {
		return domain.Account{}, domain.ErrEmailAlreadyExists()
	}
	f.byID[a.ID] = cloneAccount(a)
	f.idByKey[a.Email] = a.ID
	f.creates++
	return cloneAccount(a), nil
}

func (f *fakeAccountStore) MarkVerified(ctx context.Context, id string, upd MarkVerified) (domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.markErr != nil {
		return domain.Account{}, f.markErr
	}
	a, ok := f.byID[id]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound()
	}
	if !a.Challenge.Matches(upd.Code, domain.PurposeSignup) {
		return domain.Account{}, domain.ErrStaleChallenge()
	}
	a.Verified = true
	a.Challenge = nil
	a.UpdatedAt = upd.At
	f.byID[id] = a
	return cloneAccount(a), nil
}

func (f *fakeAccountStore) ReplaceChallenge(ctx context.Context, id string, upd ReplaceChallenge) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.replaceErr != nil {
		return f.replaceErr
	}
	a, ok := f.byID[id]
	if !ok {
		return domain.ErrAccountNotFound()
	}
	if upd.RequireUnverified && a.Verified {
		return domain.ErrAlreadyVerified()
	}
	ch := upd.Challenge
	a.Challenge = &ch
	a.UpdatedAt = upd.At
	f.byID[id] = a
	f.replaced = append(f.replaced, upd)
	return nil
}

func (f *fakeAccountStore) ResetPassword(ctx context.Context, id string, upd ResetPassword) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.resetErr != nil {
		return f.resetErr
	}
	a, ok := f.byID[id]
	if !ok {
		return domain.ErrAccountNotFound()
	}
	if !a.Challenge.Matches(upd.Code, domain.PurposePasswordReset) {
		return domain.ErrStaleChallenge()
	}
	a.PasswordHash = upd.PasswordHash
	a.Challenge = nil
	a.UpdatedAt = upd.At
	f.byID[id] = a
	return nil
}

type fakeHasher struct {
	hashFn    func(pw string) (string, error)
	compareFn func(hash, pw string) error
}

func (h *fakeHasher) Hash(password string) (string, error) {
	if h.hashFn != nil {
		return h.hashFn(password)
	}
	return "hash:" + password, nil
}

func (h *fakeHasher) Compare(hash string, password string) error {
	if h.compareFn != nil {
		return h.compareFn(hash, password)
	}
	if hash == "hash:"+password {
		return nil
	}
	return ErrPasswordMismatch
}

// fakeOTP hands out queued codes first, then a counter.
type fakeOTP struct {
	mu    sync.Mutex
	clock *fakeClock
	ttl   time.Duration

	queue []string
	next  int
	err   error
}

func (o *fakeOTP) Generate() (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.err != nil {
		return "", o.err
	}
	if len(o.queue) > 0 {
		c := o.queue[0]
		o.queue = o.queue[1:]
		return c, nil
	}
	o.next++
	return fmt.Sprintf("%06d", o.next), nil
}

func (o *fakeOTP) ExpiryFor(purpose domain.OTPPurpose) time.Time {
	return o.clock.Now().Add(o.ttl)
}

func (o *fakeOTP) enqueue(codes ...string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.queue = append(o.queue, codes...)
}

type fakeTokens struct {
	issueErr error
	issued   []Claims
}

func (s *fakeTokens) Issue(c Claims, ttl time.Duration) (string, error) {
	if s.issueErr != nil {
		return "", s.issueErr
	}
	s.issued = append(s.issued, c)
	return fmt.Sprintf("jwt(%s,%s,%s)", c.AccountID, c.Email, c.Role), nil
}

func (s *fakeTokens) Verify(token string) (TokenClaims, error) {
	return TokenClaims{}, domain.ErrTokenInvalid()
}

type fakeNotifier struct {
	mu   sync.Mutex
	err  error
	sent []OTPNotification
}

func (n *fakeNotifier) SendOTP(ctx context.Context, msg OTPNotification) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg)
	return nil
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

func (n *fakeNotifier) last(t *testing.T) OTPNotification {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sent) == 0 {
		t.Fatalf("expected a notification, got none")
	}
	return n.sent[len(n.sent)-1]
}

/*
Service factory for tests
*/

const testOTPTTL = 10 * time.Minute

type testEnv struct {
	svc      *Service
	accounts *fakeAccountStore
	hasher   *fakeHasher
	otp      *fakeOTP
	tokens   *fakeTokens
	notifier *fakeNotifier
	clock    *fakeClock
	audits   *[]auditEntry
}

func newSvcForTest(t *testing.T) testEnv {
	t.Helper()

	clock := newFakeClock()
	env := testEnv{
		accounts: newFakeAccountStore(),
		hasher:   &fakeHasher{},
		otp:      &fakeOTP{clock: clock, ttl: testOTPTTL},
		tokens:   &fakeTokens{},
		notifier: &fakeNotifier{},
		clock:    clock,
		audits:   &[]auditEntry{},
	}

	ids := 0
	cfg := Config{
		TokenTTL: 120 * time.Hour,
		Now:      clock.Now,
		NewID: func() string {
			ids++
			return fmt.Sprintf("acc-%d", ids)
		},
	}

	env.svc = NewService(env.accounts, env.hasher, env.otp, env.tokens, env.notifier, cfg).
		WithAudit(func(action string, fields map[string]string) {
			cp := map[string]string{}
			for k, v := range fields {
				cp[k] = v
			}
			*env.audits = append(*env.audits, auditEntry{action: action, fields: cp})
		})

	return env
}

// seedVerified stores a verified account with password "Passw0rd1" and no challenge.
func (e testEnv) seedVerified(email string) domain.Account {
	a := domain.Account{
		ID:           "seed-" + email,
		Name:         "Seed",
		Email:        email,
		PasswordHash: "hash:Passw0rd1",
		Role:         domain.RoleUser,
		Verified:     true,
		CreatedAt:    e.clock.Now(),
		UpdatedAt:    e.clock.Now(),
	}
	e.accounts.put(a)
	return a
}

/*
Small assertions
*/

func domainCode(err error) string {
	if err == nil {
		return ""
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return de.Code
	}
	return "non_domain_error"
}

func requireDomainCode(t *testing.T, err error, wantCode string) {
	t.Helper()
	got := domainCode(err)
	if got != wantCode {
		t.Fatalf("expected domain code %q, got %q (err=%v)", wantCode, got, err)
	}
}

func requireKind(t *testing.T, err error, want domain.ErrKind) {
	t.Helper()
	if got := domain.KindOf(err); got != want {
		t.Fatalf("expected kind %q, got %q (err=%v)", want, got, err)
	}
}

func lastAudit(audits *[]auditEntry) (auditEntry, bool) {
	if audits == nil || len(*audits) == 0 {
		return auditEntry{}, false
	}
	return (*audits)[len(*audits)-1], true
}

func requireAuditAction(t *testing.T, audits *[]auditEntry, wantAction string) auditEntry {
	t.Helper()
	e, ok := lastAudit(audits)
	if !ok {
		t.Fatalf("expected audit entry, got none")
	}
	if e.action != wantAction {
		t.Fatalf("expected audit action %q, got %q", wantAction, e.action)
	}
	return e
}

func requireAuditField(t *testing.T, e auditEntry, k, want string) {
	t.Helper()
	got := strings.TrimSpace(e.fields[k])
	if got != want {
		t.Fatalf("expected audit field %q=%q, got %q (all=%v)", k, want, got, e.fields)
	}
}
