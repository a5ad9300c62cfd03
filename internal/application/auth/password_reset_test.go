package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/baechuer/movie-review/services/auth-service/internal/domain"
)

func TestForgotPassword_IssuesResetChallenge(t *testing.T) {
	t.Parallel()

	env := newSvcForTest(t)
	env.seedVerified("bob@example.com")
	env.otp.enqueue("917420")

	if err := env.svc.ForgotPassword(context.Background(), "bob@example.com"); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}

	a := env.accounts.get(t, "bob@example.com")
	if !a.Verified {
		t.Fatalf("verified flag must be untouched")
	}
	if a.Challenge == nil || a.Challenge.Code != "917420" || a.Challenge.Purpose != domain.PurposePasswordReset {
		t.Fatalf("unexpected challenge: %+v", a.Challenge)
	}
	if n := env.notifier.last(t); n.Purpose != domain.PurposePasswordReset {
		t.Fatalf("expected reset notification, got %+v", n)
	}
	requireAuditAction(t, env.audits, "password_reset_requested")
}

func TestForgotPassword_UnverifiedAccount_OverwritesSignupChallenge(t *testing.T) {
	t.Parallel()

	env := newSvcForTest(t)
	signupAlice(t, env, "482193")
	env.otp.enqueue("555666")

	if err := env.svc.ForgotPassword(context.Background(), "alice@example.com"); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	a := env.accounts.get(t, "alice@example.com")
	if a.Verified || a.Challenge.Purpose != domain.PurposePasswordReset {
		t.Fatalf("unexpected state: %+v", a)
	}
}

func TestForgotPassword_UnknownEmail_NotFound(t *testing.T) {
	t.Parallel()

	env := newSvcForTest(t)
	err := env.svc.ForgotPassword(context.Background(), "ghost@example.com")
	requireDomainCode(t, err, "account_not_found")
}

func TestForgotPassword_StoreFail_PassesThrough(t *testing.T) {
	t.Parallel()

	env := newSvcForTest(t)
	env.seedVerified("bob@example.com")
	env.accounts.replaceErr = domain.ErrDBUnavailable(errors.New("down"))

	err := env.svc.ForgotPassword(context.Background(), "bob@example.com")
	requireDomainCode(t, err, "db_unavailable")
}

func TestResetPassword_Success_ReplacesHashAndClearsChallenge(t *testing.T) {
	t.Parallel()

	env := newSvcForTest(t)
	env.seedVerified("bob@example.com")
	env.otp.enqueue("917420")
	if err := env.svc.ForgotPassword(context.Background(), "bob@example.com"); err != nil {
		t.Fatalf("forgot: %v", err)
	}

	if err := env.svc.ResetPassword(context.Background(), "bob@example.com", "917420", "NewPass2"); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}

	a := env.accounts.get(t, "bob@example.com")
	if a.PasswordHash != "hash:NewPass2" || a.Challenge != nil || !a.Verified {
		t.Fatalf("unexpected state: %+v", a)
	}
	if len(env.tokens.issued) != 0 {
		t.Fatalf("reset must not issue a token")
	}
	requireAuditAction(t, env.audits, "password_reset_completed")
}

func TestResetPassword_UnverifiedAccount_StaysUnverified(t *testing.T) {
	t.Parallel()

	env := newSvcForTest(t)
	signupAlice(t, env, "482193")
	env.otp.enqueue("555666")
	if err := env.svc.ForgotPassword(context.Background(), "alice@example.com"); err != nil {
		t.Fatalf("forgot: %v", err)
	}

	if err := env.svc.ResetPassword(context.Background(), "alice@example.com", "555666", "NewPass2"); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if env.accounts.get(t, "alice@example.com").Verified {
		t.Fatalf("reset must not verify the account")
	}
}

func TestResetPassword_SignupPurposeCode_InvalidOTP(t *testing.T) {
	t.Parallel()

	env := newSvcForTest(t)
	signupAlice(t, env, "482193")

	err := env.svc.ResetPassword(context.Background(), "alice@example.com", "482193", "NewPass2")
	requireDomainCode(t, err, "invalid_otp")

	a := env.accounts.get(t, "alice@example.com")
	if a.PasswordHash != "hash:Passw0rd1" || a.Challenge == nil {
		t.Fatalf("state changed after rejected reset: %+v", a)
	}
}

func TestResetPassword_WrongCode_InvalidOTP(t *testing.T) {
	t.Parallel()

	env := newSvcForTest(t)
	env.seedVerified("bob@example.com")
	env.otp.enqueue("917420")
	_ = env.svc.ForgotPassword(context.Background(), "bob@example.com")

	err := env.svc.ResetPassword(context.Background(), "bob@example.com", "917421", "NewPass2")
	requireDomainCode(t, err, "invalid_otp")
}

func TestResetPassword_NoChallenge_InvalidOTP(t *testing.T) {
	t.Parallel()

	env := newSvcForTest(t)
	env.seedVerified("bob@example.com")

	err := env.svc.ResetPassword(context.Background(), "bob@example.com", "123456", "NewPass2")
	requireDomainCode(t, err, "invalid_otp")
}

func TestResetPassword_Expired_OTPExpired(t *testing.T) {
	t.Parallel()

	env := newSvcForTest(t)
	env.seedVerified("bob@example.com")
	env.otp.enqueue("917420")
	_ = env.svc.ForgotPassword(context.Background(), "bob@example.com")
	env.clock.Advance(testOTPTTL + time.Millisecond)

	err := env.svc.ResetPassword(context.Background(), "bob@example.com", "917420", "NewPass2")
	requireDomainCode(t, err, "otp_expired")
	requireKind(t, err, domain.KindOTPExpired)

	if env.accounts.get(t, "bob@example.com").PasswordHash != "hash:Passw0rd1" {
		t.Fatalf("password changed after expired reset")
	}
}

func TestResetPassword_UnknownEmail_NotFound(t *testing.T) {
	t.Parallel()

	env := newSvcForTest(t)
	err := env.svc.ResetPassword(context.Background(), "ghost@example.com", "123456", "NewPass2")
	requireDomainCode(t, err, "account_not_found")
}

func TestResetPassword_EmptyPassword_MissingField(t *testing.T) {
	t.Parallel()

	env := newSvcForTest(t)
	err := env.svc.ResetPassword(context.Background(), "bob@example.com", "123456", "")
	requireDomainCode(t, err, "missing_field")
}

func TestResetPassword_ChallengeReplacedConcurrently_Stale(t *testing.T) {
	t.Parallel()

	env := newSvcForTest(t)
	env.seedVerified("bob@example.com")
	env.otp.enqueue("917420")
	_ = env.svc.ForgotPassword(context.Background(), "bob@example.com")

	env.accounts.afterRead = func() {
		a := env.accounts.get(t, "bob@example.com")
		a.Challenge = &domain.Challenge{Code: "000111", Purpose: domain.PurposePasswordReset, ExpiresAt: env.clock.Now().Add(time.Minute)}
		env.accounts.put(a)
	}

	err := env.svc.ResetPassword(context.Background(), "bob@example.com", "917420", "NewPass2")
	requireDomainCode(t, err, "otp_stale")

	if env.accounts.get(t, "bob@example.com").PasswordHash != "hash:Passw0rd1" {
		t.Fatalf("password replaced despite stale challenge")
	}
}

func TestResetPassword_HashFail_NothingWritten(t *testing.T) {
	t.Parallel()

	env := newSvcForTest(t)
	env.seedVerified("bob@example.com")
	env.otp.enqueue("917420")
	_ = env.svc.ForgotPassword(context.Background(), "bob@example.com")
	env.hasher.hashFn = func(string) (string, error) { return "", errors.New("cost") }

	err := env.svc.ResetPassword(context.Background(), "bob@example.com", "917420", "NewPass2")
	requireDomainCode(t, err, "hash_failed")

	if env.accounts.get(t, "bob@example.com").Challenge == nil {
		t.Fatalf("challenge consumed despite hash failure")
	}
}
