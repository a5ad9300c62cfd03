package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/baechuer/movie-review/services/auth-service/internal/application/auth"
	"github.com/baechuer/movie-review/services/auth-service/internal/domain"
)

// AccountStore keeps each account in a hash and an email -> id index key.
// Guarded writes run as Lua scripts so the check and the write are one step.
type AccountStore struct {
	rdb    *goredis.Client
	prefix string // e.g. "account:"
}

func NewAccountStore(c *Client) *AccountStore {
	var rdb *goredis.Client
	if c != nil {
		rdb = c.rdb
	}
	return &AccountStore{
		rdb:    rdb,
		prefix: "account:",
	}
}

var _ auth.AccountStore = (*AccountStore)(nil)

var errNotConfigured = errors.New("redis account store not configured")

const (
	fID           = "id"
	fName         = "name"
	fEmail        = "email"
	fPasswordHash = "password_hash"
	fRole         = "role"
	fVerified     = "verified"
	fOTPCode      = "otp_code"
	fOTPExpiresAt = "otp_expires_at"
	fOTPPurpose   = "otp_purpose"
	fCreatedAt    = "created_at"
	fUpdatedAt    = "updated_at"
)

// Script replies. Anything else is the account hash as a flat list.
const (
	replyOK       = "ok"
	replyMissing  = "missing"
	replyStale    = "stale"
	replyVerified = "verified"
	replyDup      = "dup"
)

// KEYS[1]=email index, KEYS[2]=account hash; ARGV[1]=id, ARGV[2..]=field/value pairs
var createScript = goredis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 or redis.call("EXISTS", KEYS[2]) == 1 then
  return "dup"
end
redis.call("SET", KEYS[1], ARGV[1])
redis.call("HSET", KEYS[2], unpack(ARGV, 2))
return "ok"
`)

// KEYS[1]=account hash; ARGV[1]=code, ARGV[2]=updated_at
var markVerifiedScript = goredis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
  return "missing"
end
local code = redis.call("HGET", KEYS[1], "otp_code")
local purpose = redis.call("HGET", KEYS[1], "otp_purpose")
if code ~= ARGV[1] or purpose ~= "signup" then
  return "stale"
end
redis.call("HDEL", KEYS[1], "otp_code", "otp_expires_at", "otp_purpose")
redis.call("HSET", KEYS[1], "verified", "1", "updated_at", ARGV[2])
return redis.call("HGETALL", KEYS[1])
`)

// KEYS[1]=account hash; ARGV = code, expires_at, purpose, updated_at, require_unverified
var replaceChallengeScript = goredis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
  return "missing"
end
if ARGV[5] == "1" and redis.call("HGET", KEYS[1], "verified") == "1" then
  return "verified"
end
redis.call("HSET", KEYS[1], "otp_code", ARGV[1], "otp_expires_at", ARGV[2], "otp_purpose", ARGV[3], "updated_at", ARGV[4])
return "ok"
`)

// KEYS[1]=account hash; ARGV = code, password_hash, updated_at
var resetPasswordScript = goredis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
  return "missing"
end
local code = redis.call("HGET", KEYS[1], "otp_code")
local purpose = redis.call("HGET", KEYS[1], "otp_purpose")
if code ~= ARGV[1] or purpose ~= "password_reset" then
  return "stale"
end
redis.call("HDEL", KEYS[1], "otp_code", "otp_expires_at", "otp_purpose")
redis.call("HSET", KEYS[1], "password_hash", ARGV[2], "updated_at", ARGV[3])
return "ok"
`)

func (s *AccountStore) accountKey(id string) string { return s.prefix + id }

func (s *AccountStore) emailKey(email string) string { return s.prefix + "email:" + email }

func (s *AccountStore) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	email = normalizeEmail(email)
	if email == "" {
		return domain.Account{}, domain.ErrAccountNotFound()
	}
	if s.rdb == nil {
		return domain.Account{}, errNotConfigured
	}

	id, err := s.rdb.Get(ctx, s.emailKey(email)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return domain.Account{}, domain.ErrAccountNotFound()
		}
		return domain.Account{}, domain.ErrRedisUnavailable(err)
	}
	return s.GetByID(ctx, id)
}

func (s *AccountStore) GetByID(ctx context.Context, id string) (domain.Account, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Account{}, domain.ErrAccountNotFound()
	}
	if s.rdb == nil {
		return domain.Account{}, errNotConfigured
	}

	fields, err := s.rdb.HGetAll(ctx, s.accountKey(id)).Result()
	if err != nil {
		return domain.Account{}, domain.ErrRedisUnavailable(err)
	}
	if len(fields) == 0 {
		return domain.Account{}, domain.ErrAccountNotFound()
	}
	return decodeAccount(fields)
}

func (s *AccountStore) Create(ctx context.Context, a domain.Account) (domain.Account, error) {
	a.Email = normalizeEmail(a.Email)
	switch {
	case a.ID == "":
		return domain.Account{}, domain.ErrMissingField("id")
	case a.Email == "":
		return domain.Account{}, domain.ErrMissingField("email")
	case a.PasswordHash == "":
		return domain.Account{}, domain.ErrMissingField("password_hash")
	}
	if s.rdb == nil {
		return domain.Account{}, errNotConfigured
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

	args := append([]any{a.ID}, encodeAccount(a)...)
	res, err := createScript.Run(ctx, s.rdb, []string{s.emailKey(a.Email), s.accountKey(a.ID)}, args...).Text()
	if err != nil {
		return domain.Account{}, domain.ErrRedisUnavailable(err)
	}
	if res == replyDup {
		return domain.Account{}, domain.ErrEmailAlreadyExists()
	}
	return s.GetByID(ctx, a.ID)
}

func (s *AccountStore) MarkVerified(ctx context.Context, id string, upd auth.MarkVerified) (domain.Account, error) {
	if s.rdb == nil {
		return domain.Account{}, errNotConfigured
	}

	res, err := markVerifiedScript.Run(ctx, s.rdb, []string{s.accountKey(id)}, upd.Code, formatTime(stamp(upd.At))).Result()
	if err != nil {
		return domain.Account{}, domain.ErrRedisUnavailable(err)
	}

	switch v := res.(type) {
	case string:
		return domain.Account{}, replyErr(v)
	case []any:
		fields, err := pairsToMap(v)
		if err != nil {
			return domain.Account{}, domain.ErrInternal(err)
		}
		return decodeAccount(fields)
	default:
		return domain.Account{}, domain.ErrInternal(fmt.Errorf("unexpected script reply %T", res))
	}
}

func (s *AccountStore) ReplaceChallenge(ctx context.Context, id string, upd auth.ReplaceChallenge) error {
	if s.rdb == nil {
		return errNotConfigured
	}

	require := "0"
	if upd.RequireUnverified {
		require = "1"
	}
	res, err := replaceChallengeScript.Run(ctx, s.rdb, []string{s.accountKey(id)},
		upd.Challenge.Code,
		formatTime(upd.Challenge.ExpiresAt),
		string(upd.Challenge.Purpose),
		formatTime(stamp(upd.At)),
		require,
	).Text()
	if err != nil {
		return domain.ErrRedisUnavailable(err)
	}
	return replyErr(res)
}

func (s *AccountStore) ResetPassword(ctx context.Context, id string, upd auth.ResetPassword) error {
	if upd.PasswordHash == "" {
		return domain.ErrMissingField("password_hash")
	}
	if s.rdb == nil {
		return errNotConfigured
	}

	res, err := resetPasswordScript.Run(ctx, s.rdb, []string{s.accountKey(id)},
		upd.Code, upd.PasswordHash, formatTime(stamp(upd.At)),
	).Text()
	if err != nil {
		return domain.ErrRedisUnavailable(err)
	}
	return replyErr(res)
}

func replyErr(reply string) error {
	switch reply {
	case replyOK:
		return nil
	case replyMissing:
		return domain.ErrAccountNotFound()
	case replyStale:
		return domain.ErrStaleChallenge()
	case replyVerified:
		return domain.ErrAlreadyVerified()
	default:
		return domain.ErrInternal(fmt.Errorf("unexpected script reply %q", reply))
	}
}
