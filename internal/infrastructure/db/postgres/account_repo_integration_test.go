//go:build integration

package postgres

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/baechuer/movie-review/services/auth-service/internal/application/auth"
	"github.com/baechuer/movie-review/services/auth-service/internal/domain"
)

func startPostgres(t *testing.T) *sql.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:17",
		tcpostgres.WithDatabase("auth"),
		tcpostgres.WithUsername("auth"),
		tcpostgres.WithPassword("auth"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, Migrate(ctx, db))
	return db
}

func TestAccountRepo_Integration_Lifecycle(t *testing.T) {
	db := startPostgres(t)
	repo := NewAccountRepo(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	a, err := repo.Create(ctx, domain.Account{
		ID:           "6f1c3a52-3f4e-4f7a-9d55-0a8f0b7b2c11",
		Name:         "Alice",
		Email:        "alice@example.com",
		PasswordHash: "$2a$hash",
		Challenge:    &domain.Challenge{Code: "482193", ExpiresAt: now.Add(10 * time.Minute), Purpose: domain.PurposeSignup},
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	require.NoError(t, err)
	require.NotNil(t, a.Challenge)

	_, err = repo.Create(ctx, domain.Account{ID: "0b5e1d0e-8c56-4a33-bb0c-5b2b0b2f4e77", Name: "Dup", Email: "ALICE@example.com", PasswordHash: "h"})
	assert.True(t, domain.Is(err, "email_already_exists"), "got %v", err)

	_, err = repo.MarkVerified(ctx, a.ID, auth.MarkVerified{Code: "000000", At: now})
	assert.True(t, domain.Is(err, "otp_stale"), "got %v", err)

	v, err := repo.MarkVerified(ctx, a.ID, auth.MarkVerified{Code: "482193", At: now})
	require.NoError(t, err)
	assert.True(t, v.Verified)
	assert.Nil(t, v.Challenge)

	err = repo.ReplaceChallenge(ctx, a.ID, auth.ReplaceChallenge{
		Challenge:         domain.Challenge{Code: "111111", ExpiresAt: now.Add(time.Minute), Purpose: domain.PurposeSignup},
		RequireUnverified: true,
	})
	assert.True(t, domain.Is(err, "account_already_verified"), "got %v", err)

	require.NoError(t, repo.ReplaceChallenge(ctx, a.ID, auth.ReplaceChallenge{
		Challenge: domain.Challenge{Code: "917420", ExpiresAt: now.Add(time.Minute), Purpose: domain.PurposePasswordReset},
		At:        now,
	}))

	got, err := repo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, got.Challenge)
	assert.Equal(t, domain.PurposePasswordReset, got.Challenge.Purpose)
	assert.True(t, got.Verified)

	require.NoError(t, repo.ResetPassword(ctx, a.ID, auth.ResetPassword{Code: "917420", PasswordHash: "$2a$new", At: now}))

	got, err = repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "$2a$new", got.PasswordHash)
	assert.Nil(t, got.Challenge)
	assert.True(t, got.Verified)
}

func TestAccountRepo_Integration_ConcurrentVerify_ExactlyOnce(t *testing.T) {
	db := startPostgres(t)
	repo := NewAccountRepo(db)
	ctx := context.Background()

	a, err := repo.Create(ctx, domain.Account{
		ID:           "9a0b8c7d-1e2f-4a3b-8c4d-5e6f7a8b9c0d",
		Name:         "Bob",
		Email:        "bob@example.com",
		PasswordHash: "h",
		Challenge:    &domain.Challenge{Code: "222333", ExpiresAt: time.Now().Add(time.Minute), Purpose: domain.PurposeSignup},
	})
	require.NoError(t, err)

	const n = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.MarkVerified(ctx, a.ID, auth.MarkVerified{Code: "222333"}); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}
