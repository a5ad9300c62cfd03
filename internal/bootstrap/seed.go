package bootstrap

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/baechuer/movie-review/services/auth-service/internal/domain"
)

type SeederHasher interface {
	Hash(password string) (string, error)
}

type SeederRepo interface {
	Create(ctx context.Context, a domain.Account) (domain.Account, error)
}

// SeedAccounts creates verified dev accounts. Existing emails are skipped.
func SeedAccounts(ctx context.Context, repo SeederRepo, hasher SeederHasher, log zerolog.Logger) int {
	type seedAccount struct {
		Name  string
		Email string
		Role  domain.Role
		Pass  string
	}

	seeds := []seedAccount{
		{Name: "Admin", Email: "admin@example.com", Role: domain.RoleAdmin, Pass: "AdminPassw0rd"},
		{Name: "Critic", Email: "user@example.com", Role: domain.RoleUser, Pass: "UserPassw0rd"},
	}

	created := 0
	for _, s := range seeds {
		hash, err := hasher.Hash(s.Pass)
		if err != nil {
			log.Warn().Err(err).Str("email", s.Email).Msg("seed hash failed")
			continue
		}

		now := time.Now().UTC()
		_, err = repo.Create(ctx, domain.Account{
			ID:           uuid.NewString(),
			Name:         s.Name,
			Email:        s.Email,
			PasswordHash: hash,
			Role:         s.Role,
			Verified:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			// ignore duplicates (restart safe)
			if !domain.Is(err, "email_already_exists") {
				log.Warn().Err(err).Str("email", s.Email).Msg("seed create failed")
			}
			continue
		}
		created++
	}

	log.Info().Int("created", created).Msg("dev accounts seeded")
	return created
}
