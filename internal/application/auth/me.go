package auth

import (
	"context"

	"github.com/baechuer/movie-review/services/auth-service/internal/domain"
)

func (s *Service) GetMe(ctx context.Context, accountID string) (domain.Profile, error) {
	if accountID == "" {
		return domain.Profile{}, domain.ErrTokenMissing()
	}
	a, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return domain.Profile{}, asDomain(err, domain.ErrInternal)
	}
	return a.Profile(), nil
}
