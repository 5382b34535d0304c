package mocks

import (
	"context"

	"novel-reader/shared/models"

	"github.com/stretchr/testify/mock"
)

// TokenVerifier - мок interfaces.TokenVerifier.
type TokenVerifier struct {
	mock.Mock
}

func (m *TokenVerifier) VerifyToken(ctx context.Context, tokenString string) (*models.Claims, error) {
	args := m.Called(ctx, tokenString)
	claims, _ := args.Get(0).(*models.Claims)
	return claims, args.Error(1)
}

func (m *TokenVerifier) VerifyInterServiceToken(ctx context.Context, tokenString string) (*models.Claims, error) {
	args := m.Called(ctx, tokenString)
	claims, _ := args.Get(0).(*models.Claims)
	return claims, args.Error(1)
}
