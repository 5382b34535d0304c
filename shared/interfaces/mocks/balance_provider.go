package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// BalanceProvider is a testify mock of interfaces.BalanceProvider.
type BalanceProvider struct {
	mock.Mock
}

func (m *BalanceProvider) GetBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	balance, _ := args.Get(0).(int64)
	return balance, args.Error(1)
}

func (m *BalanceProvider) Credit(ctx context.Context, userID uuid.UUID, amount int64) (int64, error) {
	args := m.Called(ctx, userID, amount)
	balance, _ := args.Get(0).(int64)
	return balance, args.Error(1)
}
