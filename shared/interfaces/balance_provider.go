package interfaces

import (
	"context"

	"github.com/google/uuid"
)

// BalanceProvider is the read side of the account subsystem.
// Deductions never go through it: they happen only inside a LedgerTx.
//
//go:generate mockery --name BalanceProvider --output ./mocks --outpkg mocks --case=underscore
type BalanceProvider interface {
	// GetBalance returns the spendable amount. Users without an account row have 0.
	GetBalance(ctx context.Context, userID uuid.UUID) (int64, error)

	// Credit adds funds supplied by the payment collaborator and returns the new balance.
	Credit(ctx context.Context, userID uuid.UUID, amount int64) (int64, error)
}
