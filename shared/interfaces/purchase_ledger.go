package interfaces

import (
	"context"

	"novel-reader/shared/models"

	"github.com/google/uuid"
)

// LedgerTx - операции, доступные только внутри атомарной единицы покупки.
// Все изменения видны снаружи только после успешного коммита.
type LedgerTx interface {
	// LockBalance takes an exclusive lock on the user's balance row and returns the balance.
	// A missing row is created with balance 0 so that it can be locked.
	LockBalance(ctx context.Context, userID uuid.UUID) (int64, error)

	// PurchaseExists checks ownership under the lock.
	PurchaseExists(ctx context.Context, userID, choiceID uuid.UUID) (bool, error)

	// DeductBalance subtracts amount and returns the new balance.
	DeductBalance(ctx context.Context, userID uuid.UUID, amount int64) (int64, error)

	// InsertPurchase returns models.ErrAlreadyPurchased on a (user, choice) conflict.
	InsertPurchase(ctx context.Context, purchase *models.Purchase) error

	InsertChoiceHistory(ctx context.Context, entry *models.UserChoiceHistory) error
}

// PurchaseLedger is the durable record of owned premium choices.
//
//go:generate mockery --name PurchaseLedger --output ./mocks --outpkg mocks --case=underscore
type PurchaseLedger interface {
	// WithLedgerTx runs fn as a single all-or-nothing unit. If fn returns an error
	// (or ctx is cancelled before commit) nothing fn did is persisted.
	WithLedgerTx(ctx context.Context, fn func(ctx context.Context, tx LedgerTx) error) error

	// HasPurchase is a plain read outside of any lock.
	HasPurchase(ctx context.Context, userID, choiceID uuid.UUID) (bool, error)

	// ListPurchasedChoiceIDs returns every choice the user owns in the story.
	ListPurchasedChoiceIDs(ctx context.Context, userID, storyID uuid.UUID) ([]uuid.UUID, error)
}
