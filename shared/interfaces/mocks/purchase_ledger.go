package mocks

import (
	"context"

	"novel-reader/shared/interfaces"
	"novel-reader/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// PurchaseLedger is a testify mock of interfaces.PurchaseLedger.
// WithLedgerTx вызывает fn с Tx, если он задан, и возвращает ошибку fn;
// иначе возвращает ошибку, заданную через On(...).Return(err).
type PurchaseLedger struct {
	mock.Mock
	Tx *LedgerTx
}

func (m *PurchaseLedger) WithLedgerTx(ctx context.Context, fn func(ctx context.Context, tx interfaces.LedgerTx) error) error {
	args := m.Called(ctx, fn)
	if m.Tx != nil {
		if err := fn(ctx, m.Tx); err != nil {
			return err
		}
	}
	return args.Error(0)
}

func (m *PurchaseLedger) HasPurchase(ctx context.Context, userID, choiceID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, choiceID)
	return args.Bool(0), args.Error(1)
}

func (m *PurchaseLedger) ListPurchasedChoiceIDs(ctx context.Context, userID, storyID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, userID, storyID)
	ids, _ := args.Get(0).([]uuid.UUID)
	return ids, args.Error(1)
}

// LedgerTx is a testify mock of interfaces.LedgerTx.
type LedgerTx struct {
	mock.Mock
}

func (m *LedgerTx) LockBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	balance, _ := args.Get(0).(int64)
	return balance, args.Error(1)
}

func (m *LedgerTx) PurchaseExists(ctx context.Context, userID, choiceID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, choiceID)
	return args.Bool(0), args.Error(1)
}

func (m *LedgerTx) DeductBalance(ctx context.Context, userID uuid.UUID, amount int64) (int64, error) {
	args := m.Called(ctx, userID, amount)
	balance, _ := args.Get(0).(int64)
	return balance, args.Error(1)
}

func (m *LedgerTx) InsertPurchase(ctx context.Context, purchase *models.Purchase) error {
	args := m.Called(ctx, purchase)
	return args.Error(0)
}

func (m *LedgerTx) InsertChoiceHistory(ctx context.Context, entry *models.UserChoiceHistory) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}
