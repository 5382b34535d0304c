// Package transaction holds the only code path that moves currency out of a
// user's balance in exchange for permanent access to a premium choice.
package transaction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"novel-reader/shared/interfaces"
	"novel-reader/shared/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Manager выполняет покупку премиального выбора как одну атомарную единицу.
type Manager struct {
	ledger interfaces.PurchaseLedger
	logger *zap.Logger
	now    func() time.Time
}

// NewManager creates a new instance of Manager.
func NewManager(ledger interfaces.PurchaseLedger, logger *zap.Logger) *Manager {
	return &Manager{
		ledger: ledger,
		logger: logger.Named("TransactionManager"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// PurchasePremiumChoice списывает cost и записывает владение выбором.
//
// Шаги внутри одной транзакции:
//  1. блокировка строки баланса;
//  2. повторная проверка баланса под блокировкой;
//  3. повторная проверка, что покупки еще нет;
//  4. списание;
//  5. запись покупки;
//  6. запись в историю выборов.
//
// Любая ошибка на шагах 2-6 откатывает все изменения. Возвращает
// models.ErrInsufficientFunds, models.ErrAlreadyPurchased или ошибку,
// оборачивающую models.ErrPersistenceFailure.
func (m *Manager) PurchasePremiumChoice(ctx context.Context, userID, storyID, choiceID uuid.UUID, cost int64) (*models.PurchaseResult, error) {
	log := m.logger.With(
		zap.Stringer("userID", userID),
		zap.Stringer("storyID", storyID),
		zap.Stringer("choiceID", choiceID),
		zap.Int64("cost", cost),
	)
	if cost < 0 {
		log.Error("Negative cost for premium choice")
		return nil, fmt.Errorf("%w: negative cost %d", models.ErrInvalidAmount, cost)
	}

	var result models.PurchaseResult
	err := m.ledger.WithLedgerTx(ctx, func(ctx context.Context, tx interfaces.LedgerTx) error {
		balance, err := tx.LockBalance(ctx, userID)
		if err != nil {
			return fmt.Errorf("lock balance: %w", err)
		}

		if balance < cost {
			log.Info("Insufficient funds under lock", zap.Int64("balance", balance))
			return models.ErrInsufficientFunds
		}

		exists, err := tx.PurchaseExists(ctx, userID, choiceID)
		if err != nil {
			return fmt.Errorf("check purchase: %w", err)
		}
		if exists {
			return models.ErrAlreadyPurchased
		}

		newBalance, err := tx.DeductBalance(ctx, userID, cost)
		if err != nil {
			return fmt.Errorf("deduct balance: %w", err)
		}

		now := m.now()
		purchase := models.Purchase{
			ID:          uuid.New(),
			UserID:      userID,
			StoryID:     storyID,
			ChoiceID:    choiceID,
			Cost:        cost,
			PurchasedAt: now,
		}
		if err := tx.InsertPurchase(ctx, &purchase); err != nil {
			return fmt.Errorf("insert purchase: %w", err)
		}

		history := models.UserChoiceHistory{
			ID:        uuid.New(),
			UserID:    userID,
			StoryID:   storyID,
			ChoiceID:  choiceID,
			CostPaid:  cost,
			CreatedAt: now,
		}
		if err := tx.InsertChoiceHistory(ctx, &history); err != nil {
			return fmt.Errorf("insert choice history: %w", err)
		}

		result = models.PurchaseResult{Purchase: purchase, NewBalance: newBalance}
		return nil
	})

	switch {
	case err == nil:
		log.Info("Premium choice purchased", zap.Int64("newBalance", result.NewBalance))
		return &result, nil
	case errors.Is(err, models.ErrAlreadyPurchased):
		// Гонка с параллельным запросом: выбор уже принадлежит пользователю.
		log.Info("Choice already purchased, nothing charged")
		return nil, models.ErrAlreadyPurchased
	case errors.Is(err, models.ErrInsufficientFunds):
		return nil, models.ErrInsufficientFunds
	default:
		log.Error("Purchase transaction rolled back", zap.Error(err))
		return nil, fmt.Errorf("%w: purchase choice %s: %w", models.ErrPersistenceFailure, choiceID, err)
	}
}
