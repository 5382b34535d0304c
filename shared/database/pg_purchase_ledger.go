package database

import (
	"context"
	"fmt"

	"novel-reader/shared/interfaces"
	"novel-reader/shared/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var _ interfaces.PurchaseLedger = (*pgPurchaseLedger)(nil)

const (
	ensureBalanceRowQuery = `
INSERT INTO user_balances (user_id, balance, updated_at)
VALUES ($1, 0, NOW())
ON CONFLICT (user_id) DO NOTHING`

	lockBalanceQuery = `SELECT balance FROM user_balances WHERE user_id = $1 FOR UPDATE`

	purchaseExistsQuery = `SELECT EXISTS(SELECT 1 FROM purchases WHERE user_id = $1 AND choice_id = $2)`

	deductBalanceQuery = `
UPDATE user_balances
SET balance = balance - $2, updated_at = NOW()
WHERE user_id = $1
RETURNING balance`

	insertPurchaseQuery = `
INSERT INTO purchases (id, user_id, story_id, choice_id, cost, purchased_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	insertChoiceHistoryQuery = `
INSERT INTO user_choice_history (id, user_id, story_id, choice_id, cost_paid, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	listPurchasedChoiceIDsQuery = `
SELECT choice_id FROM purchases
WHERE user_id = $1 AND story_id = $2
ORDER BY purchased_at, choice_id`
)

type pgPurchaseLedger struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPgPurchaseLedger creates the Postgres purchase ledger.
func NewPgPurchaseLedger(pool *pgxpool.Pool, logger *zap.Logger) interfaces.PurchaseLedger {
	return &pgPurchaseLedger{
		pool:   pool,
		logger: logger.Named("PgPurchaseLedger"),
	}
}

// WithLedgerTx открывает транзакцию БД. Строка баланса блокируется в LockBalance
// (SELECT ... FOR UPDATE) и освобождается коммитом или откатом.
func (l *pgPurchaseLedger) WithLedgerTx(ctx context.Context, fn func(ctx context.Context, tx interfaces.LedgerTx) error) error {
	return WithTx(ctx, l.pool, func(tx pgx.Tx) error {
		return fn(ctx, &pgLedgerTx{tx: tx})
	})
}

func (l *pgPurchaseLedger) HasPurchase(ctx context.Context, userID, choiceID uuid.UUID) (bool, error) {
	var exists bool
	if err := l.pool.QueryRow(ctx, purchaseExistsQuery, userID, choiceID).Scan(&exists); err != nil {
		l.logger.Error("Failed to check purchase", zap.Stringer("userID", userID), zap.Stringer("choiceID", choiceID), zap.Error(err))
		return false, persistenceError("check purchase", err)
	}
	return exists, nil
}

func (l *pgPurchaseLedger) ListPurchasedChoiceIDs(ctx context.Context, userID, storyID uuid.UUID) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0)
	if err := pgxscan.Select(ctx, l.pool, &ids, listPurchasedChoiceIDsQuery, userID, storyID); err != nil {
		l.logger.Error("Failed to list purchases", zap.Stringer("userID", userID), zap.Stringer("storyID", storyID), zap.Error(err))
		return nil, persistenceError("list purchases", err)
	}
	return ids, nil
}

type pgLedgerTx struct {
	tx pgx.Tx
}

func (t *pgLedgerTx) LockBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	if _, err := t.tx.Exec(ctx, ensureBalanceRowQuery, userID); err != nil {
		return 0, fmt.Errorf("ensure balance row: %w", err)
	}
	var balance int64
	if err := t.tx.QueryRow(ctx, lockBalanceQuery, userID).Scan(&balance); err != nil {
		return 0, fmt.Errorf("select for update: %w", err)
	}
	return balance, nil
}

func (t *pgLedgerTx) PurchaseExists(ctx context.Context, userID, choiceID uuid.UUID) (bool, error) {
	var exists bool
	if err := t.tx.QueryRow(ctx, purchaseExistsQuery, userID, choiceID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (t *pgLedgerTx) DeductBalance(ctx context.Context, userID uuid.UUID, amount int64) (int64, error) {
	var balance int64
	if err := t.tx.QueryRow(ctx, deductBalanceQuery, userID, amount).Scan(&balance); err != nil {
		if pgErrorCode(err) == pgCheckViolation { // balance >= 0
			return 0, models.ErrInsufficientFunds
		}
		return 0, err
	}
	return balance, nil
}

func (t *pgLedgerTx) InsertPurchase(ctx context.Context, p *models.Purchase) error {
	_, err := t.tx.Exec(ctx, insertPurchaseQuery, p.ID, p.UserID, p.StoryID, p.ChoiceID, p.Cost, p.PurchasedAt)
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return models.ErrAlreadyPurchased
		}
		return err
	}
	return nil
}

func (t *pgLedgerTx) InsertChoiceHistory(ctx context.Context, h *models.UserChoiceHistory) error {
	_, err := t.tx.Exec(ctx, insertChoiceHistoryQuery, h.ID, h.UserID, h.StoryID, h.ChoiceID, h.CostPaid, h.CreatedAt)
	return err
}
