package database

import (
	"context"
	"errors"

	"novel-reader/shared/interfaces"
	"novel-reader/shared/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var _ interfaces.BalanceProvider = (*pgBalanceRepository)(nil)

const (
	getBalanceQuery = `SELECT balance FROM user_balances WHERE user_id = $1`

	creditBalanceQuery = `
INSERT INTO user_balances (user_id, balance, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (user_id) DO UPDATE SET
    balance = user_balances.balance + EXCLUDED.balance,
    updated_at = NOW()
RETURNING balance`
)

type pgBalanceRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgBalanceRepository creates a new repository instance.
func NewPgBalanceRepository(pool *pgxpool.Pool, logger *zap.Logger) interfaces.BalanceProvider {
	return &pgBalanceRepository{
		db:     pool,
		logger: logger.Named("PgBalanceRepo"),
	}
}

// GetBalance возвращает 0 для пользователя без строки баланса.
func (r *pgBalanceRepository) GetBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	var balance int64
	err := r.db.QueryRow(ctx, getBalanceQuery, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		r.logger.Error("Failed to get balance", zap.Stringer("userID", userID), zap.Error(err))
		return 0, persistenceError("get balance", err)
	}
	return balance, nil
}

func (r *pgBalanceRepository) Credit(ctx context.Context, userID uuid.UUID, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, models.ErrInvalidAmount
	}
	var balance int64
	if err := r.db.QueryRow(ctx, creditBalanceQuery, userID, amount).Scan(&balance); err != nil {
		r.logger.Error("Failed to credit balance", zap.Stringer("userID", userID), zap.Int64("amount", amount), zap.Error(err))
		return 0, persistenceError("credit balance", err)
	}
	r.logger.Info("Balance credited", zap.Stringer("userID", userID), zap.Int64("amount", amount), zap.Int64("balance", balance))
	return balance, nil
}
