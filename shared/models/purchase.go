package models

import (
	"time"

	"github.com/google/uuid"
)

// Purchase - факт владения премиальным выбором. Уникален по (UserID, ChoiceID).
type Purchase struct {
	ID          uuid.UUID `db:"id" json:"id"`
	UserID      uuid.UUID `db:"user_id" json:"user_id"`
	StoryID     uuid.UUID `db:"story_id" json:"story_id"`
	ChoiceID    uuid.UUID `db:"choice_id" json:"choice_id"`
	Cost        int64     `db:"cost" json:"cost"`
	PurchasedAt time.Time `db:"purchased_at" json:"purchased_at"`
}

// UserChoiceHistory - запись в истории выборов пользователя, создается вместе с покупкой.
type UserChoiceHistory struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	StoryID   uuid.UUID `db:"story_id" json:"story_id"`
	ChoiceID  uuid.UUID `db:"choice_id" json:"choice_id"`
	CostPaid  int64     `db:"cost_paid" json:"cost_paid"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// PurchaseResult возвращается менеджером транзакций после успешной покупки.
type PurchaseResult struct {
	Purchase   Purchase `json:"purchase"`
	NewBalance int64    `json:"new_balance"`
}
