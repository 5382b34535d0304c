package handler

import (
	"novel-reader/shared/models"

	"github.com/google/uuid"
)

// navigateRequest - тело POST /stories/:story_id/navigate. Оба поля необязательны,
// но одновременно задавать их нельзя. Без полей - продолжить с сохраненной страницы.
type navigateRequest struct {
	ChoiceID     string `json:"choice_id" validate:"omitempty,uuid"`
	TargetPageID string `json:"target_page_id" validate:"omitempty,uuid"`
}

// creditRequest - тело POST /internal/users/:user_id/balance/credit.
type creditRequest struct {
	Amount int64 `json:"amount" validate:"required,gt=0"`
}

// sessionResponse - снимок сессии плюс рекомендательные метрики напряжения.
type sessionResponse struct {
	*models.StorySession
	Tension models.TensionMetrics `json:"tension"`
}

type balanceResponse struct {
	UserID  uuid.UUID `json:"user_id"`
	Balance int64     `json:"balance"`
}

// APIError - стандартный ответ об ошибке.
type APIError struct {
	Message string `json:"message"`
}

// optionalUUID разбирает необязательный идентификатор. Пустая строка - nil.
func optionalUUID(raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
