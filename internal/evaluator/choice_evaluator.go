// Package evaluator classifies outgoing choices of a page for a concrete reader.
// Everything here is pure: no I/O, no clocks, no shared state.
package evaluator

import (
	"fmt"

	"novel-reader/shared/models"
)

// Evaluate определяет доступность одного выбора для пользователя.
//
// Бесплатный выбор доступен всегда. Купленный премиальный выбор доступен без
// повторной проверки стоимости. Иначе доступность зависит только от баланса.
func Evaluate(choice models.Choice, progress *models.UserProgress, balance int64) models.ChoiceEvaluation {
	if !choice.IsPremium {
		return models.ChoiceEvaluation{Choice: choice, Accessible: true, RequiresPurchase: false}
	}
	if progress.HasPurchased(choice.ID) {
		return models.ChoiceEvaluation{
			Choice:           choice,
			Accessible:       true,
			RequiresPurchase: false,
			Reason:           models.ReasonPreviouslyPurchased,
		}
	}
	if balance >= choice.Cost {
		return models.ChoiceEvaluation{
			Choice:           choice,
			Accessible:       true,
			RequiresPurchase: true,
			Reason:           fmt.Sprintf(models.ReasonCostsFormat, choice.Cost),
		}
	}
	return models.ChoiceEvaluation{
		Choice:           choice,
		Accessible:       false,
		RequiresPurchase: true,
		Reason:           models.ReasonInsufficientCurrency,
	}
}

// EvaluateAll применяет Evaluate ко всем выборам, сохраняя порядок из GraphStore.
func EvaluateAll(choices []models.Choice, progress *models.UserProgress, balance int64) []models.ChoiceEvaluation {
	out := make([]models.ChoiceEvaluation, 0, len(choices))
	for _, c := range choices {
		out = append(out, Evaluate(c, progress, balance))
	}
	return out
}
