package models

// Причины, которые видит читатель рядом с вариантом выбора.
const (
	ReasonPreviouslyPurchased  = "Previously purchased"
	ReasonInsufficientCurrency = "Insufficient currency"
	// ReasonCostsFormat форматируется стоимостью выбора.
	ReasonCostsFormat = "Costs %d currency"
)

// ChoiceEvaluation - производное (не хранится) состояние выбора для конкретного пользователя.
// Пересчитывается на каждый запрос: баланс и покупки могут меняться между вызовами.
type ChoiceEvaluation struct {
	Choice           Choice `json:"choice"`
	Accessible       bool   `json:"accessible"`
	RequiresPurchase bool   `json:"requires_purchase"`
	Reason           string `json:"reason,omitempty"`
}

// TensionMetrics - рекомендательные UX-сигналы в диапазоне [0,100].
// Никогда не влияют на навигацию.
type TensionMetrics struct {
	Anticipation int `json:"anticipation"`
	Regret       int `json:"regret"`
	Urgency      int `json:"urgency"`
}
