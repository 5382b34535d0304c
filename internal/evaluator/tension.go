package evaluator

import "novel-reader/shared/models"

const maxTension = 100

// TensionWeights - настраиваемые UX-константы. Меняются без изменения логики навигации.
type TensionWeights struct {
	AnticipationPerChoice int // за каждый доступный, но еще не купленный премиальный выбор
	RegretPerChoice       int // за каждый недоступный премиальный выбор
	UrgencyPerLocked      int // за каждый премиальный выбор, требующий покупки
	UrgencyNoFreePath     int // бонус, если на странице нет ни одного доступного бесплатного пути
}

// DefaultTensionWeights используются сервером, пока не настроено иное.
var DefaultTensionWeights = TensionWeights{
	AnticipationPerChoice: 35,
	RegretPerChoice:       40,
	UrgencyPerLocked:      20,
	UrgencyNoFreePath:     30,
}

// ComputeTension считает рекомендательные метрики по уже вычисленным оценкам.
// Все значения ограничены [0,100]. Regret монотонен по числу недоступных премиальных
// выборов, Anticipation - по числу доступных премиальных.
func ComputeTension(evaluations []models.ChoiceEvaluation, w TensionWeights) models.TensionMetrics {
	var affordable, unaffordable, freePaths int
	for _, e := range evaluations {
		switch {
		case e.RequiresPurchase && e.Accessible:
			affordable++
		case e.RequiresPurchase && !e.Accessible:
			unaffordable++
		case e.Accessible:
			freePaths++
		}
	}

	urgency := (affordable + unaffordable) * w.UrgencyPerLocked
	if freePaths == 0 && len(evaluations) > 0 {
		urgency += w.UrgencyNoFreePath
	}

	return models.TensionMetrics{
		Anticipation: clamp(affordable * w.AnticipationPerChoice),
		Regret:       clamp(unaffordable * w.RegretPerChoice),
		Urgency:      clamp(urgency),
	}
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > maxTension {
		return maxTension
	}
	return v
}
