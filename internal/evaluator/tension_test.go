package evaluator_test

import (
	"testing"

	"novel-reader/internal/evaluator"
	"novel-reader/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func evaluations(affordable, unaffordable, freeCount int) []models.ChoiceEvaluation {
	var out []models.ChoiceEvaluation
	progress := models.NewUserProgress(uuid.New(), uuid.New())
	for i := 0; i < affordable; i++ {
		out = append(out, evaluator.Evaluate(premium(1), progress, 1))
	}
	for i := 0; i < unaffordable; i++ {
		out = append(out, evaluator.Evaluate(premium(100), progress, 1))
	}
	for i := 0; i < freeCount; i++ {
		out = append(out, evaluator.Evaluate(free(), progress, 1))
	}
	return out
}

func TestComputeTension_Bounded(t *testing.T) {
	for a := 0; a < 8; a++ {
		for u := 0; u < 8; u++ {
			m := evaluator.ComputeTension(evaluations(a, u, 1), evaluator.DefaultTensionWeights)
			for _, v := range []int{m.Anticipation, m.Regret, m.Urgency} {
				assert.GreaterOrEqual(t, v, 0)
				assert.LessOrEqual(t, v, 100)
			}
		}
	}
}

func TestComputeTension_Monotonic(t *testing.T) {
	w := evaluator.DefaultTensionWeights

	prevRegret := -1
	for u := 0; u < 6; u++ {
		m := evaluator.ComputeTension(evaluations(1, u, 1), w)
		assert.GreaterOrEqual(t, m.Regret, prevRegret, "regret must not decrease with more unaffordable choices")
		prevRegret = m.Regret
	}

	prevAnticipation := -1
	for a := 0; a < 6; a++ {
		m := evaluator.ComputeTension(evaluations(a, 1, 1), w)
		assert.GreaterOrEqual(t, m.Anticipation, prevAnticipation, "anticipation must not decrease with more accessible premium choices")
		prevAnticipation = m.Anticipation
	}
}

func TestComputeTension_NoPremium(t *testing.T) {
	m := evaluator.ComputeTension(evaluations(0, 0, 3), evaluator.DefaultTensionWeights)
	assert.Equal(t, models.TensionMetrics{}, m)

	m = evaluator.ComputeTension(nil, evaluator.DefaultTensionWeights)
	assert.Equal(t, models.TensionMetrics{}, m)
}

func TestComputeTension_NoFreePathRaisesUrgency(t *testing.T) {
	w := evaluator.DefaultTensionWeights
	withFree := evaluator.ComputeTension(evaluations(0, 1, 1), w)
	withoutFree := evaluator.ComputeTension(evaluations(0, 1, 0), w)
	assert.Greater(t, withoutFree.Urgency, withFree.Urgency)
}

func TestComputeTension_CustomWeights(t *testing.T) {
	w := evaluator.TensionWeights{AnticipationPerChoice: 10, RegretPerChoice: 25}
	m := evaluator.ComputeTension(evaluations(2, 3, 1), w)
	assert.Equal(t, 20, m.Anticipation)
	assert.Equal(t, 75, m.Regret)
	assert.Equal(t, 0, m.Urgency)
}
