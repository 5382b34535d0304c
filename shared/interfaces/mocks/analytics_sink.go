package mocks

import (
	"context"

	"novel-reader/shared/models"

	"github.com/stretchr/testify/mock"
)

// AnalyticsSink is a testify mock of interfaces.AnalyticsSink.
type AnalyticsSink struct {
	mock.Mock
}

func (m *AnalyticsSink) Emit(ctx context.Context, event models.AnalyticsEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
