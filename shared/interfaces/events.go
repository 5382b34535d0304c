package interfaces

import (
	"context"

	"novel-reader/shared/models"
)

// AnalyticsSink принимает события аналитики. Ошибка доставки никогда не должна
// ломать или откатывать навигацию: вызывающий код только логирует ее.
//
//go:generate mockery --name AnalyticsSink --output ./mocks --outpkg mocks --case=underscore
type AnalyticsSink interface {
	Emit(ctx context.Context, event models.AnalyticsEvent) error
}
