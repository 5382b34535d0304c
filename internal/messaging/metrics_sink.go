package messaging

import (
	"context"

	"novel-reader/shared/interfaces"
	"novel-reader/shared/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var _ interfaces.AnalyticsSink = (*PrometheusSink)(nil)

// PrometheusSink считает события аналитики по типам.
type PrometheusSink struct {
	events        *prometheus.CounterVec
	pagesPerEvent prometheus.Histogram
}

// NewPrometheusSink регистрирует метрики в reg (prometheus.DefaultRegisterer в main).
func NewPrometheusSink(reg prometheus.Registerer) *PrometheusSink {
	factory := promauto.With(reg)
	return &PrometheusSink{
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "story_analytics_events_total",
			Help: "Total number of reader analytics events by type.",
		}, []string{"type"}),
		pagesPerEvent: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "story_completed_pages",
			Help:    "Number of completed pages reported with page transitions.",
			Buckets: prometheus.LinearBuckets(1, 5, 10),
		}),
	}
}

func (s *PrometheusSink) Emit(_ context.Context, event models.AnalyticsEvent) error {
	s.events.WithLabelValues(string(event.Type)).Inc()
	if event.Type == models.EventPageView || event.Type == models.EventStoryCompleted {
		if n, ok := event.Metadata[models.MetaCompletedCount].(int); ok {
			s.pagesPerEvent.Observe(float64(n))
		}
	}
	return nil
}
