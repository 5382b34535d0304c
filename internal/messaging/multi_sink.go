package messaging

import (
	"context"
	"errors"

	"novel-reader/shared/interfaces"
	"novel-reader/shared/models"

	"go.uber.org/zap"
)

var (
	_ interfaces.AnalyticsSink = (*MultiSink)(nil)
	_ interfaces.AnalyticsSink = (*LogSink)(nil)
)

// MultiSink рассылает событие во все sink'и. Сбой одного не мешает остальным;
// ошибки объединяются через errors.Join.
type MultiSink struct {
	sinks []interfaces.AnalyticsSink
}

// NewMultiSink пропускает nil-элементы.
func NewMultiSink(sinks ...interfaces.AnalyticsSink) *MultiSink {
	m := &MultiSink{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

func (m *MultiSink) Emit(ctx context.Context, event models.AnalyticsEvent) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Emit(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogSink пишет события в лог на уровне Debug.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger.Named("Analytics")}
}

func (s *LogSink) Emit(_ context.Context, event models.AnalyticsEvent) error {
	fields := []zap.Field{
		zap.String("type", string(event.Type)),
		zap.Stringer("userID", event.UserID),
		zap.Stringer("storyID", event.StoryID),
		zap.Stringer("pageID", event.PageID),
		zap.Time("timestamp", event.Timestamp),
		zap.Any("metadata", event.Metadata),
	}
	if event.ChoiceID != nil {
		fields = append(fields, zap.Stringer("choiceID", event.ChoiceID))
	}
	s.logger.Debug("Analytics event", fields...)
	return nil
}
