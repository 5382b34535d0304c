package messaging

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"novel-reader/shared/interfaces"
	"novel-reader/shared/models"

	"go.uber.org/zap"
)

const (
	DefaultAsyncBuffer  = 1024
	asyncDeliverTimeout = 10 * time.Second
)

var (
	ErrSinkClosed   = errors.New("analytics sink is closed")
	ErrEventDropped = errors.New("analytics buffer is full, event dropped")
)

var _ interfaces.AnalyticsSink = (*AsyncSink)(nil)

// AsyncSink отвязывает доставку событий от запроса: Emit только кладет событие
// в буфер, отправку во вложенный sink делает отдельная горутина со своим контекстом.
// При переполненном буфере событие отбрасывается.
type AsyncSink struct {
	next    interfaces.AnalyticsSink
	events  chan models.AnalyticsEvent
	done    chan struct{}
	timeout time.Duration
	logger  *zap.Logger

	mu      sync.RWMutex
	closed  bool
	dropped atomic.Int64
}

// NewAsyncSink запускает воркер доставки. Остановка через Close.
func NewAsyncSink(next interfaces.AnalyticsSink, bufferSize int, logger *zap.Logger) *AsyncSink {
	if bufferSize <= 0 {
		bufferSize = DefaultAsyncBuffer
	}
	s := &AsyncSink{
		next:    next,
		events:  make(chan models.AnalyticsEvent, bufferSize),
		done:    make(chan struct{}),
		timeout: asyncDeliverTimeout,
		logger:  logger.Named("AsyncSink"),
	}
	go s.run()
	return s
}

// Emit не блокируется. Контекст вызывающего не используется: отмена запроса
// не должна терять событие.
func (s *AsyncSink) Emit(_ context.Context, event models.AnalyticsEvent) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrSinkClosed
	}
	select {
	case s.events <- event:
		return nil
	default:
		s.dropped.Add(1)
		return ErrEventDropped
	}
}

// Dropped - сколько событий отброшено из-за переполнения буфера.
func (s *AsyncSink) Dropped() int64 {
	return s.dropped.Load()
}

// Close перестает принимать события и ждет, пока буфер будет доставлен,
// или пока не истечет ctx.
func (s *AsyncSink) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.events)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		s.logger.Warn("Analytics buffer not drained before shutdown", zap.Int("pending", len(s.events)))
		return ctx.Err()
	}
}

func (s *AsyncSink) run() {
	defer close(s.done)
	for event := range s.events {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		if err := s.next.Emit(ctx, event); err != nil {
			s.logger.Warn("Failed to deliver analytics event",
				zap.String("type", string(event.Type)),
				zap.Stringer("userID", event.UserID),
				zap.Error(err),
			)
		}
		cancel()
	}
}
