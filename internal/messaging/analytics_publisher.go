package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"novel-reader/shared/interfaces"
	"novel-reader/shared/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	publishAttempts = 3
	publishTimeout  = 5 * time.Second
	appID           = "story-engine"
)

// AMQPPublisher - часть *amqp.Channel, нужная паблишеру.
type AMQPPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

var _ interfaces.AnalyticsSink = (*RabbitMQAnalyticsPublisher)(nil)

// RabbitMQAnalyticsPublisher публикует события аналитики в очередь RabbitMQ (JSON).
type RabbitMQAnalyticsPublisher struct {
	channel   AMQPPublisher
	queueName string
	logger    *zap.Logger
	backoff   time.Duration
}

// NewRabbitMQAnalyticsPublisher открывает канал и объявляет durable очередь queueName.
// Возвращенный закрыватель освобождает канал.
func NewRabbitMQAnalyticsPublisher(conn *amqp.Connection, queueName string, logger *zap.Logger) (*RabbitMQAnalyticsPublisher, func() error, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, nil, fmt.Errorf("analytics publisher: не удалось открыть канал: %w", err)
	}
	if _, err := ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	); err != nil {
		_ = ch.Close()
		return nil, nil, fmt.Errorf("analytics publisher: не удалось объявить очередь '%s': %w", queueName, err)
	}
	logger.Info("Analytics queue declared", zap.String("queue", queueName))
	return NewAnalyticsPublisher(ch, queueName, logger), ch.Close, nil
}

// NewAnalyticsPublisher создает паблишер поверх уже открытого канала.
func NewAnalyticsPublisher(ch AMQPPublisher, queueName string, logger *zap.Logger) *RabbitMQAnalyticsPublisher {
	return &RabbitMQAnalyticsPublisher{
		channel:   ch,
		queueName: queueName,
		logger:    logger.Named("AnalyticsPublisher"),
		backoff:   100 * time.Millisecond,
	}
}

func (p *RabbitMQAnalyticsPublisher) Emit(ctx context.Context, event models.AnalyticsEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal analytics event: %w", err)
	}
	return p.publishMessage(ctx, string(event.Type), body)
}

func (p *RabbitMQAnalyticsPublisher) publishMessage(ctx context.Context, msgType string, body []byte) error {
	if p.channel == nil {
		return errors.New("канал RabbitMQ не инициализирован")
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	var err error
	for attempt := 1; attempt <= publishAttempts; attempt++ {
		err = p.channel.PublishWithContext(ctx,
			"",          // exchange (default)
			p.queueName, // routing key
			false,       // mandatory
			false,       // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				Type:         msgType,
				Body:         body,
				Timestamp:    time.Now().UTC(),
				AppId:        appID,
			},
		)
		if err == nil {
			p.logger.Debug("Analytics event published", zap.String("type", msgType), zap.Int("attempt", attempt))
			return nil
		}
		p.logger.Warn("Publish attempt failed", zap.String("queue", p.queueName), zap.Int("attempt", attempt), zap.Error(err))
		if attempt == publishAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("ошибка публикации в очередь %s: %w", p.queueName, ctx.Err())
		case <-time.After(time.Duration(attempt) * p.backoff):
		}
	}
	return fmt.Errorf("ошибка публикации в очередь %s после retries: %w", p.queueName, err)
}
