//go:build integration

package messaging_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"novel-reader/internal/messaging"
	"novel-reader/shared/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

func TestRabbitMQAnalyticsPublisher_RoundTrip(t *testing.T) {
	ctx := context.Background()

	container, err := rabbitmq.Run(ctx,
		"rabbitmq:3-management-alpine",
		testcontainers.WithWaitStrategy(wait.ForLog("Server startup complete")),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	url, err := container.AmqpURL(ctx)
	require.NoError(t, err)
	conn, err := amqp.Dial(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	const queue = "reader_analytics_test"
	publisher, closeChannel, err := messaging.NewRabbitMQAnalyticsPublisher(conn, queue, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = closeChannel() })

	event := sampleEvent()
	require.NoError(t, publisher.Emit(ctx, event))

	ch, err := conn.Channel()
	require.NoError(t, err)
	defer ch.Close()
	deliveries, err := ch.Consume(queue, "", true, false, false, false, nil)
	require.NoError(t, err)

	select {
	case d := <-deliveries:
		var got models.AnalyticsEvent
		require.NoError(t, json.Unmarshal(d.Body, &got))
		assert.Equal(t, event.Type, got.Type)
		assert.Equal(t, event.StoryID, got.StoryID)
		assert.Equal(t, "story-engine", d.AppId)
	case <-time.After(10 * time.Second):
		t.Fatal("analytics event was not delivered")
	}
}
