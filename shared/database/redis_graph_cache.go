package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	"novel-reader/shared/interfaces"
	"novel-reader/shared/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var _ interfaces.GraphStore = (*CachedGraphStore)(nil)

const graphCacheKeyPrefix = "graph"

// CachedGraphStore - read-through кэш опубликованного графа в Redis.
// Опубликованный граф не меняется, поэтому инвалидации нет, только TTL.
// Ошибки Redis не ломают чтение: запрос уходит в основное хранилище.
// Ответы "не найдено" не кэшируются.
type CachedGraphStore struct {
	next   interfaces.GraphStore
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedGraphStore wraps next with a Redis cache.
func NewCachedGraphStore(next interfaces.GraphStore, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedGraphStore {
	return &CachedGraphStore{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger.Named("GraphCache"),
	}
}

func graphKey(kind string, id uuid.UUID) string {
	return fmt.Sprintf("%s:%s:%s", graphCacheKeyPrefix, kind, id)
}

func (c *CachedGraphStore) GetPage(ctx context.Context, pageID uuid.UUID) (*models.Page, error) {
	return readThrough(ctx, c, graphKey("page", pageID), func() (*models.Page, error) {
		return c.next.GetPage(ctx, pageID)
	})
}

func (c *CachedGraphStore) GetChoice(ctx context.Context, choiceID uuid.UUID) (*models.Choice, error) {
	return readThrough(ctx, c, graphKey("choice", choiceID), func() (*models.Choice, error) {
		return c.next.GetChoice(ctx, choiceID)
	})
}

func (c *CachedGraphStore) GetChoicesFromPage(ctx context.Context, pageID uuid.UUID) ([]models.Choice, error) {
	return readThrough(ctx, c, graphKey("choices", pageID), func() ([]models.Choice, error) {
		return c.next.GetChoicesFromPage(ctx, pageID)
	})
}

func (c *CachedGraphStore) GetFirstPageID(ctx context.Context, storyID uuid.UUID) (uuid.UUID, error) {
	return readThrough(ctx, c, graphKey("first", storyID), func() (uuid.UUID, error) {
		return c.next.GetFirstPageID(ctx, storyID)
	})
}

func (c *CachedGraphStore) GetStoryMetadata(ctx context.Context, storyID uuid.UUID) (*models.StoryMetadata, error) {
	return readThrough(ctx, c, graphKey("meta", storyID), func() (*models.StoryMetadata, error) {
		return c.next.GetStoryMetadata(ctx, storyID)
	})
}

func readThrough[T any](ctx context.Context, c *CachedGraphStore, key string, load func() (T, error)) (T, error) {
	var value T

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		jsonErr := json.Unmarshal(raw, &value)
		if jsonErr == nil && !isNil(value) {
			return value, nil
		}
		c.logger.Warn("Corrupted cache entry, reloading", zap.String("key", key), zap.Error(jsonErr))
	case errors.Is(err, redis.Nil):
		// промах
	default:
		c.logger.Warn("Graph cache read failed, falling back to store", zap.String("key", key), zap.Error(err))
	}

	value, err = load()
	if err != nil || isNil(value) {
		return value, err
	}

	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("Failed to encode cache entry", zap.String("key", key), zap.Error(err))
		return value, nil
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("Graph cache write failed", zap.String("key", key), zap.Error(err))
	}
	return value, nil
}

// isNil - JSON null раскодируется в nil-указатель или nil-срез без ошибки.
func isNil(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map:
		return rv.IsNil()
	}
	return false
}
