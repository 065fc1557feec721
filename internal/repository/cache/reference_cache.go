package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/elparchetipk/sicora-app-sub000/internal/model"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	groupKeyPrefix = "sched:group:"
	venueKeyPrefix = "sched:venue:"
)

// Client подмножество redis.Cmdable, которое использует кэш
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type GroupSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.AcademicGroup, error)
}

type VenueSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Venue, error)
}

// readThrough общий код кэша справочника.
// В Redis лежат только активные записи: отсутствующие и неактивные всегда читаются из источника.
// client == nil отключает кэш, ошибки Redis не мешают чтению из источника
type readThrough[T any] struct {
	client Client
	ttl    time.Duration
	prefix string
	active func(*T) bool
	load   func(context.Context, uuid.UUID) (*T, error)
	logger *zap.Logger
}

// fresh читает источник и обновляет кэш по результату
func (c *readThrough[T]) fresh(ctx context.Context, id uuid.UUID) (*T, error) {
	v, err := c.load(ctx, id)
	if err != nil || c.client == nil {
		return v, err
	}

	key := c.prefix + id.String()
	if v == nil || !c.active(v) {
		if err := c.client.Del(ctx, key).Err(); err != nil {
			c.logger.Warn("Cache delete failed", zap.String("key", key), zap.Error(err))
		}
		return v, nil
	}

	b, err := json.Marshal(v)
	if err != nil {
		return v, nil
	}
	if err := c.client.Set(ctx, key, b, c.ttl).Err(); err != nil {
		c.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}

	return v, nil
}

// cached отдаёт запись из кэша, при промахе читает источник
func (c *readThrough[T]) cached(ctx context.Context, id uuid.UUID) (*T, error) {
	if c.client == nil {
		return c.load(ctx, id)
	}

	key := c.prefix + id.String()
	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var v T
		if err := json.Unmarshal(data, &v); err == nil && c.active(&v) {
			return &v, nil
		}
		c.logger.Warn("Broken cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
	}

	return c.fresh(ctx, id)
}

// GroupRepository справочник групп с кэшем в Redis.
// GetByID всегда идёт в источник (проверка при бронировании), Lookup допускает кэш (отображение)
type GroupRepository struct {
	cache readThrough[model.AcademicGroup]
}

func NewGroupRepository(source GroupSource, client Client, ttl time.Duration, logger *zap.Logger) *GroupRepository {
	return &GroupRepository{
		cache: readThrough[model.AcademicGroup]{
			client: client,
			ttl:    ttl,
			prefix: groupKeyPrefix,
			active: func(g *model.AcademicGroup) bool { return g.IsActive },
			load:   source.GetByID,
			logger: logger,
		},
	}
}

func (r *GroupRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.AcademicGroup, error) {
	return r.cache.fresh(ctx, id)
}

func (r *GroupRepository) Lookup(ctx context.Context, id uuid.UUID) (*model.AcademicGroup, error) {
	return r.cache.cached(ctx, id)
}

// VenueRepository справочник аудиторий с кэшем в Redis, устроен как GroupRepository
type VenueRepository struct {
	cache readThrough[model.Venue]
}

func NewVenueRepository(source VenueSource, client Client, ttl time.Duration, logger *zap.Logger) *VenueRepository {
	return &VenueRepository{
		cache: readThrough[model.Venue]{
			client: client,
			ttl:    ttl,
			prefix: venueKeyPrefix,
			active: func(v *model.Venue) bool { return v.IsActive },
			load:   source.GetByID,
			logger: logger,
		},
	}
}

func (r *VenueRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Venue, error) {
	return r.cache.fresh(ctx, id)
}

func (r *VenueRepository) Lookup(ctx context.Context, id uuid.UUID) (*model.Venue, error) {
	return r.cache.cached(ctx, id)
}
