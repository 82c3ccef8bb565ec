package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/09junaid/full-ecommerce/internal/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Store is the persistence boundary for carts. Implementations hold one cart
// per user; a missing cart loads as an empty one.
type Store interface {
	Load(ctx context.Context, userID string) (*Cart, error)
	Save(ctx context.Context, userID string, c *Cart) error
	Clear(ctx context.Context, userID string) error
}

const cartTTL = 7 * 24 * time.Hour

type redisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client}
}

func cartKey(userID string) string {
	return "cart:" + userID
}

func (s *redisStore) Load(ctx context.Context, userID string) (*Cart, error) {
	data, err := s.client.Get(ctx, cartKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var c Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}

	return &c, nil
}

func (s *redisStore) Save(ctx context.Context, userID string, c *Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	if err := s.client.Set(ctx, cartKey(userID), data, cartTTL).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	logger.FromCtx(ctx).Debug("cart saved",
		zap.String("user_id", userID),
		zap.Int("items", len(c.Items)),
	)
	return nil
}

func (s *redisStore) Clear(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, cartKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	return nil
}
