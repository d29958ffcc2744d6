package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain/model"

	"github.com/redis/go-redis/v9"
)

// セッションの既定の寿命（14日）
const DefaultCartTTL = 14 * 24 * time.Hour

// カートをRedisにJSONで保存する。キーは cart:<sessionID>
type CartSessionRedisRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCartSessionRedisRepository(client *redis.Client, ttl time.Duration) *CartSessionRedisRepository {
	if ttl <= 0 {
		ttl = DefaultCartTTL
	}
	return &CartSessionRedisRepository{client: client, ttl: ttl}
}

func (r *CartSessionRedisRepository) Load(ctx context.Context, sessionID string) (model.Cart, error) {
	data, err := r.client.Get(ctx, cartKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Cart{}, nil
	}
	if err != nil {
		return model.Cart{}, fmt.Errorf("redis get failed: %w", err)
	}

	var cart model.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return model.Cart{}, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return cart, nil
}

func (r *CartSessionRedisRepository) Save(ctx context.Context, sessionID string, cart model.Cart) error {
	// 空なら消す（空カートを残さない）
	if cart.IsEmpty() {
		return r.Delete(ctx, sessionID)
	}

	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}
	if err := r.client.Set(ctx, cartKey(sessionID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *CartSessionRedisRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, cartKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (r *CartSessionRedisRepository) ExpireAfter(ctx context.Context, sessionID string, ttl time.Duration) error {
	if err := r.client.Expire(ctx, cartKey(sessionID), ttl).Err(); err != nil {
		return fmt.Errorf("redis expire failed: %w", err)
	}
	return nil
}

func cartKey(sessionID string) string {
	return fmt.Sprintf("cart:%s", sessionID)
}
