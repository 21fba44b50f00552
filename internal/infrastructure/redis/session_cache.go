package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"auction-stream/internal/domain"

	"github.com/go-redis/redis/v8"
)

// RedisSessionCache fronts the MySQL session store with TTL-bound
// entries, so websocket identity resolution usually avoids a database
// round trip.
type RedisSessionCache struct {
	client *redis.Client
}

func NewRedisSessionCache(client *redis.Client) *RedisSessionCache {
	return &RedisSessionCache{client: client}
}

func sessionKey(token string) string {
	return fmt.Sprintf("session:%s", token)
}

func (r *RedisSessionCache) SetUser(ctx context.Context, token string, user *domain.User, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, sessionKey(token), data, ttl).Err()
}

func (r *RedisSessionCache) GetUser(ctx context.Context, token string) (*domain.User, error) {
	data, err := r.client.Get(ctx, sessionKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var user domain.User
	if err := json.Unmarshal([]byte(data), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *RedisSessionCache) Delete(ctx context.Context, token string) error {
	return r.client.Del(ctx, sessionKey(token)).Err()
}
