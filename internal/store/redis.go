package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"toria/internal/models"
)

const deviceKeyPrefix = "toria:device:"

// RedisSessions keeps the per-device signed-in user in Redis.
type RedisSessions struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisClient opens a client for addr. It does not dial until first use.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// NewRedisSessions wraps client. A zero ttl keeps records until sign-out.
func NewRedisSessions(client redis.Cmdable, ttl time.Duration) *RedisSessions {
	return &RedisSessions{client: client, ttl: ttl}
}

// SaveDeviceUser replaces the record for deviceID.
func (r *RedisSessions) SaveDeviceUser(ctx context.Context, deviceID string, user models.User) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode device user: %w", err)
	}
	if err := r.client.Set(ctx, deviceKeyPrefix+deviceID, payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("save device user: %w", err)
	}
	return nil
}

// LoadDeviceUser returns the record for deviceID, if any.
func (r *RedisSessions) LoadDeviceUser(ctx context.Context, deviceID string) (models.User, bool, error) {
	payload, err := r.client.Get(ctx, deviceKeyPrefix+deviceID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.User{}, false, nil
		}
		return models.User{}, false, fmt.Errorf("load device user: %w", err)
	}

	var user models.User
	if err := json.Unmarshal(payload, &user); err != nil {
		return models.User{}, false, fmt.Errorf("decode device user: %w", err)
	}
	return user, true, nil
}

// DeleteDeviceUser removes the record for deviceID.
func (r *RedisSessions) DeleteDeviceUser(ctx context.Context, deviceID string) error {
	if err := r.client.Del(ctx, deviceKeyPrefix+deviceID).Err(); err != nil {
		return fmt.Errorf("delete device user: %w", err)
	}
	return nil
}
