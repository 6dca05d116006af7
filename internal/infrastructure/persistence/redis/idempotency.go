package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/xiebiao/storefront/pkg/errors"
)

// DefaultIdempotencyTTL 已完成幂等键的保留时长
const DefaultIdempotencyTTL = 24 * time.Hour

// DefaultPendingTTL 处理中占位的存活时长
// 进程在Complete/Release之前退出时，占位到期后客户端即可重试
const DefaultPendingTTL = time.Minute

// pendingMarker 占位值:首个请求仍在处理中
const pendingMarker = "pending"

// IdempotencyStore 下单幂等键存储
// Key设计:idempotency:{scope}:{key},scope为买家ID,值为订单ID
// 1. Reserve用SETNX占位,抢到占位的请求负责下单
// 2. 下单成功后Complete写入订单ID,重放请求直接返回原订单
// 3. 下单失败时Release删除占位,允许客户端重试
// 占位只存活pendingTTL,写入订单ID后才使用完整的ttl
type IdempotencyStore struct {
	client     *redis.Client
	ttl        time.Duration
	pendingTTL time.Duration
}

// NewIdempotencyStore 创建幂等键存储
// ttl<=0时使用DefaultIdempotencyTTL；占位时长取DefaultPendingTTL与ttl中较小者
func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return &IdempotencyStore{client: client, ttl: ttl, pendingTTL: min(DefaultPendingTTL, ttl)}
}

func idempotencyKey(scope, key string) string {
	return fmt.Sprintf("idempotency:%s:%s", scope, key)
}

// Reserve 占用幂等键
// 返回值:
// - reserved=true:当前请求获得占位,应继续执行
// - reserved=false且orderID非空:之前的请求已完成
// - reserved=false且orderID为空:之前的请求仍在处理
func (s *IdempotencyStore) Reserve(ctx context.Context, scope, key string) (orderID string, reserved bool, err error) {
	k := idempotencyKey(scope, key)

	ok, err := s.client.SetNX(ctx, k, pendingMarker, s.pendingTTL).Result()
	if err != nil {
		return "", false, apperrors.ErrRedisError.WithCause(err)
	}
	if ok {
		return "", true, nil
	}

	value, err := s.client.Get(ctx, k).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// 占位恰好过期或被释放,视为仍在处理,由客户端重试
			return "", false, nil
		}
		return "", false, apperrors.ErrRedisError.WithCause(err)
	}
	if value == pendingMarker {
		return "", false, nil
	}
	return value, false, nil
}

// Complete 记录幂等键对应的订单
func (s *IdempotencyStore) Complete(ctx context.Context, scope, key, orderID string) error {
	if err := s.client.Set(ctx, idempotencyKey(scope, key), orderID, s.ttl).Err(); err != nil {
		return apperrors.ErrRedisError.WithCause(err)
	}
	return nil
}

// Release 释放占位
func (s *IdempotencyStore) Release(ctx context.Context, scope, key string) error {
	if err := s.client.Del(ctx, idempotencyKey(scope, key)).Err(); err != nil {
		return apperrors.ErrRedisError.WithCause(err)
	}
	return nil
}
