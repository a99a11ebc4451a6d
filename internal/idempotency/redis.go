package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "rivl:idempotency:"
	pendingMarker  = "pending"
)

// RedisStore はRedisを使うStore実装。複数インスタンス間でキーを共有する。
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisStore は新しいRedisStoreを生成する。ttlが0以下ならDefaultTTLを使う。
func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

// NewRedisClient はREDIS_URL形式のURLからクライアントを生成する。
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

// Begin はSETNXでキーを予約する。既存の値があればその状態を返す。
// SETNXとGETの間にキーが消えた場合は予約を1回だけやり直す。
func (s *RedisStore) Begin(ctx context.Context, key string) (*Response, error) {
	k := redisKeyPrefix + key

	for attempt := 0; attempt < 2; attempt++ {
		ok, err := s.client.SetNX(ctx, k, pendingMarker, s.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to reserve idempotency key: %w", err)
		}
		if ok {
			return nil, nil
		}

		raw, err := s.client.Get(ctx, k).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load idempotency key: %w", err)
		}
		if raw == pendingMarker {
			return nil, ErrInProgress
		}

		var resp Response
		if err := json.Unmarshal([]byte(raw), &resp); err != nil {
			return nil, fmt.Errorf("failed to decode stored response: %w", err)
		}
		return &resp, nil
	}

	return nil, ErrInProgress
}

// Complete は応答をJSONとして保存する。
func (s *RedisStore) Complete(ctx context.Context, key string, resp Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store idempotency response: %w", err)
	}
	return nil
}

// Release は予約を削除する。
func (s *RedisStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to release idempotency key: %w", err)
	}
	return nil
}

// Ping は接続確認を行う。
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
