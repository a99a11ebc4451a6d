package idempotency

import (
	"context"
	"errors"
	"net"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// redisStoreForTest はテスト用のRedisStoreを返す。
// TEST_REDIS_URLが未設定、またはRedisに接続できない場合はスキップする。
func redisStoreForTest(t *testing.T) *RedisStore {
	t.Helper()

	redisURL := os.Getenv("TEST_REDIS_URL")
	if redisURL == "" {
		t.Skip("TEST_REDIS_URL is not set")
	}

	client, err := NewRedisClient(redisURL)
	if err != nil {
		t.Fatalf("failed to create redis client: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	store := NewRedisStore(client, time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := store.Ping(ctx); err != nil {
		t.Skipf("redis is not available: %v", err)
	}
	return store
}

func TestRedisStore_Lifecycle(t *testing.T) {
	s := redisStoreForTest(t)
	ctx := context.Background()
	key := "test-" + uuid.NewString()
	t.Cleanup(func() { s.Release(context.Background(), key) })

	resp, err := s.Begin(ctx, key)
	if err != nil || resp != nil {
		t.Fatalf("first Begin = (%v, %v), want (nil, nil)", resp, err)
	}

	if _, err := s.Begin(ctx, key); !errors.Is(err, ErrInProgress) {
		t.Errorf("second Begin err = %v, want ErrInProgress", err)
	}

	want := Response{StatusCode: 200, ContentType: "application/json", Body: []byte(`{"id":"cs_1"}`), RequestHash: "abc123"}
	if err := s.Complete(ctx, key, want); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	got, err := s.Begin(ctx, key)
	if err != nil {
		t.Fatalf("Begin after Complete failed: %v", err)
	}
	if got == nil || got.StatusCode != 200 || string(got.Body) != `{"id":"cs_1"}` || got.RequestHash != "abc123" {
		t.Errorf("stored response = %+v, want %+v", got, want)
	}
}

func TestRedisStore_Release(t *testing.T) {
	s := redisStoreForTest(t)
	ctx := context.Background()
	key := "test-" + uuid.NewString()

	if _, err := s.Begin(ctx, key); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if err := s.Release(ctx, key); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	resp, err := s.Begin(ctx, key)
	if err != nil || resp != nil {
		t.Errorf("Begin after Release = (%v, %v), want (nil, nil)", resp, err)
	}
	s.Release(ctx, key)
}

func TestNewRedisClient_InvalidURL(t *testing.T) {
	if _, err := NewRedisClient("not-a-url://"); err == nil {
		t.Error("expected error for invalid redis url")
	}
}

// scriptedHook はRedisへ接続せず、SETNXとGETの結果を順番に返すフック。
// getsの空文字列はキーが存在しないこと（redis.Nil）を表す。
type scriptedHook struct {
	setnx []bool
	gets  []string

	setnxCalls int
	getCalls   int
}

func (h *scriptedHook) DialHook(redis.DialHook) redis.DialHook {
	return func(context.Context, string, string) (net.Conn, error) {
		return nil, errors.New("dial is not allowed in this test")
	}
}

func (h *scriptedHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		switch c := cmd.(type) {
		case *redis.BoolCmd:
			c.SetVal(h.setnx[h.setnxCalls])
			h.setnxCalls++
			return nil
		case *redis.StringCmd:
			v := h.gets[h.getCalls]
			h.getCalls++
			if v == "" {
				c.SetErr(redis.Nil)
				return redis.Nil
			}
			c.SetVal(v)
			return nil
		}
		return next(ctx, cmd)
	}
}

func (h *scriptedHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func scriptedStore(t *testing.T, hook *scriptedHook) *RedisStore {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	client.AddHook(hook)
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, time.Minute)
}

func TestRedisStore_Begin_RetriesWhenKeyVanishes(t *testing.T) {
	hook := &scriptedHook{setnx: []bool{false, true}, gets: []string{""}}
	s := scriptedStore(t, hook)

	resp, err := s.Begin(context.Background(), "gone")
	if err != nil || resp != nil {
		t.Fatalf("Begin = (%v, %v), want (nil, nil)", resp, err)
	}
	if hook.setnxCalls != 2 {
		t.Errorf("SETNX calls = %d, want 2", hook.setnxCalls)
	}
}

func TestRedisStore_Begin_GivesUpAfterSecondMiss(t *testing.T) {
	hook := &scriptedHook{setnx: []bool{false, false}, gets: []string{"", ""}}
	s := scriptedStore(t, hook)

	if _, err := s.Begin(context.Background(), "flapping"); !errors.Is(err, ErrInProgress) {
		t.Errorf("err = %v, want ErrInProgress", err)
	}
	if hook.setnxCalls != 2 {
		t.Errorf("SETNX calls = %d, want 2", hook.setnxCalls)
	}
}

func TestRedisStore_Begin_ReturnsStoredResponse(t *testing.T) {
	hook := &scriptedHook{
		setnx: []bool{false},
		gets:  []string{`{"status_code":201,"content_type":"application/json","body":"e30=","request_hash":"h1"}`},
	}
	s := scriptedStore(t, hook)

	resp, err := s.Begin(context.Background(), "done")
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if resp == nil || resp.StatusCode != 201 || string(resp.Body) != "{}" || resp.RequestHash != "h1" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestRedisStore_Begin_PendingIsInProgress(t *testing.T) {
	hook := &scriptedHook{setnx: []bool{false}, gets: []string{pendingMarker}}
	s := scriptedStore(t, hook)

	if _, err := s.Begin(context.Background(), "busy"); !errors.Is(err, ErrInProgress) {
		t.Errorf("err = %v, want ErrInProgress", err)
	}
}
