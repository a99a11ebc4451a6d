package idempotency

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	resp      *Response
	expiresAt time.Time
}

// MemoryStore はプロセス内で完結するStore実装。単一インスタンス構成で使う。
type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]*memoryEntry
}

// NewMemoryStore は新しいMemoryStoreを生成する。ttlが0以下ならDefaultTTLを使う。
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]*memoryEntry),
	}
}

// Begin はキーを予約する。
func (s *MemoryStore) Begin(_ context.Context, key string) (*Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, ok := s.entries[key]; ok && now.Before(e.expiresAt) {
		if e.resp == nil {
			return nil, ErrInProgress
		}
		resp := *e.resp
		return &resp, nil
	}

	s.entries[key] = &memoryEntry{expiresAt: now.Add(s.ttl)}
	s.sweep(now)
	return nil, nil
}

// Complete は応答を保存する。
func (s *MemoryStore) Complete(_ context.Context, key string, resp Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = &memoryEntry{resp: &resp, expiresAt: s.now().Add(s.ttl)}
	return nil
}

// Release は予約を解除する。
func (s *MemoryStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

// Len は保持しているキー数を返す。
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// sweep は期限切れエントリを削除する。呼び出し側でロックを保持すること。
func (s *MemoryStore) sweep(now time.Time) {
	for k, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, k)
		}
	}
}
