// Package idempotency はIdempotency-Keyによる書き込みリクエストの重複排除を支える保存先を提供する。
package idempotency

import (
	"context"
	"errors"
	"time"
)

// ErrInProgress は同じキーのリクエストが処理中であることを示す。
var ErrInProgress = errors.New("idempotency: request in progress")

// Response は完了済みリクエストの応答を保持する。再送時にそのまま返す。
// RequestHash は元のリクエストボディのSHA-256（16進）で、キーの使い回しを検出するのに使う。
type Response struct {
	StatusCode  int    `json:"status_code"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
	RequestHash string `json:"request_hash,omitempty"`
}

// Store は冪等キーの予約と完了済み応答の保存を行う。
//
// Begin はキーが未使用なら予約してnil, nilを返す。
// 完了済みなら保存された応答を返し、処理中ならErrInProgressを返す。
type Store interface {
	Begin(ctx context.Context, key string) (*Response, error)
	Complete(ctx context.Context, key string, resp Response) error
	Release(ctx context.Context, key string) error
}

// DefaultTTL はキーを保持するデフォルト期間。
const DefaultTTL = 24 * time.Hour
