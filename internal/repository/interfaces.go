// Package repository はデータ永続化のインターフェースと実装を定義する。
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rivlclub/rivl/internal/model"
)

// ErrNotConfigured はストアの接続先が設定されていないことを示す。
var ErrNotConfigured = errors.New("repository: store is not configured")

// RejectionError はストアが書き込み内容を拒否したことを示す。
// Messageはストアの文言をそのまま保持し、クライアントへ返してよい。
type RejectionError struct {
	Message string
	Err     error
}

// Error はerrorインターフェースを実装する。
func (e *RejectionError) Error() string {
	return fmt.Sprintf("store rejected write: %s", e.Message)
}

// Unwrap は元のエラーを返す。
func (e *RejectionError) Unwrap() error {
	return e.Err
}

// MatchRepository は試合結果の永続化インターフェース。
type MatchRepository interface {
	// Insert は試合結果を1行追加し、追加された行の表現（JSON配列）を返す。
	// 重複排除はしない。同じ内容を2回渡せば2行追加される。
	Insert(ctx context.Context, result *model.MatchResult) (json.RawMessage, error)
}

// PaymentRepository は決済記録の永続化インターフェース。
type PaymentRepository interface {
	// Upsert はセッションIDをキーとして決済記録を追加または更新する。
	Upsert(ctx context.Context, record *model.PaymentRecord) error
}

// RESTClient はPostgREST互換の行挿入APIを持つクライアント。
type RESTClient interface {
	Insert(ctx context.Context, table string, row any) (json.RawMessage, error)
	Upsert(ctx context.Context, table, onConflict string, row any) error
}

// matchRow はmatchesテーブルの1行。
type matchRow struct {
	GameID           *string  `json:"game_id"`
	PlayerID         *string  `json:"player_id"`
	Score            *float64 `json:"score"`
	PaymentSessionID *string  `json:"payment_session_id"`
}

func newMatchRow(result *model.MatchResult) matchRow {
	return matchRow{
		GameID:           result.GameID,
		PlayerID:         result.PlayerID,
		Score:            result.Score,
		PaymentSessionID: result.PaymentSessionID,
	}
}

// paymentRow はpaymentsテーブルの1行。
type paymentRow struct {
	SessionID   string `json:"session_id"`
	GameID      string `json:"game_id"`
	PlayerID    string `json:"player_id"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	Status      string `json:"status"`
}

func newPaymentRow(record *model.PaymentRecord) paymentRow {
	return paymentRow{
		SessionID:   record.SessionID,
		GameID:      record.GameID,
		PlayerID:    record.PlayerID,
		AmountCents: record.AmountCents,
		Currency:    record.Currency,
		Status:      record.Status,
	}
}
