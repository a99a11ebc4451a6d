package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rivlclub/rivl/internal/model"
	"github.com/rivlclub/rivl/internal/supabase"
)

const (
	matchesTable  = "matches"
	paymentsTable = "payments"
)

// SupabaseMatchRepo はSupabaseのPostgRESTを使用した試合結果リポジトリ。
type SupabaseMatchRepo struct {
	client RESTClient
}

// NewSupabaseMatchRepo はSupabaseMatchRepoを生成する。
func NewSupabaseMatchRepo(client RESTClient) *SupabaseMatchRepo {
	return &SupabaseMatchRepo{client: client}
}

// Insert はmatchesテーブルに1行を追加する。
func (r *SupabaseMatchRepo) Insert(ctx context.Context, result *model.MatchResult) (json.RawMessage, error) {
	data, err := r.client.Insert(ctx, matchesTable, newMatchRow(result))
	if err != nil {
		return nil, translateSupabaseError("試合結果の保存", err)
	}
	return data, nil
}

// SupabasePaymentRepo はSupabaseのPostgRESTを使用した決済記録リポジトリ。
type SupabasePaymentRepo struct {
	client RESTClient
}

// NewSupabasePaymentRepo はSupabasePaymentRepoを生成する。
func NewSupabasePaymentRepo(client RESTClient) *SupabasePaymentRepo {
	return &SupabasePaymentRepo{client: client}
}

// Upsert はpaymentsテーブルにsession_idをキーとして1行を追加または更新する。
func (r *SupabasePaymentRepo) Upsert(ctx context.Context, record *model.PaymentRecord) error {
	if err := r.client.Upsert(ctx, paymentsTable, "session_id", newPaymentRow(record)); err != nil {
		return translateSupabaseError("決済記録の保存", err)
	}
	return nil
}

// translateSupabaseError はSupabaseのエラーをリポジトリのエラーに変換する。
func translateSupabaseError(op string, err error) error {
	var apiErr *supabase.APIError
	switch {
	case errors.As(err, &apiErr) && apiErr.Rejected():
		return &RejectionError{Message: apiErr.Message, Err: err}
	case errors.Is(err, supabase.ErrNotConfigured):
		return fmt.Errorf("%sに失敗しました: %w: %w", op, ErrNotConfigured, err)
	default:
		return fmt.Errorf("%sに失敗しました: %w", op, err)
	}
}
