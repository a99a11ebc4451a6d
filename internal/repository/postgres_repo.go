package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/rivlclub/rivl/internal/model"
)

// PostgresMatchRepo はPostgreSQLを使用した試合結果リポジトリ。
type PostgresMatchRepo struct {
	db *sql.DB
}

// NewPostgresMatchRepo はPostgresMatchRepoを生成する。
func NewPostgresMatchRepo(db *sql.DB) *PostgresMatchRepo {
	return &PostgresMatchRepo{db: db}
}

// insertedMatch はRETURNINGで受け取る行。PostgRESTの表現と同じ列名で返す。
type insertedMatch struct {
	ID               string    `json:"id"`
	GameID           string    `json:"game_id"`
	PlayerID         string    `json:"player_id"`
	Score            float64   `json:"score"`
	PaymentSessionID *string   `json:"payment_session_id"`
	CreatedAt        time.Time `json:"created_at"`
}

// Insert はmatchesテーブルに1行を追加し、PostgRESTと同じく1要素の配列を返す。
func (r *PostgresMatchRepo) Insert(ctx context.Context, result *model.MatchResult) (json.RawMessage, error) {
	row := insertedMatch{}
	var paymentSessionID sql.NullString

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO matches (id, game_id, player_id, score, payment_session_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, game_id, player_id, score, payment_session_id, created_at`,
		uuid.NewString(), nullString(result.GameID), nullString(result.PlayerID), nullFloat(result.Score), nullString(result.PaymentSessionID),
	).Scan(&row.ID, &row.GameID, &row.PlayerID, &row.Score, &paymentSessionID, &row.CreatedAt)
	if err != nil {
		return nil, translatePostgresError("試合結果の保存", err)
	}

	if paymentSessionID.Valid {
		row.PaymentSessionID = &paymentSessionID.String
	}

	data, err := json.Marshal([]insertedMatch{row})
	if err != nil {
		return nil, fmt.Errorf("試合結果のエンコードに失敗しました: %w", err)
	}
	return data, nil
}

// PostgresPaymentRepo はPostgreSQLを使用した決済記録リポジトリ。
type PostgresPaymentRepo struct {
	db *sql.DB
}

// NewPostgresPaymentRepo はPostgresPaymentRepoを生成する。
func NewPostgresPaymentRepo(db *sql.DB) *PostgresPaymentRepo {
	return &PostgresPaymentRepo{db: db}
}

// Upsert はsession_idをキーとして決済記録を追加または更新する。
// 同じイベントが再送されても1行のまま状態だけが更新される。
func (r *PostgresPaymentRepo) Upsert(ctx context.Context, record *model.PaymentRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO payments (session_id, game_id, player_id, amount_cents, currency, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (session_id) DO UPDATE SET
		     game_id = EXCLUDED.game_id,
		     player_id = EXCLUDED.player_id,
		     amount_cents = EXCLUDED.amount_cents,
		     currency = EXCLUDED.currency,
		     status = EXCLUDED.status,
		     updated_at = now()`,
		record.SessionID, record.GameID, record.PlayerID, record.AmountCents, record.Currency, record.Status,
	)
	if err != nil {
		return translatePostgresError("決済記録の保存", err)
	}
	return nil
}

// nullString は*stringをsql.NullStringに変換する。
func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

// translatePostgresError はデータ例外（22）と整合性制約違反（23）を拒否として扱う。
func translatePostgresError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "22", "23":
			return &RejectionError{Message: pqErr.Message, Err: err}
		}
	}
	return fmt.Errorf("%sに失敗しました: %w", op, err)
}
