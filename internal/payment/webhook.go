package payment

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"

	"github.com/rivlclub/rivl/internal/model"
	"github.com/rivlclub/rivl/internal/repository"
)

// webhookServiceName はエラーメッセージに使うサービス名。
const webhookServiceName = "payment webhook"

// EventRecorder は受信したWebhookイベントを記録する。
type EventRecorder interface {
	RecordPaymentEvent(eventType string)
}

// Reconciler はStripeのWebhookを検証し、決済完了をpaymentsテーブルへ反映する。
// 試合結果の行は変更しない。
type Reconciler struct {
	secret   string
	repo     repository.PaymentRepository
	recorder EventRecorder
	logger   *slog.Logger
}

// NewReconciler はReconcilerを生成する。secretが空の場合、全てのイベントは未設定エラーになる。
func NewReconciler(secret string, repo repository.PaymentRepository, recorder EventRecorder, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		secret:   secret,
		repo:     repo,
		recorder: recorder,
		logger:   logger,
	}
}

// HandleEvent は署名を検証してイベントを処理する。
// checkout.session.completed以外のイベントは受信だけして何もしない。
func (r *Reconciler) HandleEvent(ctx context.Context, payload []byte, signature string) error {
	if r.secret == "" {
		r.logger.Warn("webhook secret is not configured")
		return model.NewNotConfiguredError(webhookServiceName)
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, r.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		r.logger.Warn("webhook signature verification failed", slog.String("error", err.Error()))
		return model.NewInvalidSignatureError()
	}

	r.recorder.RecordPaymentEvent(string(event.Type))

	if event.Type != stripe.EventTypeCheckoutSessionCompleted {
		r.logger.Debug("webhook event ignored", slog.String("event_type", string(event.Type)))
		return nil
	}

	var cs stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
		r.logger.Error("failed to decode checkout session", slog.String("error", err.Error()))
		return model.NewInvalidRequestError("malformed checkout.session.completed payload")
	}

	record := PaymentRecordFromSession(&cs)
	if err := r.repo.Upsert(ctx, record); err != nil {
		r.logger.Error("failed to record payment",
			slog.String("session_id", record.SessionID),
			slog.String("error", err.Error()),
		)
		return model.NewUpstreamUnavailableError("payments store")
	}

	r.logger.Info("payment recorded",
		slog.String("session_id", record.SessionID),
		slog.String("game_id", record.GameID),
		slog.String("status", record.Status),
	)
	return nil
}

// PaymentRecordFromSession はチェックアウトセッションから決済記録を組み立てる。
// ゲームとプレイヤーは作成時に付けたメタデータから取り出す。
func PaymentRecordFromSession(cs *stripe.CheckoutSession) *model.PaymentRecord {
	return &model.PaymentRecord{
		SessionID:   cs.ID,
		GameID:      cs.Metadata["gameId"],
		PlayerID:    cs.Metadata["playerId"],
		AmountCents: cs.AmountTotal,
		Currency:    string(cs.Currency),
		Status:      string(cs.PaymentStatus),
	}
}
