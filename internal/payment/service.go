// Package payment はエントリー料金のチェックアウト作成と決済完了の記録を行う。
package payment

import (
	"context"
	"errors"
	"log/slog"
	"net/url"

	"github.com/stripe/stripe-go/v81"

	"github.com/rivlclub/rivl/internal/model"
)

const (
	// paymentServiceName はエラーメッセージに使うサービス名。
	paymentServiceName = "payment service"

	// checkoutSessionPlaceholder はStripeがリダイレクト時にセッションIDへ置換する文字列。
	checkoutSessionPlaceholder = "{CHECKOUT_SESSION_ID}"
)

// チェックアウト作成結果のメトリクスラベル
const (
	OutcomeCreated  = "created"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// CheckoutCreator はチェックアウトセッションを作成する。
// stripe-goのcheckout/session.Clientが満たす。
type CheckoutCreator interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// CheckoutRecorder はチェックアウト作成の結果を記録する。
type CheckoutRecorder interface {
	RecordCheckout(outcome string)
}

// Service はチェックアウトセッション作成のビジネスロジックを提供する。
type Service struct {
	sessions    CheckoutCreator
	frontendURL string
	recorder    CheckoutRecorder
	logger      *slog.Logger
}

// NewService はServiceを生成する。sessionsがnilの場合、作成は未設定エラーになる。
func NewService(sessions CheckoutCreator, frontendURL string, recorder CheckoutRecorder, logger *slog.Logger) *Service {
	return &Service{
		sessions:    sessions,
		frontendURL: frontendURL,
		recorder:    recorder,
		logger:      logger,
	}
}

// CreateCheckout はユーロ建て・数量1・カード払いのチェックアウトセッションを作成する。
func (s *Service) CreateCheckout(ctx context.Context, req model.CheckoutRequest) (*model.CheckoutSession, error) {
	if req.GameID == "" {
		return nil, model.NewInvalidRequestError("gameId is required")
	}
	if req.AmountCents <= 0 {
		return nil, model.NewInvalidRequestError("amountCents must be a positive integer")
	}
	if s.sessions == nil {
		s.logger.Warn("payment processor is not configured")
		return nil, model.NewNotConfiguredError(paymentServiceName)
	}

	cs, err := s.sessions.New(s.checkoutParams(ctx, req))
	if err != nil {
		return nil, s.translate(req, err)
	}

	s.recorder.RecordCheckout(OutcomeCreated)
	s.logger.Info("checkout session created",
		slog.String("session_id", cs.ID),
		slog.String("game_id", req.GameID),
		slog.Int64("amount_cents", req.AmountCents),
	)
	return &model.CheckoutSession{ID: cs.ID, RedirectURL: cs.URL}, nil
}

// checkoutParams はチェックアウト作成のパラメータを組み立てる。
func (s *Service) checkoutParams(ctx context.Context, req model.CheckoutRequest) *stripe.CheckoutSessionParams {
	gamePage := s.frontendURL + "/game/" + url.PathEscape(req.GameID)

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(string(stripe.CurrencyEUR)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("Quota per " + req.GameID),
					},
					UnitAmount: stripe.Int64(req.AmountCents),
				},
				Quantity: stripe.Int64(1),
			},
		},
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(gamePage + "?session_id=" + checkoutSessionPlaceholder),
		CancelURL:  stripe.String(gamePage + "?canceled=1"),
	}
	params.Context = ctx
	params.AddMetadata("playerId", req.PlayerID)
	params.AddMetadata("gameId", req.GameID)
	return params
}

// translate はStripeのエラーをAPIErrorに変換する。
// リクエスト内容による拒否のみメッセージを返し、それ以外は原因をログにのみ残す。
func (s *Service) translate(req model.CheckoutRequest, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && rejectedByProcessor(stripeErr) {
		s.recorder.RecordCheckout(OutcomeRejected)
		s.logger.Info("payment processor rejected checkout",
			slog.String("game_id", req.GameID),
			slog.String("message", stripeErr.Msg),
		)
		return model.NewPaymentRejectedError(stripeErr.Msg)
	}

	s.recorder.RecordCheckout(OutcomeError)
	s.logger.Error("failed to create checkout session",
		slog.String("game_id", req.GameID),
		slog.String("error", err.Error()),
	)
	return model.NewUpstreamUnavailableError(paymentServiceName)
}

// rejectedByProcessor はリクエスト内容が原因の拒否かを判定する。
// 401/403はサーバー側のキー設定の問題なのでクライアントには返さない。
func rejectedByProcessor(e *stripe.Error) bool {
	if e.Type != stripe.ErrorTypeInvalidRequest {
		return false
	}
	switch e.HTTPStatusCode {
	case 401, 403:
		return false
	}
	return e.HTTPStatusCode >= 400 && e.HTTPStatusCode < 500
}
