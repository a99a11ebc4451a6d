package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/rivlclub/rivl/internal/middleware"
	"github.com/rivlclub/rivl/internal/model"
)

// stripeSignatureHeader はWebhookの署名ヘッダー名。
const stripeSignatureHeader = "Stripe-Signature"

// PaymentServiceInterface はチェックアウト作成のサービスインターフェース。
type PaymentServiceInterface interface {
	CreateCheckout(ctx context.Context, req model.CheckoutRequest) (*model.CheckoutSession, error)
}

// WebhookServiceInterface は決済Webhookのサービスインターフェース。
type WebhookServiceInterface interface {
	HandleEvent(ctx context.Context, payload []byte, signature string) error
}

// PaymentHandler は決済関連のHTTPハンドラー。
type PaymentHandler struct {
	service PaymentServiceInterface
	webhook WebhookServiceInterface
}

// NewPaymentHandler はPaymentHandlerを生成する。
func NewPaymentHandler(service PaymentServiceInterface, webhook WebhookServiceInterface) *PaymentHandler {
	return &PaymentHandler{service: service, webhook: webhook}
}

type checkoutResponse struct {
	URL string `json:"url"`
}

type webhookResponse struct {
	Received bool `json:"received"`
}

// CreateCheckout はチェックアウトセッションを作成し、リダイレクト先URLを返す。
// POST /api/payments/create-checkout
func (h *PaymentHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	var req model.CheckoutRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	session, err := h.service.CreateCheckout(r.Context(), req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, checkoutResponse{URL: session.RedirectURL})
}

// Webhook はStripeからのイベントを受け取る。
// 署名検証のためボディは生のバイト列のまま渡す。
// POST /api/payments/webhook
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		status := http.StatusBadRequest
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			status = http.StatusRequestEntityTooLarge
		}
		middleware.WriteErrorResponse(w, status, model.NewInvalidRequestError("failed to read request body"))
		return
	}

	if err := h.webhook.HandleEvent(r.Context(), payload, r.Header.Get(stripeSignatureHeader)); err != nil {
		handleServiceError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, webhookResponse{Received: true})
}
