package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rivlclub/rivl/internal/model"
)

func TestPaymentHandler_CreateCheckout_Success(t *testing.T) {
	var got model.CheckoutRequest
	svc := &mockPaymentService{
		createCheckoutFn: func(_ context.Context, req model.CheckoutRequest) (*model.CheckoutSession, error) {
			got = req
			return &model.CheckoutSession{ID: "cs_test_1", RedirectURL: "https://checkout.stripe.com/c/pay/cs_test_1"}, nil
		},
	}
	h := NewPaymentHandler(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/payments/create-checkout",
		strings.NewReader(`{"gameId":"tug-of-war","amountCents":500,"playerId":"p1"}`))
	w := httptest.NewRecorder()

	h.CreateCheckout(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if got.GameID != "tug-of-war" || got.AmountCents != 500 || got.PlayerID != "p1" {
		t.Errorf("request = %+v, not forwarded", got)
	}
	body := decodeBody(t, w.Body.Bytes())
	if body["url"] != "https://checkout.stripe.com/c/pay/cs_test_1" {
		t.Errorf("url = %v", body["url"])
	}
	if len(body) != 1 {
		t.Errorf("body = %v, want only url", body)
	}
}

func TestPaymentHandler_CreateCheckout_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"invalid amount", model.NewInvalidRequestError("amountCents must be a positive integer"), http.StatusBadRequest},
		{"processor rejected", model.NewPaymentRejectedError("Invalid currency"), http.StatusBadRequest},
		{"processor unreachable", model.NewUpstreamUnavailableError("payment service"), http.StatusBadGateway},
		{"not configured", model.NewNotConfiguredError("payment service"), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockPaymentService{
				createCheckoutFn: func(context.Context, model.CheckoutRequest) (*model.CheckoutSession, error) {
					return nil, tt.err
				},
			}
			h := NewPaymentHandler(svc, nil)

			req := httptest.NewRequest(http.MethodPost, "/api/payments/create-checkout",
				strings.NewReader(`{"gameId":"x","amountCents":0}`))
			w := httptest.NewRecorder()

			h.CreateCheckout(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestPaymentHandler_Webhook_PassesRawPayloadAndSignature(t *testing.T) {
	const payload = `{"id":"evt_1","type":"checkout.session.completed"}`
	var gotPayload, gotSignature string
	wh := &mockWebhookService{
		handleEventFn: func(_ context.Context, p []byte, sig string) error {
			gotPayload = string(p)
			gotSignature = sig
			return nil
		},
	}
	h := NewPaymentHandler(nil, wh)

	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", strings.NewReader(payload))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	w := httptest.NewRecorder()

	h.Webhook(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotPayload != payload {
		t.Errorf("payload = %q, want %q", gotPayload, payload)
	}
	if gotSignature != "t=1,v1=abc" {
		t.Errorf("signature = %q", gotSignature)
	}
	if body := decodeBody(t, w.Body.Bytes()); body["received"] != true {
		t.Errorf("received = %v, want true", body["received"])
	}
}

func TestPaymentHandler_Webhook_InvalidSignature(t *testing.T) {
	wh := &mockWebhookService{
		handleEventFn: func(context.Context, []byte, string) error {
			return model.NewInvalidSignatureError()
		},
	}
	h := NewPaymentHandler(nil, wh)

	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", strings.NewReader(`{}`))
	w := httptest.NewRecorder()

	h.Webhook(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}
