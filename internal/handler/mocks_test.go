package handler

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rivlclub/rivl/internal/model"
)

type mockAuthService struct {
	registerFn func(ctx context.Context, creds model.Credentials) (*model.Registration, error)
	loginFn    func(ctx context.Context, creds model.Credentials) (*model.Session, error)
}

func (m *mockAuthService) Register(ctx context.Context, creds model.Credentials) (*model.Registration, error) {
	return m.registerFn(ctx, creds)
}

func (m *mockAuthService) Login(ctx context.Context, creds model.Credentials) (*model.Session, error) {
	return m.loginFn(ctx, creds)
}

type mockGameService struct {
	games          []model.GameDescriptor
	submitResultFn func(ctx context.Context, result *model.MatchResult) (json.RawMessage, error)
}

func (m *mockGameService) ListGames() []model.GameDescriptor {
	return m.games
}

func (m *mockGameService) SubmitResult(ctx context.Context, result *model.MatchResult) (json.RawMessage, error) {
	return m.submitResultFn(ctx, result)
}

type mockPaymentService struct {
	createCheckoutFn func(ctx context.Context, req model.CheckoutRequest) (*model.CheckoutSession, error)
}

func (m *mockPaymentService) CreateCheckout(ctx context.Context, req model.CheckoutRequest) (*model.CheckoutSession, error) {
	return m.createCheckoutFn(ctx, req)
}

type mockWebhookService struct {
	handleEventFn func(ctx context.Context, payload []byte, signature string) error
}

func (m *mockWebhookService) HandleEvent(ctx context.Context, payload []byte, signature string) error {
	return m.handleEventFn(ctx, payload, signature)
}

// decodeBody はレスポンスボディをmapにデコードする。
func decodeBody(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		t.Fatalf("failed to decode response body %q: %v", body, err)
	}
	return m
}
