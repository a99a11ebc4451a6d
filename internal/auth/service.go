// Package auth はIDプロバイダーへのユーザー登録とログインの中継を提供する。
// 資格情報はこのプロセスで検証も保存もしない。
package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/rivlclub/rivl/internal/model"
	"github.com/rivlclub/rivl/internal/supabase"
)

// identityServiceName はエラーメッセージに使うサービス名。
const identityServiceName = "identity service"

// IdentityProvider はメール/パスワード認証を行うIDプロバイダー。
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password string) (*supabase.AuthResponse, error)
	SignInWithPassword(ctx context.Context, email, password string) (*supabase.AuthResponse, error)
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	provider IdentityProvider
	logger   *slog.Logger
}

// NewService はServiceを生成する。
func NewService(provider IdentityProvider, logger *slog.Logger) *Service {
	return &Service{provider: provider, logger: logger}
}

// Register はユーザーを登録する。
// メール確認が必要な設定ではユーザーが空のまま成功することがある。
func (s *Service) Register(ctx context.Context, creds model.Credentials) (*model.Registration, error) {
	resp, err := s.provider.SignUp(ctx, creds.Email, creds.Password)
	if err != nil {
		return nil, s.translate("register", err)
	}

	user := resp.User
	if len(user) == 0 {
		user = model.UserRef("null")
	}
	return &model.Registration{User: user}, nil
}

// Login はパスワードでログインし、アクセストークンとユーザーを返す。
// トークンかユーザーが欠けた成功レスポンスはプロバイダーの異常として扱う。
func (s *Service) Login(ctx context.Context, creds model.Credentials) (*model.Session, error) {
	resp, err := s.provider.SignInWithPassword(ctx, creds.Email, creds.Password)
	if err != nil {
		return nil, s.translate("login", err)
	}

	if resp.AccessToken == "" || !model.HasUser(resp.User) {
		s.logger.Error("login succeeded without a session",
			slog.Bool("has_token", resp.AccessToken != ""),
			slog.Bool("has_user", model.HasUser(resp.User)),
		)
		return nil, model.NewUpstreamUnavailableError(identityServiceName)
	}

	return &model.Session{AccessToken: resp.AccessToken, User: resp.User}, nil
}

// translate はプロバイダーのエラーをAPIErrorに変換する。
// 4xxの拒否はメッセージをそのまま返し、それ以外は原因をログにのみ残す。
func (s *Service) translate(op string, err error) error {
	var apiErr *supabase.APIError
	switch {
	case errors.As(err, &apiErr) && apiErr.Rejected():
		return model.NewProviderRejectedError(apiErr.Message)
	case errors.Is(err, supabase.ErrNotConfigured):
		s.logger.Warn("identity provider is not configured", slog.String("operation", op))
		return model.NewNotConfiguredError(identityServiceName)
	default:
		s.logger.Error("identity provider call failed",
			slog.String("operation", op),
			slog.String("error", err.Error()),
		)
		return model.NewUpstreamUnavailableError(identityServiceName)
	}
}
