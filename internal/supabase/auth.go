package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// AuthResponse はサインアップ/サインインの結果。
// メール確認待ちのサインアップではAccessTokenは空になる。
type AuthResponse struct {
	AccessToken string
	User        json.RawMessage
}

type credentialsBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUp はメールアドレスとパスワードでユーザーを登録する。
// POST /auth/v1/signup
func (c *Client) SignUp(ctx context.Context, email, password string) (*AuthResponse, error) {
	body, err := c.do(ctx, http.MethodPost, "/auth/v1/signup", nil, nil, credentialsBody{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return nil, err
	}
	return parseAuthResponse(body)
}

// SignInWithPassword はパスワードグラントでセッションを発行する。
// POST /auth/v1/token?grant_type=password
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*AuthResponse, error) {
	query := url.Values{}
	query.Set("grant_type", "password")

	body, err := c.do(ctx, http.MethodPost, "/auth/v1/token", query, nil, credentialsBody{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return nil, err
	}
	return parseAuthResponse(body)
}

// parseAuthResponse はセッション形式とユーザー単体形式の両方を受け付ける。
// 自動確認が有効な場合はセッション、無効な場合はユーザーオブジェクトが返る。
func parseAuthResponse(body []byte) (*AuthResponse, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	resp := &AuthResponse{}
	if raw, ok := fields["access_token"]; ok {
		if err := json.Unmarshal(raw, &resp.AccessToken); err != nil {
			return nil, fmt.Errorf("%w: access_token: %v", ErrMalformedResponse, err)
		}
	}

	if user, ok := fields["user"]; ok {
		resp.User = user
	} else if resp.AccessToken == "" {
		resp.User = json.RawMessage(body)
	}

	return resp, nil
}
