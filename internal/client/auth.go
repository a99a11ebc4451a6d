package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// AuthMode はログインか登録かを表す。
type AuthMode string

const (
	AuthModeLogin    AuthMode = "login"
	AuthModeRegister AuthMode = "register"
)

// ユーザー向けの表示文言
const (
	invalidResponseMessage = "Risposta del server non valida (non è JSON). Controlla la console del server."
	genericAuthFailure     = "Errore durante l'operazione"
	loginDoneMessage       = "Login effettuato!"
	registerDoneMessage    = "Registrazione completata! Controlla la tua email."
)

// ErrInvalidResponse はサーバーの応答がJSONでない場合に返す。
var ErrInvalidResponse = errors.New(invalidResponseMessage)

// AuthError はサーバーが認証を拒否した場合のエラー。Messageはそのまま表示できる。
type AuthError struct {
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	return e.Message
}

// AuthResult は認証成功時の結果。
type AuthResult struct {
	Message     string // ユーザー向けの表示文言
	AccessToken string
	User        json.RawMessage
}

// LoggedIn はユーザーが返されたログインかどうかを返す。
func (r *AuthResult) LoggedIn() bool {
	return r.AccessToken != "" && len(r.User) > 0 && string(r.User) != "null"
}

type authResponseBody struct {
	Error       string          `json:"error"`
	AccessToken string          `json:"access_token"`
	User        json.RawMessage `json:"user"`
}

// SubmitAuth はバックエンドにログインまたは登録を送信する。
// ログインに成功した場合はアクセストークンをAppに保持する。Close後はErrClosedを返す。
func (a *App) SubmitAuth(ctx context.Context, mode AuthMode, email, password string) (*AuthResult, error) {
	if a.isClosed() {
		return nil, ErrClosed
	}
	if mode != AuthModeLogin && mode != AuthModeRegister {
		return nil, fmt.Errorf("client: unknown auth mode %q", mode)
	}

	payload, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.baseURL+"/api/auth/"+string(mode), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("client: auth request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("client: read auth response: %w", err)
	}

	var body authResponseBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, ErrInvalidResponse
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := body.Error
		if msg == "" {
			msg = genericAuthFailure
		}
		return nil, &AuthError{StatusCode: resp.StatusCode, Message: msg}
	}

	result := &AuthResult{
		Message:     registerDoneMessage,
		AccessToken: body.AccessToken,
		User:        body.User,
	}
	if mode == AuthModeLogin {
		result.Message = loginDoneMessage
		if result.LoggedIn() {
			a.mu.Lock()
			defer a.mu.Unlock()
			if a.closed {
				return nil, ErrClosed
			}
			a.accessToken = body.AccessToken
		}
	}
	return result, nil
}

// AccessToken はログイン済みのアクセストークンを返す。未ログインなら空文字列。
func (a *App) AccessToken() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.accessToken
}
