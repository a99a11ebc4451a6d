// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rivlclub/rivl/internal/middleware"
	"github.com/rivlclub/rivl/internal/model"
)

// クライアントに返すメッセージ。フロントエンドの表示文言に合わせる。
const (
	registeredMessage = "Registrazione avvenuta"
	loggedInMessage   = "Login ok"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Register(ctx context.Context, creds model.Credentials) (*model.Registration, error)
	Login(ctx context.Context, creds model.Credentials) (*model.Session, error)
}

// AuthHandler はメール/パスワード認証のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

type registerResponse struct {
	Message string          `json:"message"`
	User    json.RawMessage `json:"user"`
}

type loginResponse struct {
	Message     string          `json:"message"`
	AccessToken string          `json:"access_token"`
	User        json.RawMessage `json:"user"`
}

// Register はユーザーを登録する。
// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var creds model.Credentials
	if !decodeJSONBody(w, r, &creds) {
		return
	}

	reg, err := h.service.Register(r.Context(), creds)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, registerResponse{
		Message: registeredMessage,
		User:    reg.User,
	})
}

// Login はログインしてアクセストークンを返す。
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds model.Credentials
	if !decodeJSONBody(w, r, &creds) {
		return
	}

	session, err := h.service.Login(r.Context(), creds)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, loginResponse{
		Message:     loggedInMessage,
		AccessToken: session.AccessToken,
		User:        session.User,
	})
}
