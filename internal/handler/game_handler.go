package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rivlclub/rivl/internal/middleware"
	"github.com/rivlclub/rivl/internal/model"
)

const resultSavedMessage = "Risultato salvato"

// GameServiceInterface はゲームハンドラーが必要とするサービスインターフェース。
type GameServiceInterface interface {
	ListGames() []model.GameDescriptor
	SubmitResult(ctx context.Context, result *model.MatchResult) (json.RawMessage, error)
}

// GameHandler はゲームカタログと試合結果のHTTPハンドラー。
type GameHandler struct {
	service GameServiceInterface
}

// NewGameHandler はGameHandlerを生成する。
func NewGameHandler(service GameServiceInterface) *GameHandler {
	return &GameHandler{service: service}
}

type submitResultResponse struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// ListGames はゲーム一覧を返す。
// GET /api/games
func (h *GameHandler) ListGames(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, h.service.ListGames())
}

// SubmitResult は試合結果を保存する。
// POST /api/games/result
func (h *GameHandler) SubmitResult(w http.ResponseWriter, r *http.Request) {
	var result model.MatchResult
	if !decodeJSONBody(w, r, &result) {
		return
	}

	data, err := h.service.SubmitResult(r.Context(), &result)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, submitResultResponse{
		Message: resultSavedMessage,
		Data:    data,
	})
}
