package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/rivlclub/rivl/internal/middleware"
	"github.com/rivlclub/rivl/internal/model"
)

// handleServiceError はサービス層のエラーを統一フォーマットで書き込む。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeInvalidRequest,
		model.ErrCodeProviderRejected,
		model.ErrCodeStoreRejected,
		model.ErrCodePaymentRejected,
		model.ErrCodeInvalidSignature:
		return http.StatusBadRequest
	case model.ErrCodeOriginNotAllowed:
		return http.StatusForbidden
	case model.ErrCodeNotFound:
		return http.StatusNotFound
	case model.ErrCodeRequestInProgress:
		return http.StatusConflict
	case model.ErrCodeKeyReused:
		return http.StatusUnprocessableEntity
	case model.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case model.ErrCodeUpstreamUnavailable:
		return http.StatusBadGateway
	case model.ErrCodeNotConfigured:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSONBody はリクエストボディをJSONオブジェクトとしてdstにデコードする。
// 空のボディは空オブジェクトとして扱う。失敗時は400を書き込んでfalseを返す。
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		middleware.WriteErrorResponse(w, http.StatusRequestEntityTooLarge,
			model.NewInvalidRequestError("request body too large"))
		return false
	}

	middleware.WriteErrorResponse(w, http.StatusBadRequest,
		model.NewInvalidRequestError("invalid JSON body"))
	return false
}
