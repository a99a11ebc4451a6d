// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// ワイヤ上では {"error": Message} として返す。
type APIError struct {
	Code     string // エラーコード（HTTPステータスの決定に使用）
	Message  string // クライアントに返すメッセージ
	Category string // カテゴリ: auth, validation, game, payment, system
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidRequest      = "INVALID_REQUEST"
	ErrCodeProviderRejected    = "PROVIDER_REJECTED"
	ErrCodeStoreRejected       = "STORE_REJECTED"
	ErrCodePaymentRejected     = "PAYMENT_REJECTED"
	ErrCodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	ErrCodeNotConfigured       = "NOT_CONFIGURED"
	ErrCodeInvalidSignature    = "INVALID_SIGNATURE"
	ErrCodeOriginNotAllowed    = "ORIGIN_NOT_ALLOWED"
	ErrCodeRateLimited         = "RATE_LIMITED"
	ErrCodeRequestInProgress   = "REQUEST_IN_PROGRESS"
	ErrCodeKeyReused           = "IDEMPOTENCY_KEY_REUSED"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeInternal            = "INTERNAL_ERROR"
)

// NewInvalidRequestError はリクエストボディが解釈できない場合のエラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  reason,
		Category: "validation",
	}
}

// NewProviderRejectedError はIDプロバイダーが拒否した場合のエラーを生成する。
// メッセージはプロバイダーの文言をそのまま使う。
func NewProviderRejectedError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeProviderRejected,
		Message:  message,
		Category: "auth",
	}
}

// NewStoreRejectedError は結果ストアが書き込みを拒否した場合のエラーを生成する。
func NewStoreRejectedError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeStoreRejected,
		Message:  message,
		Category: "game",
	}
}

// NewPaymentRejectedError は決済プロセッサがリクエストを拒否した場合のエラーを生成する。
func NewPaymentRejectedError(message string) *APIError {
	return &APIError{
		Code:     ErrCodePaymentRejected,
		Message:  message,
		Category: "payment",
	}
}

// NewUpstreamUnavailableError は外部サービスに到達できない場合のエラーを生成する。
// 原因はサーバーログにのみ記録し、ここには含めない。
func NewUpstreamUnavailableError(service string) *APIError {
	return &APIError{
		Code:     ErrCodeUpstreamUnavailable,
		Message:  fmt.Sprintf("%s is currently unavailable, please try again later", service),
		Category: "system",
	}
}

// NewNotConfiguredError は外部サービスの設定が無い場合のエラーを生成する。
func NewNotConfiguredError(service string) *APIError {
	return &APIError{
		Code:     ErrCodeNotConfigured,
		Message:  fmt.Sprintf("%s is not configured on this server", service),
		Category: "system",
	}
}

// NewInvalidSignatureError はWebhook署名の検証に失敗した場合のエラーを生成する。
func NewInvalidSignatureError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidSignature,
		Message:  "invalid webhook signature",
		Category: "payment",
	}
}

// NewOriginNotAllowedError は許可リスト外のオリジンからのリクエストを表す。
func NewOriginNotAllowedError() *APIError {
	return &APIError{
		Code:     ErrCodeOriginNotAllowed,
		Message:  "The CORS policy for this site does not allow access from the specified Origin.",
		Category: "system",
	}
}

// NewRateLimitedError はレート制限超過を表す。
func NewRateLimitedError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimited,
		Message:  "too many requests, please try again later",
		Category: "system",
	}
}

// NewRequestInProgressError は同じIdempotency-Keyのリクエストが処理中であることを表す。
func NewRequestInProgressError() *APIError {
	return &APIError{
		Code:     ErrCodeRequestInProgress,
		Message:  "a request with this Idempotency-Key is already in progress",
		Category: "validation",
	}
}

// NewKeyReusedError は同じIdempotency-Keyが異なるリクエストボディで再利用されたことを表す。
func NewKeyReusedError() *APIError {
	return &APIError{
		Code:     ErrCodeKeyReused,
		Message:  "Idempotency-Key was already used with a different request body",
		Category: "validation",
	}
}

// NewNotFoundError は存在しないAPIパスへのリクエストを表す。
func NewNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeNotFound,
		Message:  "not found",
		Category: "system",
	}
}

// NewInternalError は内部エラーを表す。詳細はログのみに記録する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "internal server error",
		Category: "system",
	}
}
