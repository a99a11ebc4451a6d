package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/rivlclub/rivl/internal/idempotency"
	"github.com/rivlclub/rivl/internal/model"
)

// IdempotencyKeyHeader はクライアントが冪等キーを指定するヘッダー名。
const IdempotencyKeyHeader = "Idempotency-Key"

// IdempotentReplayHeader は保存済み応答の再送であることを示すヘッダー名。
const IdempotentReplayHeader = "Idempotent-Replayed"

const maxIdempotencyKeyLength = 255

// captureWriter はクライアントへ書き込みつつ応答を記録する。
type captureWriter struct {
	*responseRecorder
	body bytes.Buffer
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	cw.body.Write(b)
	return cw.responseRecorder.Write(b)
}

// NewIdempotencyMiddleware はIdempotency-Keyヘッダー付きの書き込みリクエストを重複排除する。
//
// ヘッダーが無いリクエストはそのまま通す。同じキーの完了済みリクエストには保存済み応答を返し、
// 処理中なら409を返す。ボディが最初のリクエストと異なる場合は422を返す。5xx応答は保存せず予約を解除し、クライアントの再試行を許す。
// 保存先の障害時は重複排除を諦めてリクエストを処理する。
func NewIdempotencyMiddleware(store idempotency.Store) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			headerKey := r.Header.Get(IdempotencyKeyHeader)
			if headerKey == "" || r.Method == http.MethodGet || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			if len(headerKey) > maxIdempotencyKeyLength {
				WriteErrorResponse(w, http.StatusBadRequest,
					model.NewInvalidRequestError("Idempotency-Key is too long"))
				return
			}

			payload, err := io.ReadAll(r.Body)
			if err != nil {
				var maxBytesErr *http.MaxBytesError
				if errors.As(err, &maxBytesErr) {
					WriteErrorResponse(w, http.StatusRequestEntityTooLarge,
						model.NewInvalidRequestError("request body too large"))
					return
				}
				WriteErrorResponse(w, http.StatusBadRequest,
					model.NewInvalidRequestError("failed to read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(payload))
			requestHash := hashBody(payload)

			ctx := r.Context()
			key := r.Method + " " + r.URL.Path + " " + headerKey

			stored, err := store.Begin(ctx, key)
			switch {
			case errors.Is(err, idempotency.ErrInProgress):
				WriteErrorResponse(w, http.StatusConflict, model.NewRequestInProgressError())
				return
			case err != nil:
				slog.Warn("idempotency store unavailable, processing without deduplication",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			case stored != nil:
				if stored.RequestHash != "" && stored.RequestHash != requestHash {
					WriteErrorResponse(w, http.StatusUnprocessableEntity, model.NewKeyReusedError())
					return
				}
				if stored.ContentType != "" {
					w.Header().Set("Content-Type", stored.ContentType)
				}
				w.Header().Set(IdempotentReplayHeader, "true")
				w.WriteHeader(stored.StatusCode)
				w.Write(stored.Body)
				return
			}

			cw := &captureWriter{responseRecorder: newResponseRecorder(w)}

			completed := false
			defer func() {
				if !completed {
					// panic等で応答が確定しなかった場合も予約を残さない
					releaseKey(store, key)
				}
			}()

			next.ServeHTTP(cw, r)

			if cw.statusCode >= 500 {
				return
			}

			resp := idempotency.Response{
				StatusCode:  cw.statusCode,
				ContentType: cw.Header().Get("Content-Type"),
				Body:        cw.body.Bytes(),
				RequestHash: requestHash,
			}
			if err := store.Complete(context.WithoutCancel(ctx), key, resp); err != nil {
				slog.Warn("failed to store idempotent response", slog.String("error", err.Error()))
				return
			}
			completed = true
		})
	}
}

func releaseKey(store idempotency.Store, key string) {
	if err := store.Release(context.Background(), key); err != nil {
		slog.Warn("failed to release idempotency key", slog.String("error", err.Error()))
	}
}

func hashBody(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
