package middleware

import (
	"log/slog"
	"net/http"

	"github.com/rivlclub/rivl/internal/model"
)

// DefaultAllowedOrigins はクロスオリジンリクエストを許可するオリジンの一覧。
// ビルドに組み込みで、環境変数からは変更しない。
var DefaultAllowedOrigins = []string{
	"https://rivl.club",
	"https://www.rivl.club",
	"http://localhost:5173",
	"http://localhost:3000",
}

// CORSRejectionRecorder はCORS拒否を記録する。
type CORSRejectionRecorder interface {
	RecordCORSRejection()
}

// NewCORSMiddleware は許可リストに基づくCORSミドルウェアを返す。
//
//   - Originヘッダーが無いリクエスト（サーバー間通信、curl等）は常に通す。
//   - 許可リスト内のオリジンにはそのオリジンを返し、credentialsを許可する。
//   - 許可リスト外のオリジンは後続のハンドラーに到達させず403で拒否する。
//
// 許可されたオリジンからのOPTIONSプリフライトには204で応答する。
func NewCORSMiddleware(allowedOrigins []string, recorder CORSRejectionRecorder) func(next http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Add("Vary", "Origin")

			if _, ok := allowed[origin]; !ok {
				if recorder != nil {
					recorder.RecordCORSRejection()
				}
				slog.Warn("cors origin rejected",
					slog.String("origin", origin),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)
				WriteErrorResponse(w, http.StatusForbidden, model.NewOriginNotAllowedError())
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Idempotency-Key")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Max-Age", "86400")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
