package middleware

import (
	"net/http"
	"time"
)

// HTTPRequestRecorder はHTTPリクエストの処理結果を記録する。
type HTTPRequestRecorder interface {
	RecordHTTPRequest(method, route string, statusCode int, duration time.Duration)
}

// NewMetricsMiddleware はリクエストごとにルートパターン単位のメトリクスを記録する。
func NewMetricsMiddleware(recorder HTTPRequestRecorder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := newResponseRecorder(w)

			next.ServeHTTP(rec, r)

			recorder.RecordHTTPRequest(r.Method, routePattern(r, "unmatched"), rec.statusCode, time.Since(start))
		})
	}
}
