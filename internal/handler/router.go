package handler

import (
	"log/slog"
	"net/http"
	"net/netip"

	"github.com/go-chi/chi/v5"

	"github.com/rivlclub/rivl/internal/idempotency"
	"github.com/rivlclub/rivl/internal/metrics"
	"github.com/rivlclub/rivl/internal/middleware"
	"github.com/rivlclub/rivl/internal/model"
)

// RouterDeps はルーター構築に必要な依存関係を保持する。
type RouterDeps struct {
	Logger *slog.Logger

	// ミドルウェア
	AllowedOrigins   []string
	TrustedProxies   []netip.Prefix // 空の場合は転送ヘッダーを信用しない
	MaxBodyBytes     int64
	AuthRateLimiter  *middleware.RateLimiter // nilの場合はレート制限なし
	IdempotencyStore idempotency.Store       // nilの場合は冪等性キーを無視する
	Metrics          metrics.MetricsCollector
	MetricsHandler   http.Handler // nilの場合は /metrics を公開しない

	// ハンドラー
	PublicConfig   model.PublicConfig
	AuthService    AuthServiceInterface
	GameService    GameServiceInterface
	PaymentService PaymentServiceInterface
	WebhookService WebhookServiceInterface

	// 静的ファイル
	StaticDir string
}

// NewRouter はchiルーターを構築し、全ルーティングを設定する。
//
// ミドルウェアの適用順序:
//  1. パニックリカバリ
//  2. リクエストID
//  3. クライアントIPの解決（信頼済みプロキシ経由のみ転送ヘッダーを採用）
//  4. CORS（許可リスト外のオリジンはここで拒否）
//  5. ボディサイズ制限
//  6. アクセスログ
//  7. メトリクス
//  8. セキュリティヘッダー
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	collector := deps.Metrics
	if collector == nil {
		collector = metrics.Nop{}
	}

	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewRealIPMiddleware(deps.TrustedProxies))
	r.Use(middleware.NewCORSMiddleware(deps.AllowedOrigins, collector))
	r.Use(middleware.NewBodyLimitMiddleware(deps.MaxBodyBytes))
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewMetricsMiddleware(collector))
	r.Use(middleware.NewSecurityHeadersMiddleware())

	// サブルーターにも継承させるため、Routeより先に設定する
	r.NotFound(NotFound)

	idempotent := passThrough
	if deps.IdempotencyStore != nil {
		idempotent = middleware.NewIdempotencyMiddleware(deps.IdempotencyStore)
	}

	r.Get("/health", Health)
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	configHandler := NewConfigHandler(deps.PublicConfig, logger)
	r.Get("/api/config", configHandler.GetConfig)

	authHandler := NewAuthHandler(deps.AuthService)
	r.Route("/api/auth", func(r chi.Router) {
		if deps.AuthRateLimiter != nil {
			r.Use(deps.AuthRateLimiter.Middleware())
		}
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
	})

	gameHandler := NewGameHandler(deps.GameService)
	r.Route("/api/games", func(r chi.Router) {
		r.Get("/", gameHandler.ListGames)
		r.With(idempotent).Post("/result", gameHandler.SubmitResult)
	})

	paymentHandler := NewPaymentHandler(deps.PaymentService, deps.WebhookService)
	r.Route("/api/payments", func(r chi.Router) {
		r.With(idempotent).Post("/create-checkout", paymentHandler.CreateCheckout)
		r.Post("/webhook", paymentHandler.Webhook)
	})

	r.Handle("/*", NewStaticHandler(deps.StaticDir))

	return r
}

func passThrough(next http.Handler) http.Handler {
	return next
}
