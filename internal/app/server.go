package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/rivlclub/rivl/internal/auth"
	"github.com/rivlclub/rivl/internal/config"
	"github.com/rivlclub/rivl/internal/database"
	"github.com/rivlclub/rivl/internal/events"
	"github.com/rivlclub/rivl/internal/game"
	"github.com/rivlclub/rivl/internal/handler"
	"github.com/rivlclub/rivl/internal/idempotency"
	"github.com/rivlclub/rivl/internal/metrics"
	"github.com/rivlclub/rivl/internal/middleware"
	"github.com/rivlclub/rivl/internal/model"
	"github.com/rivlclub/rivl/internal/payment"
	"github.com/rivlclub/rivl/internal/repository"
	"github.com/rivlclub/rivl/internal/security"
	"github.com/rivlclub/rivl/internal/supabase"
)

// Server はワイヤリング済みのHTTPハンドラーと、終了時に解放するリソースを保持する。
type Server struct {
	Handler http.Handler

	closers []func() error
}

// Close は確保したリソースを逆順に解放する。
func (s *Server) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

func (s *Server) onClose(fn func() error) {
	s.closers = append(s.closers, fn)
}

// Build は設定から全依存関係を構築し、ルーターを返す。
// 外部サービスの設定が無い場合も起動は続行し、該当APIが503を返す。
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *Server, err error) {
	srv := &Server{}
	defer func() {
		if err != nil {
			srv.Close()
		}
	}()

	// 1. メトリクス
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg)

	// 2. 外部クライアント
	httpClient := &http.Client{Timeout: cfg.UpstreamTimeout}
	identity := supabase.NewClient(httpClient, logger, cfg.SupabaseURL, cfg.SupabaseAnonKey).
		WithObserver(collector)

	// 3. リポジトリ
	matchRepo, paymentRepo, err := srv.buildRepositories(ctx, cfg, identity)
	if err != nil {
		return nil, err
	}

	// 4. ドメインサービス
	catalog, err := game.LoadCatalog(cfg.GameCatalogPath, security.NewTextSanitizer())
	if err != nil {
		return nil, fmt.Errorf("failed to load game catalog: %w", err)
	}
	logger.Info("game catalog loaded", slog.Int("games", catalog.Len()))

	publisher := srv.buildPublisher(cfg, logger)

	authService := auth.NewService(identity, logger)
	gameService := game.NewService(catalog, matchRepo, publisher, collector, logger)

	var sessions payment.CheckoutCreator
	if cfg.StripeSecretKey != "" {
		sessions = payment.NewStripeClient(cfg.StripeSecretKey, cfg.StripeAPIURL, httpClient, logger).CheckoutSessions
	}
	paymentService := payment.NewService(sessions, cfg.FrontendURL, collector, logger)
	reconciler := payment.NewReconciler(cfg.StripeWebhookSecret, paymentRepo, collector, logger)

	// 5. ミドルウェア用のストア
	store, err := srv.buildIdempotencyStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	trustedProxies, err := middleware.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TRUSTED_PROXIES: %w", err)
	}

	authLimiter := middleware.NewRateLimiter("auth", middleware.PerMinute(cfg.RateLimitAuth))
	srv.onClose(func() error {
		authLimiter.Stop()
		return nil
	})

	// 6. ルーター
	srv.Handler = handler.NewRouter(&handler.RouterDeps{
		Logger:           logger,
		AllowedOrigins:   middleware.DefaultAllowedOrigins,
		TrustedProxies:   trustedProxies,
		MaxBodyBytes:     cfg.MaxBodyBytes,
		AuthRateLimiter:  authLimiter,
		IdempotencyStore: store,
		Metrics:          collector,
		MetricsHandler:   metrics.Handler(reg),

		PublicConfig:   model.NewPublicConfig(cfg.SupabaseURL, cfg.SupabaseAnonKey),
		AuthService:    authService,
		GameService:    gameService,
		PaymentService: paymentService,
		WebhookService: reconciler,

		StaticDir: cfg.StaticDir,
	})

	return srv, nil
}

// buildRepositories はRESULTS_STOREに応じて結果と決済のリポジトリを構築する。
func (s *Server) buildRepositories(
	ctx context.Context,
	cfg *config.Config,
	identity *supabase.Client,
) (repository.MatchRepository, repository.PaymentRepository, error) {
	if cfg.ResultsStore != config.ResultsStorePostgres {
		return repository.NewSupabaseMatchRepo(identity), repository.NewSupabasePaymentRepo(identity), nil
	}

	db, err := database.Connect(ctx, cfg.DatabaseURL, cfg.UpstreamTimeout)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	s.onClose(db.Close)
	slog.Info("database connection established")

	return repository.NewPostgresMatchRepo(db), repository.NewPostgresPaymentRepo(db), nil
}

// buildPublisher はKafkaが設定されていればプロデューサーを生成する。
// 接続できない場合は結果の保存を優先し、イベント送信を無効にして続行する。
func (s *Server) buildPublisher(cfg *config.Config, logger *slog.Logger) events.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		return events.NopPublisher{}
	}

	publisher, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.UpstreamTimeout, logger)
	if err != nil {
		logger.Warn("kafka unavailable, match result events disabled",
			slog.String("error", err.Error()),
		)
		return events.NopPublisher{}
	}
	s.onClose(publisher.Close)
	logger.Info("kafka publisher ready", slog.String("topic", cfg.KafkaTopic))
	return publisher
}

// buildIdempotencyStore はREDIS_URLがあればRedis、無ければメモリのストアを返す。
func (s *Server) buildIdempotencyStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (idempotency.Store, error) {
	if cfg.RedisURL == "" {
		return idempotency.NewMemoryStore(cfg.IdempotencyTTL), nil
	}

	client, err := idempotency.NewRedisClient(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	s.onClose(client.Close)

	store := idempotency.NewRedisStore(client, cfg.IdempotencyTTL)
	pingCtx, cancel := context.WithTimeout(ctx, cfg.UpstreamTimeout)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		// ストア障害時はミドルウェアが素通しするため、起動は止めない
		logger.Warn("redis unreachable at startup", slog.String("error", err.Error()))
	}
	return store, nil
}
