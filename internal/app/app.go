package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rivlclub/rivl/internal/config"
	"github.com/rivlclub/rivl/internal/database"
	"github.com/rivlclub/rivl/internal/logger"
)

// Init はアプリケーションの初期化を行う。
// JSON構造化ログをセットアップしてから環境変数を読み込み、LOG_LEVELでレベルを確定する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.SetupDefault(w, logger.ParseLevel(cfg.LogLevel))
	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。wはログの出力先。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck と client はサーバー設定を必要としないため、フル初期化をスキップする
	switch cmd {
	case CommandHealthcheck:
		port := os.Getenv("PORT")
		if port == "" {
			port = "3000"
		}
		return runHealthcheck(port)
	case CommandClient:
		log := logger.SetupDefault(w, logger.ParseLevel(os.Getenv("LOG_LEVEL")))
		return runClient(context.Background(), os.Stdout, os.Getenv("RIVL_API_URL"), os.Getenv("RIVL_HOSTNAME"), log)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.Port),
		slog.String("results_store", cfg.ResultsStore),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg, args[1:])
	default:
		return runServe(cfg)
	}
}

// logProviderStatus は外部サービスの設定有無を起動時に記録する。値そのものは出力しない。
func logProviderStatus(cfg *config.Config) {
	slog.Info("provider configuration",
		slog.String("SUPABASE_URL", config.Status(cfg.SupabaseURL)),
		slog.String("SUPABASE_ANON_KEY", config.Status(cfg.SupabaseAnonKey)),
		slog.String("STRIPE_SECRET_KEY", config.Status(cfg.StripeSecretKey)),
		slog.String("STRIPE_WEBHOOK_SECRET", config.Status(cfg.StripeWebhookSecret)),
		slog.String("REDIS_URL", config.Status(cfg.RedisURL)),
		slog.Int("kafka_brokers", len(cfg.KafkaBrokers)),
	)
}

// runServe はAPIサーバーモードで起動する。
// 全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	logProviderStatus(cfg)

	srv, err := Build(context.Background(), cfg, slog.Default())
	if err != nil {
		return err
	}
	defer func() {
		if err := srv.Close(); err != nil {
			slog.Error("failed to release resources", slog.String("error", err.Error()))
		}
	}()

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.UpstreamTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server listen error: %w", err)
	case <-stop:
	}
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// 引数なしまたはupで未適用分を適用し、statusで現在のバージョンを表示する。
// 前回の失敗でdirtyになった場合は force <version> で状態を確定させる。
func runMigrate(cfg *config.Config, args []string) error {
	action, err := ParseMigrateArgs(args)
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required for migrate")
	}

	log := slog.Default().With(slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)))

	m, err := database.NewMigrator(cfg.DatabaseURL, log)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	defer m.Close()

	latest, err := database.LatestVersion()
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	switch action.Name {
	case "status":
		version, dirty, err := m.Status()
		if err != nil {
			return err
		}
		log.Info("schema status",
			slog.Uint64("version", uint64(version)),
			slog.Uint64("latest", uint64(latest)),
			slog.Bool("dirty", dirty),
		)
		return nil
	case "force":
		if uint(action.Version) > latest {
			return fmt.Errorf("version %d is newer than the latest migration %d", action.Version, latest)
		}
		return m.Force(action.Version)
	}

	log.Info("running database migrations", slog.Uint64("latest", uint64(latest)))

	result, err := m.Up()
	var dirty *database.DirtyError
	if errors.As(err, &dirty) {
		log.Error("schema is dirty, refusing to migrate", slog.Uint64("version", uint64(dirty.Version)))
		return err
	}
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if !result.Applied {
		log.Info("database schema is up to date", slog.Uint64("version", uint64(result.To)))
		return nil
	}
	log.Info("database migrations completed successfully",
		slog.Uint64("from", uint64(result.From)),
		slog.Uint64("to", uint64(result.To)),
	)
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLのパスワードをマスクする。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
