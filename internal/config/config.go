package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// 結果ストアの種別
const (
	ResultsStoreSupabase = "supabase"
	ResultsStorePostgres = "postgres"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Server
	Port         string
	StaticDir    string
	MaxBodyBytes int64

	// Identity provider (Supabase)
	SupabaseURL     string
	SupabaseAnonKey string

	// Payment processor (Stripe)
	StripeSecretKey     string
	StripeWebhookSecret string
	StripeAPIURL        string

	// Frontend
	FrontendURL string

	// Upstream
	UpstreamTimeout time.Duration

	// Results store
	ResultsStore string
	DatabaseURL  string

	// Idempotency
	RedisURL       string
	IdempotencyTTL time.Duration

	// Events
	KafkaBrokers []string
	KafkaTopic   string

	// Catalog
	GameCatalogPath string

	// Rate Limit
	RateLimitAuth  int
	TrustedProxies []string

	// Logging
	LogLevel string
}

// Load は環境変数からConfigを読み込む。
// 外部サービスのキーが未設定でもエラーにはしない（起動ログでLoaded/Missingを出す）。
// 値の組み合わせが矛盾する場合のみエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Port = getEnvString("PORT", "3000")
	cfg.StaticDir = getEnvString("STATIC_DIR", "frontend")
	cfg.MaxBodyBytes = getEnvInt64("MAX_BODY_BYTES", 1<<20)

	cfg.SupabaseURL = strings.TrimRight(os.Getenv("SUPABASE_URL"), "/")
	cfg.SupabaseAnonKey = os.Getenv("SUPABASE_ANON_KEY")

	cfg.StripeSecretKey = os.Getenv("STRIPE_SECRET_KEY")
	cfg.StripeWebhookSecret = os.Getenv("STRIPE_WEBHOOK_SECRET")
	cfg.StripeAPIURL = os.Getenv("STRIPE_API_URL")

	cfg.FrontendURL = strings.TrimRight(getEnvString("FRONTEND_URL", "http://localhost:5173"), "/")

	cfg.UpstreamTimeout = getEnvDuration("UPSTREAM_TIMEOUT", 10*time.Second)

	cfg.ResultsStore = strings.ToLower(getEnvString("RESULTS_STORE", ResultsStoreSupabase))
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")

	cfg.RedisURL = os.Getenv("REDIS_URL")
	cfg.IdempotencyTTL = getEnvDuration("IDEMPOTENCY_TTL", 24*time.Hour)

	cfg.KafkaBrokers = getEnvList("KAFKA_BROKERS")
	cfg.KafkaTopic = getEnvString("KAFKA_TOPIC", "leaderboard-scores")

	cfg.GameCatalogPath = os.Getenv("GAME_CATALOG_PATH")

	cfg.RateLimitAuth = getEnvInt("RATE_LIMIT_AUTH", 20)
	cfg.TrustedProxies = getEnvList("TRUSTED_PROXIES")

	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")

	switch cfg.ResultsStore {
	case ResultsStoreSupabase:
	case ResultsStorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when RESULTS_STORE=%s", ResultsStorePostgres)
		}
	default:
		return nil, fmt.Errorf("unsupported RESULTS_STORE: %q", cfg.ResultsStore)
	}

	return cfg, nil
}

// Status は起動ログ用に値の有無だけを返す。値そのものは出力しない。
func Status(v string) string {
	if v == "" {
		return "Missing"
	}
	return "Loaded"
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

// getEnvList はカンマ区切りの環境変数をスライスとして返す。空要素は除く。
func getEnvList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
