// Package client はブラウザ側の起動シーケンスをGoで再現する。
// 設定の取得、IDクライアントの構築、カタログの取得と描画、
// ウォレット接続と認証の送信を1つのAppにまとめる。
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/rivlclub/rivl/internal/model"
	"github.com/rivlclub/rivl/internal/supabase"
)

// maxResponseSize はバックエンド応答の最大読み取りサイズ。
const maxResponseSize = 1 << 20

// ErrClosed はClose後に操作した場合に返す。
var ErrClosed = errors.New("client: app is closed")

// Navigator はページ遷移を抽象化する。
type Navigator interface {
	Navigate(page string) error
}

// Options はAppの構築に使う設定。
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger
	Navigator  Navigator
	Wallet     WalletConnector
}

// App はクライアントの状態を保持する。
type App struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	navigator  Navigator
	wallet     WalletConnector

	mu            sync.Mutex
	config        model.PublicConfig
	identity      *supabase.Client
	games         []model.GameDescriptor
	walletAddress string
	accessToken   string
	closed        bool
}

// New はAppを生成する。通信はBootstrapまで行わない。
func New(opts Options) *App {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = LocalBackendURL
	}

	return &App{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
		navigator:  opts.Navigator,
		wallet:     opts.Wallet,
	}
}

// BaseURL はバックエンドのベースURLを返す。
func (a *App) BaseURL() string {
	return a.baseURL
}

// Bootstrap は起動シーケンスを実行する。
// 設定の取得に失敗しても続行し、カタログの取得に失敗した場合のみエラーを返す。
func (a *App) Bootstrap(ctx context.Context) error {
	if a.isClosed() {
		return ErrClosed
	}

	cfg := a.fetchConfig(ctx)

	var identity *supabase.Client
	if cfg.IdentityURL() != "" {
		identity = supabase.NewClient(a.httpClient, a.logger, cfg.IdentityURL(), cfg.PublicKey())
	} else {
		a.logger.Warn("identity service keys not found, login will not work")
	}

	games, err := a.fetchGames(ctx)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrClosed
	}
	a.config = cfg
	a.identity = identity
	a.games = games
	return nil
}

func (a *App) isClosed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closed
}

// fetchConfig は公開設定を取得する。失敗時は空の設定を返す。
func (a *App) fetchConfig(ctx context.Context) model.PublicConfig {
	var cfg model.PublicConfig
	if err := a.getJSON(ctx, "/api/config", &cfg); err != nil {
		a.logger.Info("could not fetch config from backend", slog.String("error", err.Error()))
		return model.NewPublicConfig("", "")
	}
	return cfg
}

func (a *App) fetchGames(ctx context.Context) ([]model.GameDescriptor, error) {
	var games []model.GameDescriptor
	if err := a.getJSON(ctx, "/api/games", &games); err != nil {
		return nil, fmt.Errorf("client: fetch catalog: %w", err)
	}
	return games, nil
}

func (a *App) getJSON(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// Config は取得済みの公開設定を返す。
func (a *App) Config() model.PublicConfig {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.config
}

// Identity はIDサービスのクライアントを返す。設定が無い場合はnil。
func (a *App) Identity() *supabase.Client {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.identity
}

// Games は取得済みのカタログを返す。
func (a *App) Games() []model.GameDescriptor {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]model.GameDescriptor, len(a.games))
	copy(out, a.games)
	return out
}

// Close はAppの状態を破棄し、アイドル接続を閉じる。複数回呼んでもよい。
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	a.identity = nil
	a.games = nil
	a.accessToken = ""
	a.walletAddress = ""
	a.httpClient.CloseIdleConnections()
	return nil
}
