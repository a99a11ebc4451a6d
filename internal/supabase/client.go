// Package supabase はSupabaseのREST API（GoTrue認証とPostgREST）のクライアントを提供する。
// 公式SDKは使わず、必要なエンドポイントだけをnet/httpで薄くラップする。
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// ProviderName はメトリクスとログで使うプロバイダー名。
const ProviderName = "supabase"

// maxResponseSize はレスポンスボディの読み取り上限。
const maxResponseSize = 1 << 20

// ErrNotConfigured はSupabaseのURLが設定されていないことを示す。
var ErrNotConfigured = errors.New("supabase: url is not configured")

// ErrMalformedResponse はJSONとして解釈できないレスポンスを示す。
var ErrMalformedResponse = errors.New("supabase: malformed response")

// APIError はSupabaseがJSONで返したエラーレスポンス。
// 4xxはプロバイダーによる拒否、5xxはプロバイダー側の障害を表す。
type APIError struct {
	StatusCode int
	Message    string
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("supabase: status %d: %s", e.StatusCode, e.Message)
}

// Rejected はリクエスト内容が原因の拒否（4xx）かどうかを返す。
func (e *APIError) Rejected() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// UpstreamObserver は外部呼び出しの結果を記録する。
type UpstreamObserver interface {
	RecordUpstreamCall(provider, outcome string, duration time.Duration)
}

// Client はSupabaseプロジェクトのクライアント。
// URLとキーはプロセス起動時に1回だけ決まり、以後は読み取り専用。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
	apiKey     string
	observer   UpstreamObserver
}

// NewClient はClientの新しいインスタンスを生成する。
// baseURLが空の場合、すべての呼び出しはErrNotConfiguredを返す。
func NewClient(httpClient *http.Client, logger *slog.Logger, baseURL, apiKey string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

// WithObserver は外部呼び出しの結果を記録するオブザーバーを設定する。
func (c *Client) WithObserver(o UpstreamObserver) *Client {
	c.observer = o
	return c
}

// Configured はURLが設定されているかを返す。
func (c *Client) Configured() bool {
	return c.baseURL != ""
}

// do はSupabaseにJSONリクエストを送り、2xxの場合はレスポンスボディを返す。
func (c *Client) do(ctx context.Context, method, path string, query url.Values, header http.Header, body any) ([]byte, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	reqURL, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("supabase: invalid url: %w", err)
	}
	if query != nil {
		reqURL.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("supabase: failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("supabase: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe("error", start)
		c.logger.Error("Supabaseの呼び出しに失敗しました",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("supabase: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		c.observe("error", start)
		return nil, fmt.Errorf("supabase: failed to read response: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		c.observe("success", start)
		return respBody, nil
	}

	msg, ok := errorMessage(respBody)
	if !ok {
		c.observe("error", start)
		c.logger.Error("Supabaseが解釈できないエラーレスポンスを返しました",
			slog.String("path", path),
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, fmt.Errorf("%w: status %d", ErrMalformedResponse, resp.StatusCode)
	}

	apiErr := &APIError{StatusCode: resp.StatusCode, Message: msg}
	if apiErr.Rejected() {
		c.observe("rejected", start)
		c.logger.Info("Supabaseがリクエストを拒否しました",
			slog.String("path", path),
			slog.Int("http_status", resp.StatusCode),
			slog.String("message", msg),
		)
	} else {
		c.observe("error", start)
		c.logger.Error("Supabaseがエラーステータスを返しました",
			slog.String("path", path),
			slog.Int("http_status", resp.StatusCode),
			slog.String("message", msg),
		)
	}
	return nil, apiErr
}

func (c *Client) observe(outcome string, start time.Time) {
	if c.observer != nil {
		c.observer.RecordUpstreamCall(ProviderName, outcome, time.Since(start))
	}
}

// errorMessage はGoTrue/PostgRESTのエラーボディからメッセージを取り出す。
// GoTrueは msg / error_description / error、PostgRESTは message を使う。
func errorMessage(body []byte) (string, bool) {
	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		return "", false
	}
	for _, key := range []string{"msg", "message", "error_description", "error"} {
		if s, ok := fields[key].(string); ok && s != "" {
			return s, true
		}
	}
	return "unknown error", true
}
