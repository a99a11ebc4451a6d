package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/rivlclub/rivl/internal/client"
)

// runClient はバックエンドに対してクライアントの起動シーケンスを実行し、
// 描画したカタログをoutに書き込む。
func runClient(ctx context.Context, out io.Writer, override, hostname string, logger *slog.Logger) error {
	baseURL := client.ResolveBaseURL(override, hostname)
	logger.Info("client bootstrap", slog.String("base_url", baseURL))

	app := client.New(client.Options{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		Logger:     logger,
	})
	defer app.Close()

	if err := app.Bootstrap(ctx); err != nil {
		return fmt.Errorf("client bootstrap failed: %w", err)
	}

	logger.Info("client ready",
		slog.Bool("login_available", app.Identity() != nil),
		slog.Int("games", len(app.Games())),
	)
	return app.RenderCatalog(out)
}
