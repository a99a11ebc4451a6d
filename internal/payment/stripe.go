package payment

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
)

// NewStripeClient はStripe APIクライアントを生成する。
// apiURLが空なら本番のエンドポイントを使う。自動リトライは無効にする。
func NewStripeClient(secretKey, apiURL string, httpClient *http.Client, logger *slog.Logger) *client.API {
	cfg := &stripe.BackendConfig{
		HTTPClient:        httpClient,
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripeLogger{logger: logger},
	}
	if apiURL != "" {
		cfg.URL = stripe.String(apiURL)
	}

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, cfg)
	return client.New(secretKey, &stripe.Backends{
		API:     backend,
		Connect: backend,
		Uploads: backend,
	})
}

// stripeLogger はstripe-goのログをslogに流す。
// stripe-goはリクエストごとにInfoを出すため、Debugに落とす。
type stripeLogger struct {
	logger *slog.Logger
}

func (l *stripeLogger) Debugf(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, v...), slog.String("component", "stripe"))
}

func (l *stripeLogger) Infof(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, v...), slog.String("component", "stripe"))
}

func (l *stripeLogger) Warnf(format string, v ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, v...), slog.String("component", "stripe"))
}

func (l *stripeLogger) Errorf(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...), slog.String("component", "stripe"))
}
