// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ミドルウェア、外部クライアント、サービス層から利用する。
type MetricsCollector interface {
	RecordHTTPRequest(method, route string, statusCode int, duration time.Duration)
	RecordUpstreamCall(provider, outcome string, duration time.Duration)
	RecordMatchResult(gameID string)
	RecordCheckout(outcome string)
	RecordPaymentEvent(eventType string)
	RecordCORSRejection()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpRequests    *prometheus.CounterVec
	httpLatency     *prometheus.HistogramVec
	upstreamCalls   *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
	matchResults    *prometheus.CounterVec
	checkouts       *prometheus.CounterVec
	paymentEvents   *prometheus.CounterVec
	corsRejections  prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rivl_http_requests_total",
			Help: "ルート・ステータスコード別のHTTPリクエスト数",
		}, []string{"method", "route", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rivl_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		upstreamCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rivl_upstream_calls_total",
			Help: "外部サービス呼び出しの結果別の合計数",
		}, []string{"provider", "outcome"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rivl_upstream_latency_seconds",
			Help:    "外部サービス呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		matchResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rivl_match_results_total",
			Help: "記録された試合結果の合計数",
		}, []string{"game_id"}),
		checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rivl_checkout_sessions_total",
			Help: "チェックアウトセッション作成の結果別の合計数",
		}, []string{"outcome"}),
		paymentEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rivl_payment_events_total",
			Help: "受信した決済Webhookイベントの種類別の合計数",
		}, []string{"event_type"}),
		corsRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rivl_cors_rejections_total",
			Help: "許可リスト外のオリジンとして拒否したリクエスト数",
		}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpLatency,
		c.upstreamCalls,
		c.upstreamLatency,
		c.matchResults,
		c.checkouts,
		c.paymentEvents,
		c.corsRejections,
	)

	return c
}

// RecordHTTPRequest はHTTPリクエストの処理結果を記録する。
// routeにはchiのルートパターンを渡し、ラベルの爆発を防ぐ。
func (c *Collector) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordUpstreamCall は外部サービス呼び出しの結果を記録する。
func (c *Collector) RecordUpstreamCall(provider, outcome string, duration time.Duration) {
	c.upstreamCalls.WithLabelValues(provider, outcome).Inc()
	c.upstreamLatency.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordMatchResult は試合結果の記録を数える。
func (c *Collector) RecordMatchResult(gameID string) {
	c.matchResults.WithLabelValues(gameID).Inc()
}

// RecordCheckout はチェックアウト作成の結果を記録する。
func (c *Collector) RecordCheckout(outcome string) {
	c.checkouts.WithLabelValues(outcome).Inc()
}

// RecordPaymentEvent は決済Webhookイベントの受信を記録する。
func (c *Collector) RecordPaymentEvent(eventType string) {
	c.paymentEvents.WithLabelValues(eventType).Inc()
}

// RecordCORSRejection はCORS拒否を記録する。
func (c *Collector) RecordCORSRejection() {
	c.corsRejections.Inc()
}

// Nop は何も記録しないMetricsCollector。テストやメトリクス無効時に使う。
type Nop struct{}

func (Nop) RecordHTTPRequest(string, string, int, time.Duration) {}
func (Nop) RecordUpstreamCall(string, string, time.Duration)     {}
func (Nop) RecordMatchResult(string)                             {}
func (Nop) RecordCheckout(string)                                {}
func (Nop) RecordPaymentEvent(string)                            {}
func (Nop) RecordCORSRejection()                                 {}

var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = Nop{}
)

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
