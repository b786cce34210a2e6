// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// 天気プロバイダー呼び出しの結果・レイテンシ、エンリッチ失敗数、
// HTTPステータスコード別レスポンス数を記録する。
type Collector struct {
	providerCalls    *prometheus.CounterVec
	providerLatency  prometheus.Histogram
	enrichmentFail   prometheus.Counter
	httpStatus       *prometheus.CounterVec
	favoritesAdded   prometheus.Counter
	favoritesRemoved prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		providerCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tenkimark_weather_provider_calls_total",
			Help: "天気プロバイダー呼び出しの結果別合計数",
		}, []string{"outcome"}),
		providerLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tenkimark_weather_provider_latency_seconds",
			Help:    "天気プロバイダー呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		enrichmentFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tenkimark_enrichment_fail_total",
			Help: "お気に入りの天気エンリッチ失敗の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tenkimark_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		favoritesAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tenkimark_favorites_added_total",
			Help: "登録されたお気に入りの合計数",
		}),
		favoritesRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tenkimark_favorites_removed_total",
			Help: "削除されたお気に入りの合計数",
		}),
	}

	reg.MustRegister(
		c.providerCalls,
		c.providerLatency,
		c.enrichmentFail,
		c.httpStatus,
		c.favoritesAdded,
		c.favoritesRemoved,
	)

	return c
}

// RecordProviderCall は天気プロバイダー呼び出しの結果とレイテンシを記録する。
func (c *Collector) RecordProviderCall(outcome string, duration time.Duration) {
	c.providerCalls.WithLabelValues(outcome).Inc()
	c.providerLatency.Observe(duration.Seconds())
}

// RecordEnrichmentFailure はエンリッチ失敗を記録する。
func (c *Collector) RecordEnrichmentFailure() {
	c.enrichmentFail.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordFavoriteAdded はお気に入り登録を記録する。
func (c *Collector) RecordFavoriteAdded() {
	c.favoritesAdded.Inc()
}

// RecordFavoriteRemoved はお気に入り削除を記録する。
func (c *Collector) RecordFavoriteRemoved() {
	c.favoritesRemoved.Inc()
}

// Handler はPrometheusメトリクス公開用のHTTPハンドラーを返す。
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
