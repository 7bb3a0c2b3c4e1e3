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
// セッション管理・レポート・HTTP層から利用する。
type MetricsCollector interface {
	RecordLogin(success bool)
	RecordPing(outcome string)
	RecordLogout(alreadyClosed bool)
	RecordVersionConflict()
	RecordReportLatency(kind string, duration time.Duration)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	logins           *prometheus.CounterVec
	pings            *prometheus.CounterVec
	logouts          *prometheus.CounterVec
	versionConflicts prometheus.Counter
	reportLatency    *prometheus.HistogramVec
	httpStatus       *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "activitytracker_logins_total",
			Help: "ログイン試行の合計数（結果別）",
		}, []string{"result"}),
		pings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "activitytracker_pings_total",
			Help: "生存通知の合計数（判定結果別）",
		}, []string{"outcome"}),
		logouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "activitytracker_logouts_total",
			Help: "ログアウト要求の合計数",
		}, []string{"already_closed"}),
		versionConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "activitytracker_session_version_conflicts_total",
			Help: "セッション保存時の楽観的ロック競合の合計数",
		}),
		reportLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "activitytracker_report_latency_seconds",
			Help:    "レポート計算のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "activitytracker_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.logins,
		c.pings,
		c.logouts,
		c.versionConflicts,
		c.reportLatency,
		c.httpStatus,
	)

	return c
}

// RecordLogin はログイン試行を記録する。
func (c *Collector) RecordLogin(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	c.logins.WithLabelValues(result).Inc()
}

// RecordPing は生存通知の判定結果を記録する。
func (c *Collector) RecordPing(outcome string) {
	c.pings.WithLabelValues(outcome).Inc()
}

// RecordLogout はログアウト要求を記録する。
func (c *Collector) RecordLogout(alreadyClosed bool) {
	c.logouts.WithLabelValues(strconv.FormatBool(alreadyClosed)).Inc()
}

// RecordVersionConflict は楽観的ロックの競合を記録する。
func (c *Collector) RecordVersionConflict() {
	c.versionConflicts.Inc()
}

// RecordReportLatency はレポート計算のレイテンシを記録する。
func (c *Collector) RecordReportLatency(kind string, duration time.Duration) {
	c.reportLatency.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Nop は何も記録しないMetricsCollector。メトリクス無効時やテストで使用する。
type Nop struct{}

func (Nop) RecordLogin(bool)                          {}
func (Nop) RecordPing(string)                         {}
func (Nop) RecordLogout(bool)                         {}
func (Nop) RecordVersionConflict()                    {}
func (Nop) RecordReportLatency(string, time.Duration) {}
func (Nop) RecordHTTPStatus(int)                      {}

var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = Nop{}
)

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
