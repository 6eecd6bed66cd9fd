package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics はアプリケーションのメトリクスを管理する
type Metrics struct {
	// HTTPリクエストの総数（method, path, status_code）
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPリクエストのレイテンシ（method, path）
	HTTPRequestDuration *prometheus.HistogramVec

	// 決済インテント作成の総数（status: created, conflict, not_found, bad_request, error）
	PaymentIntentsTotal *prometheus.CounterVec

	// チケット発行の総数（status: issued, conflict, bad_request, error）
	TicketsIssuedTotal *prometheus.CounterVec

	// チケット検証の総数（result: valid, already_used, cancelled, not_paid, not_found）
	TicketVerificationsTotal *prometheus.CounterVec
}

// New は新しいMetricsインスタンスを作成し、デフォルトレジストリに登録する
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry は指定したレジストリにメトリクスを登録する
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		PaymentIntentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_intents_total",
				Help: "Total number of payment intent creation attempts",
			},
			[]string{"status"},
		),
		TicketsIssuedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tickets_issued_total",
				Help: "Total number of ticket issuance attempts",
			},
			[]string{"status"},
		),
		TicketVerificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ticket_verifications_total",
				Help: "Total number of ticket verification scans",
			},
			[]string{"result"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.PaymentIntentsTotal,
		m.TicketsIssuedTotal,
		m.TicketVerificationsTotal,
	)

	return m
}

// デフォルトのメトリクスインスタンス
var defaultMetrics *Metrics

// Init はデフォルトのメトリクスインスタンスを初期化する
func Init() *Metrics {
	defaultMetrics = New()
	return defaultMetrics
}

// Get はデフォルトのメトリクスインスタンスを返す
// Init前に呼ばれた場合は独立したレジストリに登録したインスタンスを返す
func Get() *Metrics {
	if defaultMetrics == nil {
		defaultMetrics = NewWithRegistry(prometheus.NewRegistry())
	}
	return defaultMetrics
}
