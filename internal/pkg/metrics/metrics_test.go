package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics(t *testing.T) {
	// 各テストで新しいレジストリを使用
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	require.NotNil(t, m)
	assert.NotNil(t, m.HTTPRequestsTotal)
	assert.NotNil(t, m.HTTPRequestDuration)
	assert.NotNil(t, m.PaymentIntentsTotal)
	assert.NotNil(t, m.TicketsIssuedTotal)
	assert.NotNil(t, m.TicketVerificationsTotal)
}

func TestTicketsIssuedTotal(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	m.TicketsIssuedTotal.WithLabelValues("issued").Inc()
	m.TicketsIssuedTotal.WithLabelValues("issued").Inc()
	m.TicketsIssuedTotal.WithLabelValues("conflict").Inc()

	families, err := reg.Gather()
	require.NoError(t, err)

	var found bool
	for _, f := range families {
		if f.GetName() == "tickets_issued_total" {
			found = true
			assert.Equal(t, 2, len(f.GetMetric()))
		}
	}
	assert.True(t, found, "tickets_issued_total metric not found")
}

func TestPaymentIntentsTotal(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	m.PaymentIntentsTotal.WithLabelValues("created").Inc()
	m.PaymentIntentsTotal.WithLabelValues("conflict").Inc()
	m.PaymentIntentsTotal.WithLabelValues("error").Inc()

	families, err := reg.Gather()
	require.NoError(t, err)

	var found bool
	for _, f := range families {
		if f.GetName() == "payment_intents_total" {
			found = true
			assert.Equal(t, 3, len(f.GetMetric()))
		}
	}
	assert.True(t, found, "payment_intents_total metric not found")
}

func TestTicketVerificationsTotal(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	m.TicketVerificationsTotal.WithLabelValues("valid").Inc()
	m.TicketVerificationsTotal.WithLabelValues("already_used").Inc()
	m.TicketVerificationsTotal.WithLabelValues("not_found").Inc()

	families, err := reg.Gather()
	require.NoError(t, err)

	var found bool
	for _, f := range families {
		if f.GetName() == "ticket_verifications_total" {
			found = true
			assert.Equal(t, 3, len(f.GetMetric()))
		}
	}
	assert.True(t, found, "ticket_verifications_total metric not found")
}

func TestHTTPMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	m.HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/tickets/create-payment-intent", "200").Inc()
	m.HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/tickets/confirm-payment/:payment_intent_id", "409").Inc()
	m.HTTPRequestDuration.WithLabelValues("POST", "/api/v1/tickets/verify").Observe(0.02)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["http_requests_total"])
	assert.True(t, names["http_request_duration_seconds"])
}

func TestInit_CreatesDefaultMetrics(t *testing.T) {
	oldMetrics := defaultMetrics
	defer func() { defaultMetrics = oldMetrics }()

	// Initを呼ぶとデフォルトレジストリに登録するため、テストでは直接セット
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)
	defaultMetrics = m

	got := Get()
	assert.NotNil(t, got)
	assert.Equal(t, m, got)
}
