package providerclient

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics wraps Provider Client call counters, grounded on
// goodnatureofminers-blockinsight7000-backend's internal/metrics/
// btc_rpc_client.go pattern of a small promauto-backed struct
// injected into an RPC client and called via a single Observe-style
// method from the call site.
type Metrics struct {
	requests *prometheus.CounterVec
}

// NewMetrics registers the Provider Client's counters against reg.
// Pass prometheus.DefaultRegisterer for process-wide metrics, or a
// fresh *prometheus.Registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kyt_provider_requests_total",
			Help: "Total upstream requests issued by the Provider Client, by provider name.",
		}, []string{"provider"}),
	}
}

// ObserveRequest records one outbound call attempt (including
// retries) against provider.
func (m *Metrics) ObserveRequest(provider string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(provider).Inc()
}
