package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Chat pipeline Prometheus metrics.
var (
	CompletionRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shop_assistant",
			Name:      "completion_requests_total",
			Help:      "Total number of chat completion requests by round",
		},
		[]string{"round", "status"}, // round: plan / answer
	)

	FunctionCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shop_assistant",
			Name:      "function_calls_total",
			Help:      "Total number of model-selected function executions",
		},
		[]string{"function", "status"},
	)

	UpstreamRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "shop_assistant",
			Name:      "upstream_request_duration_seconds",
			Help:      "Outbound request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"upstream"}, // openai / exchangerates / ssm
	)
)

var registerOnce sync.Once

// Register registers the pipeline and HTTP metrics with the default registry.
// Must be called from main; safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			CompletionRequestsTotal,
			FunctionCallsTotal,
			UpstreamRequestDuration,
			httpRequestDuration,
			httpRequestsTotal,
		)
	})
}
