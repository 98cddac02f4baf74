package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RequestsCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paylab_requests_count",
			Help: "Total number of requests to various endpoints",
		},
		[]string{"method", "endpoint"},
	)
	PaymentsCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paylab_payments_count",
			Help: "Submitted demo payments by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)
	FaucetDripsCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paylab_faucet_drips_count",
			Help: "Faucet drips by token type and outcome",
		},
		[]string{"token_type", "outcome"},
	)
	ErrorsCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paylab_error_count",
			Help: "Total number of various kinds of errors",
		},
		[]string{"error_kind"},
	)
)

func init() {
	prometheus.MustRegister(RequestsCount)
	prometheus.MustRegister(PaymentsCount)
	prometheus.MustRegister(FaucetDripsCount)
	prometheus.MustRegister(ErrorsCount)
}
