package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pool metrics
	PoolCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cpamm_pool_count",
		Help: "Total number of tracked pools",
	})

	LaunchedPoolCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cpamm_launched_pool_count",
		Help: "Number of pools that completed launch",
	})

	// Operation metrics
	PoolOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cpamm_pool_operations_total",
			Help: "Total number of pool operations",
		},
		[]string{"operation", "status"},
	)

	PoolOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cpamm_pool_operation_duration_seconds",
			Help:    "Pool operation duration in seconds",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		},
		[]string{"operation"},
	)

	SwapRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cpamm_swap_requests_total",
			Help: "Total number of swap requests",
		},
		[]string{"direction", "status"},
	)

	ProtocolFeesRedeemed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cpamm_protocol_fees_redeemed_total",
			Help: "Total protocol fee amounts redeemed, by side",
		},
		[]string{"side"},
	)

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cpamm_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cpamm_http_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
