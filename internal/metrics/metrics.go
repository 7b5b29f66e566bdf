// Package metrics defines the Prometheus instruments for the token buyer
// API. All metrics are registered on the default registry and served by the
// HTTP server's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QuoteRequests counts price-quote requests by requirement type, chain,
	// and response status.
	QuoteRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokenbuyer_quote_requests_total",
			Help: "Total number of price quote requests served.",
		},
		[]string{"type", "chain", "status"},
	)

	// QuoteDuration measures end-to-end quote latency, including all
	// upstream reads.
	QuoteDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tokenbuyer_quote_duration_seconds",
			Help:    "Duration of price quote requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms → ~40s
		},
		[]string{"type", "chain"},
	)

	// UpstreamRequests counts calls to external pricing services by service
	// name and HTTP status ("error" for transport failures).
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokenbuyer_upstream_requests_total",
			Help: "Total number of upstream pricing API requests.",
		},
		[]string{"service", "status"},
	)

	// OnChainReads counts JSON-RPC contract reads by chain and outcome.
	OnChainReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokenbuyer_onchain_reads_total",
			Help: "Total number of on-chain contract reads.",
		},
		[]string{"chain", "method", "status"},
	)
)
