package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docent_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"endpoint", "code"})

	chunksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docent_stream_chunks_total",
		Help: "Total number of text chunks streamed to clients",
	})

	streamErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docent_stream_errors_total",
		Help: "Total number of generation streams that failed upstream",
	})

	sharesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docent_shares_total",
		Help: "Total number of guidebooks created",
	})

	rateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docent_rate_limited_total",
		Help: "Total number of requests rejected by the rate limiter",
	})
)
