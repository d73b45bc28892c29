package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CatalogRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pokefinder_catalog_requests_total",
			Help: "Total number of requests sent to the Pokémon catalog",
		},
		[]string{"endpoint", "status"},
	)

	CatalogRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pokefinder_catalog_request_duration_seconds",
			Help:    "Duration of catalog requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	LookupOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pokefinder_lookup_outcomes_total",
			Help: "Total number of lookups by outcome",
		},
		[]string{"outcome"},
	)

	LookupsSuperseded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pokefinder_lookups_superseded_total",
			Help: "Lookups whose result was discarded because a newer query was issued",
		},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pokefinder_active_sessions",
			Help: "Number of open lookup sessions",
		},
	)
)

// Status labels used with CatalogRequests
const (
	StatusOK        = "ok"
	StatusNotFound  = "not_found"
	StatusError     = "error"
	StatusMalformed = "malformed"
)
