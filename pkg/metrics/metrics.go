// Package metrics holds the Prometheus collectors shared by the converter,
// the rate resolver and the HTTP server.
//
// Collectors are registered on the default registry at init through
// promauto; the server exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Line results.
const (
	ResultConverted   = "converted"
	ResultPassthrough = "passthrough"
	ResultFailed      = "failed"
)

// Rate lookup results.
const (
	ResultHit         = "hit"
	ResultResolved    = "resolved"
	ResultUnknown     = "unknown"
	ResultUnreachable = "unreachable"
)

var (
	// LinesTotal counts ingredient lines by outcome.
	// converted: written out in grams; passthrough: no density row matched,
	// amount scaled but unit kept; failed: returned unchanged after an error.
	LinesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recipeconv_lines_total",
		Help: "Ingredient lines processed by result",
	}, []string{"result"})

	// RateLookups counts unit-to-unit rate lookups by result.
	RateLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recipeconv_rate_lookups_total",
		Help: "Unit rate lookups by result",
	}, []string{"result"})

	RateLookupDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "recipeconv_rate_lookup_duration_seconds",
		Help:    "Unit rate lookup duration",
		Buckets: []float64{0.000001, 0.00001, 0.0001, 0.001, 0.01},
	})

	// RecipesTotal counts whole recipes converted.
	RecipesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recipeconv_recipes_total",
		Help: "Recipes converted",
	})

	// HTTPRequests counts API requests by route and status code.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recipeconv_http_requests_total",
		Help: "HTTP requests by route and status",
	}, []string{"route", "status"})
)
