package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collectors are the process metrics exported on /metrics.
type Collectors struct {
	registry *prometheus.Registry

	PlansComposed   prometheus.Counter
	PlanConflicts   prometheus.Counter
	AIRequests      *prometheus.CounterVec
	AILatency       *prometheus.HistogramVec
	RateLimited     *prometheus.CounterVec
	HTTPRequests    *prometheus.CounterVec
	MissingRecipes  prometheus.Counter
	RecipesIngested prometheus.Counter
	CatalogSize     prometheus.Gauge
}

// NewCollectors registers the metrics on a fresh registry.
func NewCollectors() *Collectors {
	c := &Collectors{
		registry: prometheus.NewRegistry(),
		PlansComposed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "meal_agent_plans_composed_total",
			Help: "Number of weekly plans composed.",
		}),
		PlanConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "meal_agent_plan_conflicts_total",
			Help: "Number of day slots left without a recipe.",
		}),
		AIRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "meal_agent_ai_requests_total",
			Help: "AI proxy requests by operation and outcome.",
		}, []string{"operation", "outcome"}),
		AILatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "meal_agent_ai_request_duration_seconds",
			Help:    "Latency of upstream AI calls.",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}, []string{"operation"}),
		RateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "meal_agent_rate_limited_total",
			Help: "Requests rejected by the per-IP rate limiter.",
		}, []string{"route"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "meal_agent_http_requests_total",
			Help: "HTTP requests by route and status code.",
		}, []string{"route", "method", "status"}),
		MissingRecipes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "meal_agent_missing_recipes_total",
			Help: "Planned recipes that no longer resolved in the catalog.",
		}),
		RecipesIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "meal_agent_recipes_ingested_total",
			Help: "Recipes added to the catalog from any source.",
		}),
		CatalogSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "meal_agent_catalog_recipes",
			Help: "Recipes currently in the catalog.",
		}),
	}
	c.registry.MustRegister(
		c.PlansComposed, c.PlanConflicts, c.AIRequests, c.AILatency,
		c.RateLimited, c.HTTPRequests, c.MissingRecipes, c.RecipesIngested,
		c.CatalogSize,
		collectors.NewGoCollector(),
	)
	return c
}

// Handler serves the registry in the Prometheus text format.
func (c *Collectors) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (c *Collectors) Registry() *prometheus.Registry {
	return c.registry
}
