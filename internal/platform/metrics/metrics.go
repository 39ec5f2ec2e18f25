// Package metrics exposes Prometheus counters for the clinic service.
package metrics

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// LoginAttempts counts logins by outcome (success, failure).
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "patientdb_login_attempts_total",
		Help: "Login attempts by outcome.",
	}, []string{"outcome"})

	// StoreOps counts role-gated store operations by action name.
	StoreOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "patientdb_store_operations_total",
		Help: "Store operations by action.",
	}, []string{"action"})

	// SaveFailures counts failed flat-file rewrites by file kind.
	SaveFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "patientdb_save_failures_total",
		Help: "Failed data file rewrites by file.",
	}, []string{"file"})
)

// Handler serves the Prometheus scrape endpoint.
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
