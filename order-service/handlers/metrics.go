package handlers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewMetricsHandler serves the default Prometheus registry the otel
// exporter writes to
func NewMetricsHandler() http.Handler {
	return promhttp.Handler()
}
