package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler serves the default prometheus registry; mounted unauthenticated at
// /metrics alongside the health endpoints
func Handler() http.Handler {
	return promhttp.Handler()
}
