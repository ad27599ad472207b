package prometheus

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/questx-lab/badge-minter/internal/common"
)

// NewHandler serves the runtime metrics and the metrics of internal/common.
// The latter carry a constant "service" label, so the worker, api and
// reconcile processes can be told apart when scraped together.
func NewHandler(service string) http.Handler {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	serviceRegistry := prometheus.WrapRegistererWith(prometheus.Labels{"service": service}, registry)
	for _, counter := range common.PromCounters {
		serviceRegistry.MustRegister(counter)
	}

	for _, histogram := range common.PromHistograms {
		serviceRegistry.MustRegister(histogram)
	}

	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
}
