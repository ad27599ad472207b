package common

import "github.com/prometheus/client_golang/prometheus"

const (
	HTTPRequestTotal           = "http_requests_total"
	HTTPRequestDurationSeconds = "http_request_duration_seconds"

	MintResultsTotal        = "nft_mint_results_total"
	ChainCallsTotal         = "nft_mint_chain_calls_total"
	MintConfirmationSeconds = "nft_mint_confirmation_seconds"
	MintReconciledTotal     = "nft_mint_reconciled_total"
)

var (
	PromCounters = map[string]*prometheus.CounterVec{
		HTTPRequestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: HTTPRequestTotal,
			Help: "Count of all HTTP requests",
		}, []string{"path", "code"}),
		MintResultsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MintResultsTotal,
			Help: "Count of all mint requests by result status and error category",
		}, []string{"status", "category"}),
		ChainCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: ChainCallsTotal,
			Help: "Count of all calls to blockchain rpcs",
		}, []string{"method"}),
		MintReconciledTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MintReconciledTotal,
			Help: "Count of pending mint attempts settled by the reconciler",
		}, []string{"status"}),
	}

	PromHistograms = map[string]*prometheus.HistogramVec{
		HTTPRequestDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: HTTPRequestDurationSeconds,
			Help: "Duration of all HTTP requests",
		}, []string{"path", "code"}),
		MintConfirmationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MintConfirmationSeconds,
			Help:    "Duration from broadcasting a mint transaction to its receipt",
			Buckets: []float64{1, 3, 5, 10, 20, 30, 60, 120},
		}, []string{"result"}),
	}
)
