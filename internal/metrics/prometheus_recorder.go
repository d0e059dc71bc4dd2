package metrics

import (
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	requests          *prom.CounterVec
	pages             prom.Counter
	mutations         *prom.CounterVec
	operationDuration *prom.HistogramVec
	operationResults  *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers the assignctl metrics on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		requests: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "assignctl",
			Name:      "api_requests_total",
			Help:      "API round trips by method and status code (0 = transport failure)",
		}, []string{"method", "code"}),
		pages: prom.NewCounter(prom.CounterOpts{
			Namespace: "assignctl",
			Name:      "fetched_pages_total",
			Help:      "Pages consumed while traversing paginated collections",
		}),
		mutations: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "assignctl",
			Name:      "mutations_total",
			Help:      "Computed mutations by kind and whether they were applied",
		}, []string{"kind", "applied"}),
		operationDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "assignctl",
			Name:      "operation_duration_seconds",
			Help:      "Duration of top-level operations",
			Buckets:   prom.DefBuckets,
		}, []string{"operation"}),
		operationResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "assignctl",
			Name:      "operation_results_total",
			Help:      "Top-level operation results",
		}, []string{"operation", "result"}),
	}
	reg.MustRegister(pr.requests, pr.pages, pr.mutations, pr.operationDuration, pr.operationResults)
	return pr
}

func (p *PrometheusRecorder) IncRequest(method string, status int) {
	if p == nil {
		return
	}
	p.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

func (p *PrometheusRecorder) IncPages(n int) {
	if p == nil || n <= 0 {
		return
	}
	p.pages.Add(float64(n))
}

func (p *PrometheusRecorder) IncMutation(kind string, applied bool) {
	if p == nil {
		return
	}
	p.mutations.WithLabelValues(kind, strconv.FormatBool(applied)).Inc()
}

func (p *PrometheusRecorder) ObserveOperationDuration(operation string, d time.Duration) {
	if p == nil {
		return
	}
	p.operationDuration.WithLabelValues(operation).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncOperationResult(operation string, result ResultLabel) {
	if p == nil {
		return
	}
	p.operationResults.WithLabelValues(operation, string(result)).Inc()
}
