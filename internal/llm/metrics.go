package llm

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusObserver exports call counts and latencies.
type PrometheusObserver struct {
	calls   *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

// NewPrometheusObserver registers the llm collectors on reg.
func NewPrometheusObserver(reg prometheus.Registerer) (*PrometheusObserver, error) {
	o := &PrometheusObserver{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bananadeck",
			Subsystem: "llm",
			Name:      "calls_total",
			Help:      "Model calls by task and outcome.",
		}, []string{"task", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bananadeck",
			Subsystem: "llm",
			Name:      "call_duration_seconds",
			Help:      "Model call latency including retries.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80, 160},
		}, []string{"task"}),
	}
	for _, c := range []prometheus.Collector{o.calls, o.latency} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func (o *PrometheusObserver) OnCallComplete(event LLMCallEvent) {
	status := "ok"
	if !event.Success {
		status = event.ErrorCode
	}
	o.calls.WithLabelValues(string(event.Task), status).Inc()
	o.latency.WithLabelValues(string(event.Task)).Observe(float64(event.LatencyMs) / 1000)
}
