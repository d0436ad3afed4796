package pipeline

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the triage pipeline.
type Metrics struct {
	RunsTotal        *prometheus.CounterVec
	RunDuration      *prometheus.HistogramVec
	RisksTotal       *prometheus.CounterVec
	RetrievalHits    prometheus.Counter
	RetrievalMisses  prometheus.Counter
	LLMDuration      prometheus.Histogram
	LLMFailuresTotal prometheus.Counter
}

// NewMetrics registers and returns pipeline metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sage_pipeline_runs_total",
			Help: "Total pipeline runs by response source.",
		}, []string{"source"}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sage_pipeline_run_duration_seconds",
			Help:    "Duration of pipeline runs in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 14), // 5ms .. ~40s
		}, []string{"source"}),
		RisksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sage_pipeline_risks_total",
			Help: "Messages carrying a detected health risk, by kind.",
		}, []string{"kind"}),
		RetrievalHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sage_pipeline_retrieval_hits_total",
			Help: "Runs answered from the curated resource store.",
		}),
		RetrievalMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sage_pipeline_retrieval_misses_total",
			Help: "Runs with internal categories but no matching resources.",
		}),
		LLMDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sage_llm_call_duration_seconds",
			Help:    "Duration of individual generation calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 9), // 0.25s .. ~64s
		}),
		LLMFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sage_llm_failures_total",
			Help: "Generation calls that failed and served the apology text.",
		}),
	}

	reg.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.RisksTotal,
		m.RetrievalHits,
		m.RetrievalMisses,
		m.LLMDuration,
		m.LLMFailuresTotal,
	)
	return m
}
