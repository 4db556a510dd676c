// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the inkwell server.
package observability

import "github.com/prometheus/client_golang/prometheus"

// EmbedBuckets defines histogram buckets suited for embedding and model
// load latencies, ranging from 10ms to 120s (model downloads are slow).
var EmbedBuckets = []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

var (
	// RequestsTotal counts all HTTP requests by method, route, and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inkwell_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration records HTTP request duration in seconds by method and route.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "inkwell_request_duration_seconds",
			Help:    "Request duration",
			Buckets: EmbedBuckets,
		},
		[]string{"method", "route"},
	)

	// SearchesTotal counts semantic search calls by outcome.
	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inkwell_searches_total",
			Help: "Semantic search calls",
		},
		[]string{"status"},
	)

	// SearchDuration records full search latency (query embedding plus
	// store lookup) in seconds.
	SearchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "inkwell_search_duration_seconds",
			Help:    "Search latency",
			Buckets: EmbedBuckets,
		},
	)

	// EmbedCallsTotal counts worker embedding calls by outcome.
	EmbedCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inkwell_embed_calls_total",
			Help: "Embedding worker calls",
		},
		[]string{"model", "status"},
	)

	// EmbedDuration records embedding call latency in seconds per model.
	EmbedDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "inkwell_embed_duration_seconds",
			Help:    "Embedding call latency",
			Buckets: EmbedBuckets,
		},
		[]string{"model"},
	)

	// ModelLoaded reports whether the worker currently holds a loaded
	// model (1) or not (0).
	ModelLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "inkwell_model_loaded",
			Help: "Whether an embedding model is loaded",
		},
	)

	// ModelLoadDuration records model load time in seconds per model.
	ModelLoadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "inkwell_model_load_duration_seconds",
			Help:    "Model load time",
			Buckets: EmbedBuckets,
		},
		[]string{"model"},
	)

	// DocumentsIngestedTotal counts ingested documents by outcome.
	DocumentsIngestedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inkwell_documents_ingested_total",
			Help: "Ingested documents",
		},
		[]string{"status"},
	)

	// ChunksWrittenTotal counts chunk rows written to the vector store.
	ChunksWrittenTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "inkwell_chunks_written_total",
			Help: "Chunk embeddings written",
		},
	)

	// IngestStreamsActive tracks SSE ingestion progress streams in flight.
	IngestStreamsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "inkwell_ingest_streams_active",
			Help: "Active ingestion progress streams",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		SearchesTotal,
		SearchDuration,
		EmbedCallsTotal,
		EmbedDuration,
		ModelLoaded,
		ModelLoadDuration,
		DocumentsIngestedTotal,
		ChunksWrittenTotal,
		IngestStreamsActive,
	)
}
