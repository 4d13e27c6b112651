package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 导入阶段
var (
	IngestLines = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moviegraph_ingest_lines_total",
		Help: "Lines read from source files, header excluded.",
	}, []string{"file"})

	IngestRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moviegraph_ingest_records_total",
		Help: "Transformed records by outcome (accepted, filtered, malformed, unresolved).",
	}, []string{"file", "outcome"})

	IngestFileErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moviegraph_ingest_file_errors_total",
		Help: "Source files that could not be read completely.",
	}, []string{"file"})

	IngestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "moviegraph_ingest_duration_seconds",
		Help:    "Wall time of a full ingestion run.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})

	GraphEntities = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "moviegraph_graph_entities",
		Help: "Entities held by the in-memory graph after loading.",
	}, []string{"kind"})
)

// 相似度
var (
	SimilarityRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moviegraph_similarity_requests_total",
		Help: "Similar-movie lookups by where the answer came from (memory, store, computed, missing).",
	}, []string{"source"})

	SimilarityCompute = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "moviegraph_similarity_compute_seconds",
		Help:    "Time spent scoring candidates for one source movie.",
		Buckets: prometheus.DefBuckets,
	})
)

// 持久化
var (
	SinkRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moviegraph_sink_retries_total",
		Help: "Retried persistence operations.",
	}, []string{"op"})

	SinkFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moviegraph_sink_failures_total",
		Help: "Persistence operations that failed after exhausting retries.",
	}, []string{"op"})
)
