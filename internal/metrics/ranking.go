package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ranking Prometheus metrics.
var (
	RankingQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "relevance",
			Name:      "ranking_queries_total",
			Help:      "Total ranking queries",
		},
		[]string{"preset", "status"}, // status: "ok" / "degraded" / "error"
	)

	RankingScoringDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "relevance",
			Name:      "ranking_scoring_duration_seconds",
			Help:      "Pure scoring pipeline duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		},
		[]string{"preset"},
	)

	RankingCandidatesScored = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "relevance",
			Name:      "ranking_candidates_scored_total",
			Help:      "Candidates that entered the scoring pipeline",
		},
		[]string{"preset"},
	)

	RankingCandidatesExcluded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "relevance",
			Name:      "ranking_candidates_excluded_total",
			Help:      "Candidates dropped as anomalous during scoring",
		},
		[]string{"preset"},
	)

	ResultCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "relevance",
			Name:      "result_cache_total",
			Help:      "Result cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var rankingMetricsRegistered bool

// RegisterRankingMetrics registers Prometheus ranking metrics. Must be called once from main.
func RegisterRankingMetrics() {
	if rankingMetricsRegistered {
		return
	}
	prometheus.MustRegister(RankingQueriesTotal)
	prometheus.MustRegister(RankingScoringDuration)
	prometheus.MustRegister(RankingCandidatesScored)
	prometheus.MustRegister(RankingCandidatesExcluded)
	prometheus.MustRegister(ResultCacheTotal)
	rankingMetricsRegistered = true
}
