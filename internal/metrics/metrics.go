package metrics

import (
	"net/http"
	"strconv"
	"time"

	"xbit_backend/internal/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	playsStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "xbit",
			Subsystem: "plays",
			Name:      "started_total",
			Help:      "Total number of plays submitted or resumed.",
		},
		[]string{"chain_id", "origin"},
	)

	playsFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "xbit",
			Subsystem: "plays",
			Name:      "finished_total",
			Help:      "Total number of plays that reached a terminal stage.",
		},
		[]string{"chain_id", "stage", "kind"},
	)

	playsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "xbit",
			Subsystem: "plays",
			Name:      "in_flight",
			Help:      "Current number of plays with a running lifecycle task.",
		},
	)

	playDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "xbit",
			Subsystem: "plays",
			Name:      "duration_seconds",
			Help:      "Time from submission to a terminal stage.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 11), // 1s to ~17m
		},
		[]string{"stage"},
	)

	statusQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "xbit",
			Subsystem: "ledger",
			Name:      "status_queries_total",
			Help:      "Total number of play status queries by result.",
		},
		[]string{"result"},
	)

	approvals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "xbit",
			Subsystem: "ledger",
			Name:      "approvals_total",
			Help:      "Total number of allowance approvals issued before a play.",
		},
		[]string{"asset", "success"},
	)
)

func init() {
	Registry.MustRegister(
		playsStarted,
		playsFinished,
		playsInFlight,
		playDuration,
		statusQueries,
		approvals,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func PlayStarted(chainID int64, origin string) {
	playsStarted.WithLabelValues(strconv.FormatInt(chainID, 10), origin).Inc()
	playsInFlight.Inc()
}

func PlayFinished(chainID int64, stage model.Stage, kind model.FailureKind, elapsed time.Duration) {
	playsFinished.WithLabelValues(strconv.FormatInt(chainID, 10), stage.String(), string(kind)).Inc()
	playsInFlight.Dec()
	playDuration.WithLabelValues(stage.String()).Observe(elapsed.Seconds())
}

func StatusQuery(result string) {
	statusQueries.WithLabelValues(result).Inc()
}

func Approval(asset string, success bool) {
	approvals.WithLabelValues(asset, strconv.FormatBool(success)).Inc()
}
