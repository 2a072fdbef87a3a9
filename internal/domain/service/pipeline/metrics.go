package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeNoBaseline   = "no_baseline"
	outcomeNotAnomalous = "not_anomalous"
	outcomeDuplicate    = "duplicate"
	outcomeNoLiveOffer  = "no_live_offer"
	outcomeMismatch     = "verification_mismatch"
	outcomeMaterialized = "materialized"
	outcomeFailed       = "failed"

	stageDiscover = "discover"
	stageBaseline = "baseline"
	stageConvert  = "convert"
	stageVerify   = "verify"
	stagePersist  = "persist"
)

//nolint:gochecknoglobals
var (
	scansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fareglitch",
		Subsystem: "pipeline",
		Name:      "scans_total",
		Help:      "Scan passes by final status.",
	}, []string{"status"})

	candidatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fareglitch",
		Subsystem: "pipeline",
		Name:      "candidates_total",
		Help:      "Candidates evaluated by outcome.",
	}, []string{"outcome"})

	dealsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fareglitch",
		Subsystem: "pipeline",
		Name:      "deals_total",
		Help:      "Deals materialized by tier and status.",
	}, []string{"tier", "status"})

	stageErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fareglitch",
		Subsystem: "pipeline",
		Name:      "stage_errors_total",
		Help:      "Isolated errors by pipeline stage.",
	}, []string{"stage"})

	scanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "fareglitch",
		Subsystem: "pipeline",
		Name:      "scan_duration_seconds",
		Help:      "Wall time of scan passes.",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
	})
)
