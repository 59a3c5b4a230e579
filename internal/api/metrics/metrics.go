// Package metrics defines all custom Prometheus metrics for the OncoScan
// API. It is the single source of truth for metric names, labels, and help
// strings; everything is registered with the default registry at init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "oncoscan"

// PredictionsTotal counts predictions that completed successfully.
// Label:
//   - finding: the primary finding returned ("suspicious lesion" / "no acute findings")
var PredictionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "predictions_total",
		Help:      "Total number of predictions completed, by primary finding.",
	},
	[]string{"finding"},
)

// PredictionDuration measures the end-to-end pipeline time per request.
// Label:
//   - modality: the scan modality tag (e.g. "CT", "Unknown")
var PredictionDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "prediction_duration_seconds",
		Help:      "Duration of the prediction pipeline from upload receipt to audit append.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"modality"},
)

// DecodeFailuresTotal counts uploads that could not be decoded and were
// substituted with a synthetic result.
var DecodeFailuresTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "decode_failures_total",
		Help:      "Total number of uploads that failed image decoding.",
	},
)

// ResultCacheTotal counts scan result cache decisions.
// Label:
//   - result: "hit" (identical content replayed) or "miss"
var ResultCacheTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "result_cache_total",
		Help:      "Total number of result cache lookups, labelled by result (hit/miss).",
	},
	[]string{"result"},
)

// LoginsTotal counts token requests.
// Label:
//   - outcome: "success", "invalid_credentials", or "inactive"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by outcome.",
	},
	[]string{"outcome"},
)

// ModelReloadsTotal counts admin-triggered model reloads.
// Label:
//   - outcome: "ok" or "failed"
var ModelReloadsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "model_reloads_total",
		Help:      "Total number of model reloads, by outcome.",
	},
	[]string{"outcome"},
)
