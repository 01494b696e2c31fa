// Package metrics holds the process's Prometheus collectors. It sits below
// the database, cache and repository packages so none of them import each
// other for instrumentation.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// storeOpDuration tracks repository operation duration in seconds
	storeOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "carrydesk_store_operation_duration_seconds",
			Help:    "Store operation duration in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	storeOpTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carrydesk_store_operations_total",
			Help: "Total number of store operations",
		},
		[]string{"operation"},
	)

	storeOpErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carrydesk_store_operation_errors_total",
			Help: "Total number of failed store operations",
		},
		[]string{"operation"},
	)

	quotaDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carrydesk_quota_decisions_total",
			Help: "Quota check-and-increment outcomes",
		},
		[]string{"kind", "outcome"},
	)

	ticketNumbersAllocated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "carrydesk_ticket_numbers_allocated_total",
			Help: "Total number of ticket numbers handed out",
		},
	)

	vouchesRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carrydesk_vouches_recorded_total",
			Help: "Total number of vouches recorded",
		},
		[]string{"kind"},
	)

	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carrydesk_cache_lookups_total",
			Help: "Query cache lookups by result",
		},
		[]string{"backend", "result"},
	)

	cacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carrydesk_cache_invalidated_keys_total",
			Help: "Query cache keys removed by invalidation",
		},
		[]string{"backend"},
	)

	dbUp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "carrydesk_db_up",
			Help: "1 when the last store health check passed, 0 otherwise",
		},
	)

	dbReconnects = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carrydesk_db_reconnects_total",
			Help: "Store reconnect attempts by outcome",
		},
		[]string{"outcome"},
	)
)

// ObserveStoreOp records one store operation. Pass the operation's error so
// failures are counted alongside the timing.
func ObserveStoreOp(operation string, start time.Time, err error) {
	storeOpTotal.WithLabelValues(operation).Inc()
	storeOpDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		storeOpErrors.WithLabelValues(operation).Inc()
	}
}

// RecordQuotaDecision counts an allowed or denied increment. kind is "quota"
// or "free_request".
func RecordQuotaDecision(kind string, allowed bool) {
	outcome := "denied"
	if allowed {
		outcome = "allowed"
	}
	quotaDecisions.WithLabelValues(kind, outcome).Inc()
}

func RecordTicketNumberAllocated() {
	ticketNumbersAllocated.Inc()
}

func RecordVouch(kind string) {
	vouchesRecorded.WithLabelValues(kind).Inc()
}

func RecordCacheHit(backend string) {
	cacheLookups.WithLabelValues(backend, "hit").Inc()
}

func RecordCacheMiss(backend string) {
	cacheLookups.WithLabelValues(backend, "miss").Inc()
}

func RecordCacheInvalidation(backend string, keys int) {
	cacheInvalidations.WithLabelValues(backend).Add(float64(keys))
}

func SetDBUp(up bool) {
	if up {
		dbUp.Set(1)
		return
	}
	dbUp.Set(0)
}

func RecordReconnect(ok bool) {
	if ok {
		dbReconnects.WithLabelValues("success").Inc()
		return
	}
	dbReconnects.WithLabelValues("failure").Inc()
}
