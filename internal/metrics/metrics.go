// Package metrics exports watch-cycle counters to Prometheus.
package metrics

import (
	"net/http"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pagewatch"

var (
	registry = prom.NewRegistry()

	cyclesTotal = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace, Name: "cycles_total", Help: "Watch cycles by outcome",
	}, []string{"outcome"})
	notificationsTotal = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace, Name: "notifications_total", Help: "Notification attempts by result",
	}, []string{"result"})
	storageFailuresTotal = prom.NewCounter(prom.CounterOpts{
		Namespace: namespace, Name: "storage_failures_total", Help: "Baseline reads or writes that failed",
	})
	cycleDuration = prom.NewHistogram(prom.HistogramOpts{
		Namespace: namespace, Name: "cycle_duration_seconds", Help: "Wall time of a watch cycle",
		Buckets: prom.ExponentialBuckets(0.05, 2, 12),
	})
	lastCycleTimestamp = prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace, Name: "last_cycle_timestamp_seconds", Help: "Unix time the most recent cycle finished",
	})
	lastSuccessTimestamp = prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace, Name: "last_success_timestamp_seconds", Help: "Unix time of the most recent cycle that obtained a snapshot",
	})
)

var registerOnce sync.Once

func register() {
	registerOnce.Do(func() {
		registry.MustRegister(cyclesTotal, notificationsTotal, storageFailuresTotal, cycleDuration, lastCycleTimestamp, lastSuccessTimestamp)
		registry.MustRegister(promcollect.NewGoCollector(), promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}))
	})
}

// ObserveCycle records one finished cycle. success is true when a snapshot was obtained.
func ObserveCycle(outcome string, success bool, took time.Duration, finished time.Time) {
	register()
	cyclesTotal.WithLabelValues(outcome).Inc()
	cycleDuration.Observe(took.Seconds())
	lastCycleTimestamp.Set(float64(finished.Unix()))
	if success {
		lastSuccessTimestamp.Set(float64(finished.Unix()))
	}
}

// ObserveNotification records a delivery attempt.
func ObserveNotification(delivered bool) {
	register()
	if delivered {
		notificationsTotal.WithLabelValues("delivered").Inc()
		return
	}
	notificationsTotal.WithLabelValues("failed").Inc()
}

func ObserveStorageFailure() {
	register()
	storageFailuresTotal.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	register()
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
