// Package metrics exposes Prometheus collectors for tether lifecycle events.
// Label values are bounded: detach reasons and tool-use results come from
// fixed sets defined by the systems.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry = prometheus.NewRegistry()
	factory  = promauto.With(registry)

	attachTotal = factory.NewCounter(prometheus.CounterOpts{
		Name: "grapple_attach_total",
		Help: "Tethers created by grapple projectile hits",
	})

	detachTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "grapple_detach_total",
		Help: "Tethers torn down, by reason",
	}, []string{"reason"}) // refire, shutdown, parent_changed, cut, stale

	activeTethers = factory.NewGauge(prometheus.GaugeOpts{
		Name: "grapple_active_tethers",
		Help: "Tethers alive after the last reel pass",
	})

	reelTicks = factory.NewCounter(prometheus.CounterOpts{
		Name: "grapple_reel_ticks_total",
		Help: "Per-tether reel updates applied",
	})

	toolUseTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "grapple_tool_use_total",
		Help: "Delayed tool actions, by result",
	}, []string{"result"}) // started, no_tool, wrong_quality, busy, finished, cancelled

	tickDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Name:    "grapple_tick_duration_seconds",
		Help:    "Time spent in one simulation tick",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
	})
)

func GrappleAttached() { attachTotal.Inc() }

func GrappleDetached(reason string) { detachTotal.WithLabelValues(reason).Inc() }

func SetActiveTethers(n int) { activeTethers.Set(float64(n)) }

func ReelTick() { reelTicks.Inc() }

func ToolUse(result string) { toolUseTotal.WithLabelValues(result).Inc() }

func ObserveTick(d time.Duration) { tickDuration.Observe(d.Seconds()) }

// Registry returns the registry holding every collector in this package.
func Registry() *prometheus.Registry { return registry }

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
