package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"HydroFlow/internal/domain/models"
	"HydroFlow/internal/domain/repository"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	ticksTotal    *prometheus.CounterVec
	decisions     *prometheus.CounterVec
	exits         *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	hurst         *prometheus.GaugeVec
	fractalDim    *prometheus.GaugeVec
	trend         *prometheus.GaugeVec
	imbalanceZ    *prometheus.GaugeVec
	toxicity      *prometheus.GaugeVec
	anchor        *prometheus.GaugeVec
	lastPrice     *prometheus.GaugeVec
	openPositions *prometheus.GaugeVec
	latency       *prometheus.HistogramVec
}

var _ repository.Metrics = (*Recorder)(nil)

// New creates a recorder registered on the default Prometheus registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a recorder registered on reg.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	gauge := func(name, help string) *prometheus.GaugeVec {
		return f.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: help}, []string{"symbol"})
	}
	return &Recorder{
		ticksTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hydroflow_ticks_total",
				Help: "Total number of ticks processed by the engine",
			},
			[]string{"symbol"},
		),
		decisions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hydroflow_entry_decisions_total",
				Help: "Entry evaluations by outcome (accepted, rejected gate name, or error)",
			},
			[]string{"symbol", "outcome"},
		),
		exits: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hydroflow_exits_total",
				Help: "Exit commands issued by reason",
			},
			[]string{"symbol", "reason"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hydroflow_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		hurst:         gauge("hydroflow_hurst", "Latest Hurst exponent"),
		fractalDim:    gauge("hydroflow_fractal_dimension", "Latest Higuchi fractal dimension"),
		trend:         gauge("hydroflow_trend_state", "Trend state (-1 down, 0 flat, 1 up)"),
		imbalanceZ:    gauge("hydroflow_imbalance_z", "Latest order-flow imbalance z-score"),
		toxicity:      gauge("hydroflow_toxicity_score", "Latest spread toxicity score"),
		anchor:        gauge("hydroflow_anchor_price", "Current correction anchor price"),
		lastPrice:     gauge("hydroflow_last_price", "Last bar close for a symbol"),
		openPositions: gauge("hydroflow_open_positions", "Trade contexts under management"),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hydroflow_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordTick counts a processed tick.
func (r *Recorder) RecordTick(symbol string) {
	r.ticksTotal.WithLabelValues(symbol).Inc()
}

// RecordSnapshot publishes the indicator gauges of a snapshot.
func (r *Recorder) RecordSnapshot(s models.Snapshot) {
	r.hurst.WithLabelValues(s.Symbol).Set(s.Hurst)
	r.fractalDim.WithLabelValues(s.Symbol).Set(s.FractalDim)
	r.trend.WithLabelValues(s.Symbol).Set(float64(s.Trend))
	r.imbalanceZ.WithLabelValues(s.Symbol).Set(s.ImbalanceZ)
	r.toxicity.WithLabelValues(s.Symbol).Set(s.ToxicityScore)
	r.anchor.WithLabelValues(s.Symbol).Set(s.Anchor)
	r.lastPrice.WithLabelValues(s.Symbol).Set(s.Close)
	r.openPositions.WithLabelValues(s.Symbol).Set(float64(len(s.OpenTrades)))
}

func (r *Recorder) RecordDecision(symbol, outcome string) {
	r.decisions.WithLabelValues(symbol, outcome).Inc()
}

func (r *Recorder) RecordExit(symbol, reason string) {
	r.exits.WithLabelValues(symbol, reason).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
