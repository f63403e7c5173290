package metrics

import (
	"github.com/jypelle/vekiscore/internal/srv/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net/http"
)

// Recorder exposes runtime counters to prometheus. A nil *Recorder records nothing.
type Recorder struct {
	registry *prometheus.Registry

	commands      *prometheus.CounterVec
	staleDraws    *prometheus.CounterVec
	published     prometheus.Counter
	activations   *prometheus.CounterVec
	fetches       *prometheus.CounterVec
	pending       prometheus.GaugeFunc
	adminFailures *prometheus.CounterVec
}

func NewRecorder(pendingFunc func() float64) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vekiscore",
			Name:      "commands_dispatched_total",
			Help:      "Commands dispatched by the display runtime.",
		}, []string{"kind"}),
		staleDraws: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vekiscore",
			Name:      "stale_draws_total",
			Help:      "Draw commands discarded because their screen was no longer active.",
		}, []string{"screen"}),
		published: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vekiscore",
			Name:      "frames_published_total",
			Help:      "Frames handed to the display device.",
		}),
		activations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vekiscore",
			Name:      "screen_activations_total",
			Help:      "Screen activations.",
		}, []string{"screen"}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vekiscore",
			Name:      "score_fetches_total",
			Help:      "Score feed fetches by league and result.",
		}, []string{"league", "result"}),
		adminFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vekiscore",
			Name:      "admin_failures_total",
			Help:      "Failed administrative actions.",
		}, []string{"action"}),
	}
	if pendingFunc == nil {
		pendingFunc = func() float64 { return 0 }
	}
	r.pending = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "vekiscore",
		Name:      "scheduler_pending_commands",
		Help:      "Delayed commands waiting for their deadline.",
	}, pendingFunc)

	r.registry.MustRegister(r.commands, r.staleDraws, r.published, r.activations, r.fetches, r.pending, r.adminFailures)
	return r
}

func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) RecordCommand(kind string) {
	if r == nil {
		return
	}
	r.commands.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordStaleDraw(screen model.ScreenId) {
	if r == nil {
		return
	}
	r.staleDraws.WithLabelValues(string(screen)).Inc()
}

func (r *Recorder) RecordPublish() {
	if r == nil {
		return
	}
	r.published.Inc()
}

func (r *Recorder) RecordActivation(screen model.ScreenId) {
	if r == nil {
		return
	}
	r.activations.WithLabelValues(string(screen)).Inc()
}

func (r *Recorder) RecordFetch(league model.League, err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.fetches.WithLabelValues(string(league), result).Inc()
}

func (r *Recorder) RecordAdminFailure(action string) {
	if r == nil {
		return
	}
	r.adminFailures.WithLabelValues(action).Inc()
}
