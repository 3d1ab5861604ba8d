package infra

import (
	"context"
	"strconv"

	"registry-gateway/registry/domain"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusStatsStore exporta os eventos como métricas.
type PrometheusStatsStore struct {
	events   *prometheus.CounterVec
	statuses *prometheus.CounterVec
	wait     prometheus.Histogram
}

// NewPrometheusStatsStore registra as métricas em reg (use prometheus.NewRegistry
// em testes para não colidir com o registro global).
func NewPrometheusStatsStore(reg prometheus.Registerer) (*PrometheusStatsStore, error) {
	s := &PrometheusStatsStore{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "registry",
			Name:      "events_total",
			Help:      "Admission and submission events by outcome.",
		}, []string{"stage", "outcome"}),
		statuses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "registry",
			Name:      "responses_total",
			Help:      "Registry HTTP responses by status code.",
		}, []string{"code"}),
		wait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "registry",
			Name:      "permit_wait_seconds",
			Help:      "Time callers spent blocked on the rate gate.",
			Buckets:   []float64{.001, .01, .1, .5, 1, 2.5, 5, 10, 30, 60},
		}),
	}
	for _, c := range []prometheus.Collector{s.events, s.statuses, s.wait} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *PrometheusStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	s.events.WithLabelValues(string(ev.Stage), string(ev.Outcome)).Inc()
	if ev.Status != 0 {
		s.statuses.WithLabelValues(strconv.Itoa(ev.Status)).Inc()
	}
	if ev.Stage == domain.StageAdmission && ev.Outcome == domain.OutcomeAdmitted {
		s.wait.Observe(ev.Wait.Seconds())
	}
	return nil
}

// RegisterGateGauges expõe o estado instantâneo do portão.
func RegisterGateGauges(reg prometheus.Registerer, g *WindowGate) error {
	gauges := []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "registry",
			Name:      "gate_available_permits",
			Help:      "Permits left in the current window.",
		}, func() float64 { return float64(g.Available()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "registry",
			Name:      "gate_waiting_callers",
			Help:      "Callers blocked waiting for the next window.",
		}, func() float64 { return float64(g.Waiting()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "registry",
			Name:      "gate_limit",
			Help:      "Permits granted per window.",
		}, func() float64 { return float64(g.Limit()) }),
	}
	for _, c := range gauges {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
