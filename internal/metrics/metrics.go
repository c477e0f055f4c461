// Package metrics exports assistant counters to Prometheus.
package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "deskmate"

// Metrics holds the assistant's collectors.
type Metrics struct {
	intents       *prometheus.CounterVec
	clarification *prometheus.CounterVec
	outcomes      *prometheus.CounterVec
	dispatch      *prometheus.HistogramVec
	inflight      prometheus.Gauge
	pending       prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New registers the collectors on reg. A nil reg uses a private registry,
// which keeps tests independent of each other.
func New(reg prometheus.Registerer) (*Metrics, error) {
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if reg == nil {
		r := prometheus.NewRegistry()
		reg, gatherer = r, r
	} else if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	m := &Metrics{
		intents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intents_classified_total",
			Help:      "Messages classified, by intent tag.",
		}, []string{"tag"}),
		clarification: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clarifications_total",
			Help:      "Clarification prompts issued, by awaited requirement.",
		}, []string{"requirement"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dialogue_outcomes_total",
			Help:      "Conversation turns, by outcome.",
		}, []string{"outcome"}),
		dispatch: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Latency of collaborator calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"collaborator", "operation", "status"}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "inflight_dispatches",
			Help:      "Collaborator calls currently running.",
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_dialogues",
			Help:      "Users with an unresolved intent, as of the last sweep.",
		}),
		gatherer: gatherer,
	}

	var err error
	if m.intents, err = register(reg, m.intents); err != nil {
		return nil, err
	}
	if m.clarification, err = register(reg, m.clarification); err != nil {
		return nil, err
	}
	if m.outcomes, err = register(reg, m.outcomes); err != nil {
		return nil, err
	}
	if m.dispatch, err = register(reg, m.dispatch); err != nil {
		return nil, err
	}
	if m.inflight, err = register(reg, m.inflight); err != nil {
		return nil, err
	}
	if m.pending, err = register(reg, m.pending); err != nil {
		return nil, err
	}
	return m, nil
}

// register adds c to reg, reusing an identical collector registered earlier.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("registering metrics: %w", err)
	}
	return c, nil
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// IntentClassified counts one classification.
func (m *Metrics) IntentClassified(tag string) {
	m.intents.WithLabelValues(tag).Inc()
}

// ClarificationIssued counts one prompt.
func (m *Metrics) ClarificationIssued(requirement string) {
	m.clarification.WithLabelValues(requirement).Inc()
}

// Outcome counts one finished turn.
func (m *Metrics) Outcome(outcome string) {
	m.outcomes.WithLabelValues(outcome).Inc()
}

// PendingDialogues records the open dialogue count.
func (m *Metrics) PendingDialogues(n int) {
	m.pending.Set(float64(n))
}

// ObserveDispatch records one collaborator call.
func (m *Metrics) ObserveDispatch(collaborator, operation string, success bool, elapsed time.Duration) {
	status := "ok"
	if !success {
		status = "error"
	}
	m.dispatch.WithLabelValues(collaborator, operation, status).Observe(elapsed.Seconds())
}

// DispatchStarted marks a call as running.
func (m *Metrics) DispatchStarted() { m.inflight.Inc() }

// DispatchFinished marks a call as done.
func (m *Metrics) DispatchFinished() { m.inflight.Dec() }
