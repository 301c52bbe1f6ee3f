package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Counter interface {
	Inc(labels ...string)
}

type Counters struct {
	LogsIngested Counter
	LogsRejected Counter

	PingChecks      Counter
	PingTransitions Counter

	Notifications Counter
}

type PrometheusCounter struct {
	counter *prometheus.CounterVec
}

func NewPrometheusCounter(name, help string, labels []string) *PrometheusCounter {
	return &PrometheusCounter{
		counter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "logpulse",
			Name:      name,
			Help:      help,
		}, labels),
	}
}

func (p *PrometheusCounter) Inc(labels ...string) {
	p.counter.WithLabelValues(labels...).Inc()
}

func newCounters(reg prometheus.Registerer) *Counters {
	logsIngested := NewPrometheusCounter("logs_ingested_total", "Accepted log records", []string{"level"})
	logsRejected := NewPrometheusCounter("logs_rejected_total", "Rejected log records", []string{"reason"})
	pingChecks := NewPrometheusCounter("ping_checks_total", "Completed ping polls", []string{"status"})
	pingTransitions := NewPrometheusCounter("ping_transitions_total", "Notifying ping status changes", []string{"direction"})
	notifications := NewPrometheusCounter("notifications_total", "Notification deliveries", []string{"source", "result"})

	reg.MustRegister(
		logsIngested.counter,
		logsRejected.counter,
		pingChecks.counter,
		pingTransitions.counter,
		notifications.counter,
	)

	return &Counters{
		LogsIngested:    logsIngested,
		LogsRejected:    logsRejected,
		PingChecks:      pingChecks,
		PingTransitions: pingTransitions,
		Notifications:   notifications,
	}
}

func New() *Counters {
	return newCounters(prometheus.DefaultRegisterer)
}

func NewTestCounters() *Counters {
	return newCounters(prometheus.NewRegistry())
}

func Handler() http.Handler {
	return promhttp.Handler()
}
