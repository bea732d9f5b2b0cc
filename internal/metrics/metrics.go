// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the metrics port used by services, the session layer and middleware.
type Recorder interface {
	RecordSignIn(role, outcome string)
	RecordSignOut()
	RecordAccountRegistration(role, outcome string)
	RecordOrganizerDecision(status string)
	RecordEventCreated()
	RecordEventTransition(decision, outcome string)
	RecordEventRegistration(outcome string)
	RecordHTTPStatus(statusCode int)
	SetActiveClients(n int)
	SetSignedInClients(n int)
}

// Collector is the Prometheus implementation of Recorder.
type Collector struct {
	signIns             *prometheus.CounterVec
	signOuts            prometheus.Counter
	accountRegistration *prometheus.CounterVec
	organizerDecisions  *prometheus.CounterVec
	eventsCreated       prometheus.Counter
	eventTransitions    *prometheus.CounterVec
	eventRegistrations  *prometheus.CounterVec
	httpStatus          *prometheus.CounterVec
	activeClients       prometheus.Gauge
	signedInClients     prometheus.Gauge
}

// NewCollector creates a Collector and registers its metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		signIns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campusevents_sign_in_total",
			Help: "Sign-in attempts by claimed role and outcome.",
		}, []string{"role", "outcome"}),
		signOuts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "campusevents_sign_out_total",
			Help: "Sign-outs that terminated a published session.",
		}),
		accountRegistration: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campusevents_account_registration_total",
			Help: "Self-service account registrations by role and outcome.",
		}, []string{"role", "outcome"}),
		organizerDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campusevents_organizer_decision_total",
			Help: "Admin decisions on organizer accounts.",
		}, []string{"status"}),
		eventsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "campusevents_event_created_total",
			Help: "Events submitted by organizers.",
		}),
		eventTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campusevents_event_transition_total",
			Help: "Event lifecycle transitions by decision and outcome.",
		}, []string{"decision", "outcome"}),
		eventRegistrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campusevents_event_registration_total",
			Help: "Student event registration attempts by outcome.",
		}, []string{"outcome"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campusevents_http_status_total",
			Help: "HTTP responses by status code.",
		}, []string{"status_code"}),
		activeClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "campusevents_active_clients",
			Help: "Clients with a live session manager.",
		}),
		signedInClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "campusevents_signed_in_clients",
			Help: "Live clients whose published session carries a profile.",
		}),
	}

	reg.MustRegister(
		c.signIns,
		c.signOuts,
		c.accountRegistration,
		c.organizerDecisions,
		c.eventsCreated,
		c.eventTransitions,
		c.eventRegistrations,
		c.httpStatus,
		c.activeClients,
		c.signedInClients,
	)

	return c
}

func (c *Collector) RecordSignIn(role, outcome string) {
	c.signIns.WithLabelValues(role, outcome).Inc()
}

func (c *Collector) RecordSignOut() {
	c.signOuts.Inc()
}

func (c *Collector) RecordAccountRegistration(role, outcome string) {
	c.accountRegistration.WithLabelValues(role, outcome).Inc()
}

func (c *Collector) RecordOrganizerDecision(status string) {
	c.organizerDecisions.WithLabelValues(status).Inc()
}

func (c *Collector) RecordEventCreated() {
	c.eventsCreated.Inc()
}

func (c *Collector) RecordEventTransition(decision, outcome string) {
	c.eventTransitions.WithLabelValues(decision, outcome).Inc()
}

func (c *Collector) RecordEventRegistration(outcome string) {
	c.eventRegistrations.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

func (c *Collector) SetActiveClients(n int) {
	c.activeClients.Set(float64(n))
}

func (c *Collector) SetSignedInClients(n int) {
	c.signedInClients.Set(float64(n))
}

// Handler returns the HTTP handler Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Noop discards every measurement.
type Noop struct{}

func (Noop) RecordSignIn(string, string)              {}
func (Noop) RecordSignOut()                           {}
func (Noop) RecordAccountRegistration(string, string) {}
func (Noop) RecordOrganizerDecision(string)           {}
func (Noop) RecordEventCreated()                      {}
func (Noop) RecordEventTransition(string, string)     {}
func (Noop) RecordEventRegistration(string)           {}
func (Noop) RecordHTTPStatus(int)                     {}
func (Noop) SetActiveClients(int)                     {}
func (Noop) SetSignedInClients(int)                   {}

var (
	_ Recorder = (*Collector)(nil)
	_ Recorder = Noop{}
)
