package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	PersonsRegistered  prometheus.Counter
	ProcessTransitions *prometheus.CounterVec
	AuthzDenials       *prometheus.CounterVec
	AdminsCreated      prometheus.Counter
	LoginAttempts      *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		PersonsRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "reestr_persons_registered_total",
			Help: "Total number of persons registered",
		}),

		ProcessTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "reestr_process_transitions_total",
			Help: "Total person process transitions by direction",
		}, []string{"direction"}), // direction: "start", "clear"

		AuthzDenials: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "reestr_authz_denials_total",
			Help: "Total authorization denials by reason",
		}, []string{"reason"}),

		AdminsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "reestr_admins_created_total",
			Help: "Total number of administrator accounts created",
		}),

		LoginAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "reestr_login_attempts_total",
			Help: "Total login attempts by outcome",
		}, []string{"outcome"}), // outcome: "success", "failure"
	}
}

// IncrementPersonsRegistered records a new person registration.
func (m *Metrics) IncrementPersonsRegistered() {
	if m != nil {
		m.PersonsRegistered.Inc()
	}
}

// IncrementProcessTransition records a process state change.
func (m *Metrics) IncrementProcessTransition(direction string) {
	if m != nil {
		m.ProcessTransitions.WithLabelValues(direction).Inc()
	}
}

// IncrementAuthzDenial records a denied authorization check.
func (m *Metrics) IncrementAuthzDenial(reason string) {
	if m != nil {
		m.AuthzDenials.WithLabelValues(reason).Inc()
	}
}

// IncrementAdminsCreated records a new administrator account.
func (m *Metrics) IncrementAdminsCreated() {
	if m != nil {
		m.AdminsCreated.Inc()
	}
}

// IncrementLoginAttempt records a login attempt outcome.
func (m *Metrics) IncrementLoginAttempt(outcome string) {
	if m != nil {
		m.LoginAttempts.WithLabelValues(outcome).Inc()
	}
}
