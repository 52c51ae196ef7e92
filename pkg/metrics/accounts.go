package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeCreated  = "created"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"

	KindMember     = "member"
	KindPrivileged = "privileged"
)

// AccountMetrics records registration, rejection and login activity.
type AccountMetrics struct {
	registrations *prometheus.CounterVec
	rejections    *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	logins        *prometheus.CounterVec
	rateLimited   *prometheus.CounterVec
}

// NewAccountMetrics registers the account metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewAccountMetrics(reg prometheus.Registerer) *AccountMetrics {
	if reg == nil {
		return &AccountMetrics{}
	}
	registrations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "askbox",
		Name:      "registrations_total",
		Help:      "Registration attempts by account kind and outcome.",
	}, []string{"kind", "outcome"})
	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "askbox",
		Name:      "registration_rejections_total",
		Help:      "Field rejections raised while registering accounts.",
	}, []string{"field", "reason"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "askbox",
		Name:      "registration_duration_seconds",
		Help:      "Duration of registration attempts in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"outcome"})
	logins := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "askbox",
		Name:      "logins_total",
		Help:      "Login attempts by outcome.",
	}, []string{"outcome"})
	rateLimited := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "askbox",
		Name:      "auth_rate_limited_total",
		Help:      "Requests blocked by the auth rate limiter.",
	}, []string{"policy", "scope"})
	reg.MustRegister(registrations, rejections, duration, logins, rateLimited)
	return &AccountMetrics{
		registrations: registrations,
		rejections:    rejections,
		duration:      duration,
		logins:        logins,
		rateLimited:   rateLimited,
	}
}

// ObserveRegistration records one registration attempt.
func (m *AccountMetrics) ObserveRegistration(kind, outcome string, elapsed time.Duration) {
	if m == nil || m.registrations == nil {
		return
	}
	m.registrations.WithLabelValues(normalizeLabel(kind), normalizeLabel(outcome)).Inc()
	m.duration.WithLabelValues(normalizeLabel(outcome)).Observe(elapsed.Seconds())
}

// IncRejection counts a single field rejection.
func (m *AccountMetrics) IncRejection(field, reason string) {
	if m == nil || m.rejections == nil {
		return
	}
	m.rejections.WithLabelValues(normalizeLabel(field), normalizeLabel(reason)).Inc()
}

func (m *AccountMetrics) IncLogin(outcome string) {
	if m == nil || m.logins == nil {
		return
	}
	m.logins.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *AccountMetrics) IncRateLimited(policy, scope string) {
	if m == nil || m.rateLimited == nil {
		return
	}
	m.rateLimited.WithLabelValues(normalizeLabel(policy), normalizeLabel(scope)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
