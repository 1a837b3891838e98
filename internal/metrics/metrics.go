// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/gkash/gkash_api/internal/apperr"
)

var (
	registrationSteps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gkash_registration_steps_total",
		Help: "Registration transitions attempted, by step and outcome",
	}, []string{"step", "outcome"})

	logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gkash_logins_total",
		Help: "Login attempts by outcome",
	}, []string{"outcome"})

	transactions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gkash_transactions_total",
		Help: "Balance mutations by kind and outcome",
	}, []string{"kind", "outcome"})

	verificationScores = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gkash_verification_score",
		Help:    "Distribution of identity verification scores",
		Buckets: prometheus.LinearBuckets(0, 10, 11),
	})

	advisorRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gkash_advisor_requests_total",
		Help: "Advisor questions by mode and outcome",
	}, []string{"mode", "outcome"})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gkash_http_requests_total",
		Help: "HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})
)

// Outcome labels err as "ok" or its error kind.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return string(apperr.KindOf(err))
}

func RegistrationStep(step string, err error) {
	registrationSteps.WithLabelValues(step, Outcome(err)).Inc()
}

func Login(err error) {
	logins.WithLabelValues(Outcome(err)).Inc()
}

func Transaction(kind string, err error) {
	transactions.WithLabelValues(kind, Outcome(err)).Inc()
}

func VerificationScore(score int) {
	verificationScores.Observe(float64(score))
}

func AdvisorRequest(mode string, err error) {
	advisorRequests.WithLabelValues(mode, Outcome(err)).Inc()
}

func HTTPRequest(method, route, status string) {
	httpRequests.WithLabelValues(method, route, status).Inc()
}
