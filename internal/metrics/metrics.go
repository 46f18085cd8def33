// Package metrics holds the Prometheus collectors for domain events.
// HTTP request metrics live in the middleware package.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder counts domain events. A nil *Recorder records nothing.
type Recorder struct {
	reviewsCreated     *prometheus.CounterVec
	saxophonesCreated  prometheus.Counter
	invitationsIssued  *prometheus.CounterVec
	invitationsExpired prometheus.Counter
	signupsCompleted   prometheus.Counter
}

// New registers the domain collectors on reg
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		reviewsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "truetone",
			Name:      "reviews_created_total",
			Help:      "Reviews submitted, by saxophone type",
		}, []string{"type"}),
		saxophonesCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: "truetone",
			Name:      "saxophones_created_total",
			Help:      "Catalog records created",
		}),
		invitationsIssued: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "truetone",
			Name:      "invitations_issued_total",
			Help:      "Invitations issued, by kind (new or resend)",
		}, []string{"kind"}),
		invitationsExpired: f.NewCounter(prometheus.CounterOpts{
			Namespace: "truetone",
			Name:      "invitations_expired_total",
			Help:      "Invitations whose expired status was persisted",
		}),
		signupsCompleted: f.NewCounter(prometheus.CounterOpts{
			Namespace: "truetone",
			Name:      "signups_completed_total",
			Help:      "Reviewer accounts provisioned from invitations",
		}),
	}
}

// ReviewCreated counts a review for a saxophone type
func (r *Recorder) ReviewCreated(saxType string) {
	if r == nil {
		return
	}
	r.reviewsCreated.WithLabelValues(saxType).Inc()
}

// SaxophoneCreated counts a new catalog record
func (r *Recorder) SaxophoneCreated() {
	if r == nil {
		return
	}
	r.saxophonesCreated.Inc()
}

// InvitationIssued counts an invitation; resend distinguishes renewals
func (r *Recorder) InvitationIssued(resend bool) {
	if r == nil {
		return
	}
	kind := "new"
	if resend {
		kind = "resend"
	}
	r.invitationsIssued.WithLabelValues(kind).Inc()
}

// InvitationsExpired counts n persisted expiries
func (r *Recorder) InvitationsExpired(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.invitationsExpired.Add(float64(n))
}

// SignupCompleted counts a provisioned reviewer
func (r *Recorder) SignupCompleted() {
	if r == nil {
		return
	}
	r.signupsCompleted.Inc()
}
