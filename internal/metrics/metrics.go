package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "eventplanner"

// Registry is the Prometheus registry for all metrics.
var Registry = prometheus.NewRegistry()

var (
	// SignupsTotal counts created accounts by role.
	SignupsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signups_total",
			Help:      "Total number of user signups",
		},
		[]string{"role"},
	)

	// LoginsTotal counts login attempts by outcome (success, failure).
	LoginsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Total number of login attempts",
		},
		[]string{"outcome"},
	)

	// EventsCreatedTotal counts created events.
	EventsCreatedTotal = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_created_total",
			Help:      "Total number of events created",
		},
	)

	// InvitesTotal counts usernames newly added to invited-sets.
	InvitesTotal = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invites_total",
			Help:      "Total number of users invited to events",
		},
	)

	// RSVPsTotal counts RSVP submissions by response.
	RSVPsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rsvps_total",
			Help:      "Total number of RSVP submissions",
		},
		[]string{"response"},
	)

	// InviteEmailsTotal counts invite notification attempts by outcome (sent, failed, skipped).
	InviteEmailsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invite_emails_total",
			Help:      "Total number of invite notification emails",
		},
		[]string{"outcome"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}
