package services

import "github.com/prometheus/client_golang/prometheus"

var (
	invitationsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invitations_created_total",
			Help: "Invitations persisted, by invitation type.",
		},
		[]string{"type"},
	)

	invitationsDeleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invitations_deleted_total",
			Help: "Invitations deleted, by reason.",
		},
		[]string{"reason"},
	)

	// cause is one of blocked, cooldown, invalid.
	invitationsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invitations_rejected_total",
			Help: "Create requests not persisted, by cause.",
		},
		[]string{"cause"},
	)

	stalePruned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "invitations_stale_pruned_total",
			Help: "Stale invitation ids removed from reverse indexes.",
		},
	)
)

func init() {
	prometheus.MustRegister(invitationsCreated, invitationsDeleted, invitationsRejected, stalePruned)
}
