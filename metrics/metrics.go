// Package metrics exposes Prometheus collectors for the scoring pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LockAcquiresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rallydesk",
		Subsystem: "scorelock",
		Name:      "acquires_total",
		Help:      "Scoring lock acquisition attempts by outcome.",
	}, []string{"outcome"})

	LockRenewalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rallydesk",
		Subsystem: "scorelock",
		Name:      "renewals_total",
		Help:      "Scoring lock renewal attempts by outcome.",
	}, []string{"outcome"})

	LockReleasesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rallydesk",
		Subsystem: "scorelock",
		Name:      "releases_total",
		Help:      "Scoring lock releases.",
	})

	ScoreSubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rallydesk",
		Subsystem: "scoring",
		Name:      "submissions_total",
		Help:      "Score submissions by outcome.",
	}, []string{"outcome"})

	KnockoutGenerationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rallydesk",
		Subsystem: "draw",
		Name:      "knockout_generations_total",
		Help:      "Successful knockout bracket generations.",
	})

	SnapshotPublishesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rallydesk",
		Subsystem: "board",
		Name:      "snapshot_publishes_total",
		Help:      "Public board snapshot publishes by outcome.",
	}, []string{"outcome"})
)

const (
	OutcomeGranted  = "granted"
	OutcomeConflict = "conflict"
	OutcomeExpired  = "expired"
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
	OutcomeOK       = "ok"
)
