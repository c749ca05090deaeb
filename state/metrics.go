package state

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var persistCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "editguard_state_snapshots_persisted",
	Help: "Number of state snapshots written",
})

var persistFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "editguard_state_snapshot_failures",
	Help: "Number of state snapshots that failed to write",
})
