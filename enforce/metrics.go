package enforce

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var editsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "editguard_edits_processed",
	Help: "Number of edited messages processed, by outcome",
}, []string{"outcome"})

var editsDeleted = promauto.NewCounter(prometheus.CounterOpts{
	Name: "editguard_edits_deleted",
	Help: "Number of edited messages deleted after the chat delay",
})

var arrivalsRemoved = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "editguard_arrivals_removed",
	Help: "Number of new messages removed from globally muted or banned users",
}, []string{"reason"})

var deleteFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "editguard_delete_failures",
	Help: "Number of message deletions that failed",
}, []string{"reason"})
