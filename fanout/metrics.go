package fanout

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var chatActions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "editguard_fanout_chat_actions",
	Help: "Number of per-chat actions taken by global operations, by op and result",
}, []string{"op", "result"})
