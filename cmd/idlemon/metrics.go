package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricCommandsHandled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "idlemon_commands_handled_total",
		Help: "Inbound commands handled, by command keyword.",
	}, []string{"command"})

	metricNotificationsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "idlemon_notifications_sent_total",
		Help: "Text messages successfully handed to the delivery provider.",
	})

	metricDeliveryFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "idlemon_delivery_failures_total",
		Help: "Text message sends that failed (best-effort, not retried).",
	})

	metricLoopTicks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "idlemon_loop_ticks_total",
		Help: "Monitor loop ticks.",
	})

	metricUpdatesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "idlemon_updates_received_total",
		Help: "Fresh idle reports accepted on /update.",
	})
)
