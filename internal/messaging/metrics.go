package messaging

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesSentTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "messaging_messages_sent_total",
			Help: "Total number of messages persisted",
		},
	)

	conversationLoadsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "messaging_conversation_loads_total",
			Help: "Total number of conversation list aggregations",
		},
	)

	threadLoadsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "messaging_thread_loads_total",
			Help: "Total number of thread loads",
		},
	)

	markReadFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "messaging_mark_read_failures_total",
			Help: "Mark-read updates that failed and were deferred to the next load",
		},
	)

	activeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "messaging_ws_connections",
			Help: "Currently connected websocket clients",
		},
	)

	feedEventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "messaging_feed_events_dropped_total",
			Help: "Realtime feed events dropped because a subscriber was slow",
		},
	)
)
