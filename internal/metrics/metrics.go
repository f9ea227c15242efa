// Package metrics holds the prometheus collectors for list lifecycle events.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "easylist"

var (
	ListTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "list_transitions_total",
		Help:      "List lifecycle transitions by operation.",
	}, []string{"operation"})

	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Completion notifications by outcome.",
	}, []string{"outcome"})
)

// Operation labels
const (
	OpCreate   = "create"
	OpUpdate   = "update"
	OpShare    = "share"
	OpUnshare  = "unshare"
	OpCopy     = "copy"
	OpComplete = "complete"
	OpDelete   = "delete"
)

// Notification outcome labels
const (
	NotifySent    = "sent"
	NotifyFailed  = "failed"
	NotifyDropped = "dropped"
	NotifySkipped = "skipped"
)

func RecordTransition(op string) {
	ListTransitions.WithLabelValues(op).Inc()
}

func RecordNotification(outcome string) {
	Notifications.WithLabelValues(outcome).Inc()
}
