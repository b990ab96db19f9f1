package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Payment outcome counters, exposed on /metrics. The outcome label matches
// the payment status written to the database.
var (
	PaymentAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickets_payment_attempts_total",
			Help: "Charge attempts by outcome (successful, failed, errored).",
		},
		[]string{"outcome"},
	)

	Refunds = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tickets_refunds_total",
			Help: "Completed invoice refunds.",
		},
	)

	MessagesHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickets_messages_handled_total",
			Help: "Messages processed by the router, by result.",
		},
		[]string{"result"},
	)
)
