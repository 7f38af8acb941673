// Package monitoring exposes prometheus metrics for the ticket lifecycle.
// Counters are registered with the default registry and served by the
// /metrics endpoint.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ticketsIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tickets_issued_total",
			Help: "Total redemption tickets issued",
		},
	)

	ticketsConsumed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tickets_consumed_total",
			Help: "Total tickets successfully consumed",
		},
	)

	ticketsCancelled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tickets_cancelled_total",
			Help: "Total tickets cancelled by their owner",
		},
	)

	ticketsSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tickets_swept_total",
			Help: "Total overdue tickets expired by the background sweeper",
		},
	)

	consumeRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_consume_rejections_total",
			Help: "Rejected consume attempts by reason",
		},
		[]string{"reason"},
	)
)

// TicketIssued records a successful issuance.
func TicketIssued() { ticketsIssued.Inc() }

// TicketConsumed records a successful consumption.
func TicketConsumed() { ticketsConsumed.Inc() }

// TicketCancelled records an owner cancellation.
func TicketCancelled() { ticketsCancelled.Inc() }

// TicketsSwept records tickets expired by one sweeper pass.
func TicketsSwept(n int64) { ticketsSwept.Add(float64(n)) }

// ConsumeRejected records a failed consume attempt with its reason label.
func ConsumeRejected(reason string) { consumeRejections.WithLabelValues(reason).Inc() }
