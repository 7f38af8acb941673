// Package queue contains the message payloads exchanged over the broker and
// the background consumer that reconciles consumed tickets with the ledger.
package queue

// ConsumedQueueName is the durable queue carrying ticket consumption events.
const ConsumedQueueName = "ticket.consumed"

// TicketConsumedEvent is published after a ticket transitions to consumed.
// It carries enough for the ledger reconciler to mark the coupon redeemed
// without reading the primary database.
type TicketConsumedEvent struct {
	TicketID   uint64 `json:"ticket_id"`
	CouponID   string `json:"coupon_id"`
	OwnerID    string `json:"owner_id"`
	MerchantID string `json:"merchant_id"`
	ConsumedAt string `json:"consumed_at"`
}
