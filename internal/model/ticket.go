// Package model defines the persistence-facing domain types shared by the
// repository, service and handler layers.
package model

import "time"

// Status is the lifecycle state of a redemption ticket.  Transitions are
// forward-only: a ticket leaves Active exactly once and never returns.
type Status string

const (
	StatusActive    Status = "active"
	StatusConsumed  Status = "consumed"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the status is one a ticket can never leave.
func (s Status) Terminal() bool {
	return s == StatusConsumed || s == StatusExpired || s == StatusCancelled
}

// ValidStatus reports whether s is one of the four known status literals.
func ValidStatus(s Status) bool {
	switch s {
	case StatusActive, StatusConsumed, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

// Location records where a ticket was generated.  It is informational and
// kept for the audit trail; nothing in the redemption flow enforces it.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
}

// Ticket is a single-use, time-boxed redemption credential for a coupon.
// The hash binds (coupon, owner, nonce, issued_at) and is computed once at
// issuance; it is never recomputed afterwards.  Version backs the optimistic
// concurrency check on every status transition.
type Ticket struct {
	ID         uint64     `json:"id"`
	CouponID   string     `json:"coupon_id"`
	OwnerID    string     `json:"owner_id"`
	MerchantID string     `json:"merchant_id"`
	TicketHash []byte     `json:"-"`
	Nonce      uint64     `json:"-"`
	Status     Status     `json:"status"`
	IssuedAt   time.Time  `json:"issued_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	ConsumedAt *time.Time `json:"consumed_at,omitempty"`
	Location   *Location  `json:"location,omitempty"`
	Version    uint32     `json:"version"`
}

// ExpiredAt reports whether the ticket's validity window has passed at the
// given instant.  The window is inclusive of expires_at itself.
func (t *Ticket) ExpiredAt(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
