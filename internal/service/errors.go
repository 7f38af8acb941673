// Package service implements the ticket lifecycle: issuance, the consumption
// state machine, cancellation and background expiry.  Handlers stay thin and
// translate the sentinel errors defined here into HTTP responses.
package service

import "errors"

var (
	// ErrTamperedTicket means the digest in the scanned payload does not
	// match the digest re-derived from the stored ticket.  This is a hard
	// rejection, never retried.
	ErrTamperedTicket = errors.New("ticket digest mismatch")

	// ErrTicketExpired means the validity window passed before the scan.
	// The ticket is moved to expired as a side effect of detection.
	ErrTicketExpired = errors.New("ticket expired")

	// ErrAlreadyConsumed covers both a scan of a consumed ticket and the
	// loser of a concurrent consume race.
	ErrAlreadyConsumed = errors.New("ticket already consumed")

	// ErrAlreadyExpired means the ticket was already marked expired before
	// this scan (by the sweeper or an earlier lazy detection).
	ErrAlreadyExpired = errors.New("ticket already expired")

	// ErrAlreadyCancelled means the owner invalidated the ticket.
	ErrAlreadyCancelled = errors.New("ticket already cancelled")

	// ErrTicketNotActive is the generic terminal-state answer for
	// operations that require an active ticket (cancel).
	ErrTicketNotActive = errors.New("ticket not active")

	// ErrMerchantMismatch means the scanning merchant is not the merchant
	// the ticket was issued for.
	ErrMerchantMismatch = errors.New("merchant mismatch")

	// ErrNotTicketOwner means a cancel request came from someone other
	// than the ticket's owner.
	ErrNotTicketOwner = errors.New("not ticket owner")

	// ErrInvalidLocation means the supplied generation location is outside
	// valid coordinate ranges.
	ErrInvalidLocation = errors.New("invalid location coordinates")
)
