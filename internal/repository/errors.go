// Package repository implements the durable ticket store over MySQL.  It
// defines the sentinel errors higher layers use to distinguish failure
// scenarios without inspecting driver errors themselves.
package repository

import "errors"

// ErrTicketNotFound is returned when no ticket exists for the given id.
var ErrTicketNotFound = errors.New("ticket not found")

// ErrTicketAlreadyActive is returned when inserting a ticket collides with
// the unique active-coupon index, i.e. the coupon already has a live ticket.
var ErrTicketAlreadyActive = errors.New("ticket already active for coupon")

// ErrUnavailable is returned when the store cannot answer in time: a
// context deadline, a connection failure or a driver timeout.  The caller
// may retry; nothing about the ticket state is known.
var ErrUnavailable = errors.New("ticket store unavailable")
