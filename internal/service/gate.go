package service

import (
	"context"
	"crypto/subtle"
	"log"
	"time"

	"github.com/discount-platform/redemption-service/internal/clock"
	"github.com/discount-platform/redemption-service/internal/codec"
	"github.com/discount-platform/redemption-service/internal/model"
	"github.com/discount-platform/redemption-service/internal/monitoring"
	"github.com/discount-platform/redemption-service/internal/queue"
)

// PublishFunc delivers a consumption event to the broker.  Publishing is
// best-effort: a broker outage never fails a scan, it only delays ledger
// reconciliation.
type PublishFunc func(ctx context.Context, ev queue.TicketConsumedEvent) error

// Gate is the consumption state machine.  It decides whether a given scan
// is allowed to succeed, exactly once.  There is no lock anywhere in this
// path; the store's conditional update is the sole arbiter of races.
type Gate struct {
	store   TicketStore
	codec   *codec.Codec
	clock   clock.Clock
	publish PublishFunc
}

// NewGate constructs a Gate.  publish may be nil to disable events (tests).
func NewGate(store TicketStore, cdc *codec.Codec, clk clock.Clock, publish PublishFunc) *Gate {
	return &Gate{store: store, codec: cdc, clock: clk, publish: publish}
}

// ConsumptionResult identifies what was redeemed, for fulfillment.
type ConsumptionResult struct {
	TicketID   uint64
	CouponID   string
	OwnerID    string
	MerchantID string
	ConsumedAt time.Time
}

// Consume validates the scanned payload and transitions the ticket from
// active to consumed.  The checks run in a fixed order so the caller always
// learns the most specific failure: payload shape, existence, integrity,
// status, expiry, merchant, and finally the conditional update.  When two
// scanners race, the update decides; the loser gets ErrAlreadyConsumed and
// nothing is retried.
func (g *Gate) Consume(ctx context.Context, payload, scannerMerchantID string) (*ConsumptionResult, error) {
	ticketID, digest, err := g.codec.Decode(payload)
	if err != nil {
		monitoring.ConsumeRejected("invalid_payload")
		return nil, err
	}

	t, err := g.store.GetByID(ctx, ticketID)
	if err != nil {
		monitoring.ConsumeRejected("not_found")
		return nil, err
	}

	// Re-derive the digest from stored fields instead of trusting the
	// stored hash column alone; a tampered row and a tampered payload are
	// indistinguishable and both must fail.  Constant-time comparison so
	// the scan endpoint leaks nothing about how close a forgery was.
	expected := g.codec.Hash(t.CouponID, t.OwnerID, t.Nonce, t.IssuedAt)
	if subtle.ConstantTimeCompare(expected, digest) != 1 {
		monitoring.ConsumeRejected("tampered")
		return nil, ErrTamperedTicket
	}

	if t.Status != model.StatusActive {
		err := terminalError(t.Status)
		monitoring.ConsumeRejected(string(t.Status))
		return nil, err
	}

	now := g.clock.Now()
	if t.ExpiredAt(now) {
		// Lazy expiry: record what we discovered, then report it.  If the
		// conditional update loses to the sweeper or another scanner the
		// outcome is the same, so the result is deliberately ignored.
		if _, err := g.store.Transition(ctx, t.ID, model.StatusExpired, t.Version, nil); err != nil {
			log.Printf("gate: lazy expiry of ticket %d failed: %v", t.ID, err)
		}
		monitoring.ConsumeRejected("expired")
		return nil, ErrTicketExpired
	}

	if scannerMerchantID != t.MerchantID {
		monitoring.ConsumeRejected("merchant_mismatch")
		return nil, ErrMerchantMismatch
	}

	ok, err := g.store.Transition(ctx, t.ID, model.StatusConsumed, t.Version, &now)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Another scan won between our read and the update.
		monitoring.ConsumeRejected("lost_race")
		return nil, ErrAlreadyConsumed
	}

	monitoring.TicketConsumed()
	g.emit(ctx, queue.TicketConsumedEvent{
		TicketID:   t.ID,
		CouponID:   t.CouponID,
		OwnerID:    t.OwnerID,
		MerchantID: t.MerchantID,
		ConsumedAt: now.Format(time.RFC3339),
	})

	return &ConsumptionResult{
		TicketID:   t.ID,
		CouponID:   t.CouponID,
		OwnerID:    t.OwnerID,
		MerchantID: t.MerchantID,
		ConsumedAt: now,
	}, nil
}

// Cancel lets the owner invalidate an active ticket, freeing the coupon for
// a fresh request.  It uses the same conditional update as Consume; a
// terminal ticket yields ErrTicketNotActive regardless of which transition
// got there first.
func (g *Gate) Cancel(ctx context.Context, ownerID string, ticketID uint64) (*model.Ticket, error) {
	t, err := g.store.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if t.OwnerID != ownerID {
		return nil, ErrNotTicketOwner
	}
	if t.Status != model.StatusActive {
		return nil, ErrTicketNotActive
	}

	ok, err := g.store.Transition(ctx, t.ID, model.StatusCancelled, t.Version, nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrTicketNotActive
	}
	monitoring.TicketCancelled()

	t.Status = model.StatusCancelled
	t.Version++
	return t, nil
}

func (g *Gate) emit(ctx context.Context, ev queue.TicketConsumedEvent) {
	if g.publish == nil {
		return
	}
	if err := g.publish(ctx, ev); err != nil {
		log.Printf("gate: publish consumed event for ticket %d failed: %v", ev.TicketID, err)
	}
}

func terminalError(s model.Status) error {
	switch s {
	case model.StatusConsumed:
		return ErrAlreadyConsumed
	case model.StatusExpired:
		return ErrAlreadyExpired
	case model.StatusCancelled:
		return ErrAlreadyCancelled
	default:
		return ErrTicketNotActive
	}
}
