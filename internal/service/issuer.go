package service

import (
	"context"
	"time"

	"github.com/discount-platform/redemption-service/internal/clock"
	"github.com/discount-platform/redemption-service/internal/codec"
	"github.com/discount-platform/redemption-service/internal/ledger"
	"github.com/discount-platform/redemption-service/internal/model"
	"github.com/discount-platform/redemption-service/internal/monitoring"
	"github.com/discount-platform/redemption-service/internal/utils"
)

const defaultTicketTTL = 5 * time.Minute

// Issuer validates a redemption request against coupon ownership and creates
// a new active ticket.  The one-active-ticket-per-coupon invariant is not
// checked here; the store's unique index enforces it and Issue surfaces the
// collision as repository.ErrTicketAlreadyActive.
type Issuer struct {
	store  TicketStore
	ledger ledger.Verifier
	codec  *codec.Codec
	clock  clock.Clock
	ttl    time.Duration
}

// NewIssuer constructs an Issuer.  ttl <= 0 falls back to five minutes.
func NewIssuer(store TicketStore, verifier ledger.Verifier, cdc *codec.Codec, clk clock.Clock, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = defaultTicketTTL
	}
	return &Issuer{store: store, ledger: verifier, codec: cdc, clock: clk, ttl: ttl}
}

// IssueInput carries a redemption request.  MerchantID may be empty, in
// which case the coupon's merchant from the ledger is used; when set it must
// agree with the ledger or the request is rejected.
type IssueInput struct {
	OwnerID    string
	CouponID   string
	MerchantID string
	Location   *model.Location
}

// Issue creates and persists a new active ticket and returns it together
// with the scannable payload.  No ledger write happens here; the coupon is
// only marked redeemed after a successful scan, via reconciliation.
func (s *Issuer) Issue(ctx context.Context, in IssueInput) (*model.Ticket, string, error) {
	if in.Location != nil {
		if in.Location.Latitude < -90 || in.Location.Latitude > 90 ||
			in.Location.Longitude < -180 || in.Location.Longitude > 180 {
			return nil, "", ErrInvalidLocation
		}
	}

	coupon, err := s.ledger.VerifyOwnership(ctx, in.CouponID, in.OwnerID)
	if err != nil {
		return nil, "", err
	}
	merchantID := in.MerchantID
	if merchantID == "" {
		merchantID = coupon.Merchant
	} else if merchantID != coupon.Merchant {
		return nil, "", ErrMerchantMismatch
	}

	nonce, err := utils.NewNonce()
	if err != nil {
		return nil, "", err
	}

	// Whole seconds only: the digest hashes the unix timestamp, and the
	// stored issued_at must round-trip through the database to exactly the
	// instant that was hashed.  A fractional second would round in storage
	// and make a genuine ticket fail digest verification at scan time.
	now := s.clock.Now().Truncate(time.Second)
	t := &model.Ticket{
		CouponID:   in.CouponID,
		OwnerID:    in.OwnerID,
		MerchantID: merchantID,
		Nonce:      nonce,
		Status:     model.StatusActive,
		IssuedAt:   now,
		ExpiresAt:  now.Add(s.ttl),
		Location:   in.Location,
		Version:    0,
	}
	t.TicketHash = s.codec.Hash(t.CouponID, t.OwnerID, t.Nonce, t.IssuedAt)

	if err := s.store.Create(ctx, t); err != nil {
		return nil, "", err
	}

	payload, err := s.codec.Encode(t.ID, t.TicketHash)
	if err != nil {
		return nil, "", err
	}
	monitoring.TicketIssued()
	return t, payload, nil
}

// ListByOwner returns the owner's tickets, optionally filtered by status.
func (s *Issuer) ListByOwner(ctx context.Context, ownerID string, status model.Status) ([]model.Ticket, error) {
	return s.store.ListByOwner(ctx, ownerID, status)
}

// ListByMerchant returns the merchant's tickets, optionally filtered by status.
func (s *Issuer) ListByMerchant(ctx context.Context, merchantID string, status model.Status) ([]model.Ticket, error) {
	return s.store.ListByMerchant(ctx, merchantID, status)
}
