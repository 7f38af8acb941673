// Package ledger talks to the external coupon ledger, the system of record
// for coupon ownership and redemption (minting, transfer and burning happen
// there, not here).  This service only asks two questions: "may this owner
// redeem this coupon?" at issue time, and "mark it redeemed" during
// out-of-band reconciliation after a successful scan.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrCouponNotOwned is returned when the coupon does not exist or is not
// currently owned by the requesting user.
var ErrCouponNotOwned = errors.New("coupon not owned by user")

// ErrCouponNotRedeemable is returned when the coupon is owned but cannot be
// redeemed: it was already redeemed or has passed its own expiry.
var ErrCouponNotRedeemable = errors.New("coupon not redeemable")

// ErrUnavailable is returned when the ledger cannot be reached in time.
// Callers may retry; the error carries no partial state.
var ErrUnavailable = errors.New("ledger unavailable")

// Coupon is the ledger's view of a coupon, reduced to the fields this
// service needs.
type Coupon struct {
	ID              string          `json:"id"`
	Owner           string          `json:"owner"`
	Merchant        string          `json:"merchant"`
	Redeemed        bool            `json:"redeemed"`
	ExpiresAt       time.Time       `json:"expires_at"`
	DiscountPercent uint8           `json:"discount_percent"`
	FaceValue       decimal.Decimal `json:"face_value"`
}

// Verifier answers the ownership question at ticket issue time.
type Verifier interface {
	// VerifyOwnership returns the coupon when ownerID may redeem couponID,
	// ErrCouponNotOwned or ErrCouponNotRedeemable otherwise.
	VerifyOwnership(ctx context.Context, couponID, ownerID string) (Coupon, error)
}
