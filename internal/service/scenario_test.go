package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/discount-platform/redemption-service/internal/model"
)

// TestRedemptionLifecycle walks one coupon through redeem, a replayed scan,
// re-issue after consumption, and expiry of an unscanned ticket.
func TestRedemptionLifecycle(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	clk := newStepClock(testNow)
	verifier := &fakeVerifier{coupon: ownedCoupon()}
	issuer := NewIssuer(store, verifier, testCodec(), clk, 2*time.Minute)
	gate := NewGate(store, testCodec(), clk, nil)
	ctx := context.Background()

	// The owner requests a ticket and presents it within the window.
	first, payload, err := issuer.Issue(ctx, IssueInput{OwnerID: "owner-1", CouponID: "coupon-1"})
	require.NoError(t, err)

	clk.Advance(30 * time.Second)
	res, err := gate.Consume(ctx, payload, "merchant-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, res.TicketID)

	// The merchant's device replays the scan.
	_, err = gate.Consume(ctx, payload, "merchant-1")
	assert.ErrorIs(t, err, ErrAlreadyConsumed)

	// With the first ticket terminal, the coupon accepts a new ticket.
	second, payload2, err := issuer.Issue(ctx, IssueInput{OwnerID: "owner-1", CouponID: "coupon-1"})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, model.StatusActive, store.get(second.ID).Status)

	// The owner sits on it past the window; the scan discovers the expiry.
	clk.Advance(2*time.Minute + time.Second)
	_, err = gate.Consume(ctx, payload2, "merchant-1")
	assert.ErrorIs(t, err, ErrTicketExpired)
	assert.Equal(t, model.StatusExpired, store.get(second.ID).Status)

	// Owner history shows every ticket this coupon went through.
	all, err := issuer.ListByOwner(ctx, "owner-1", "")
	require.NoError(t, err)
	require.Len(t, all, 2)

	consumed, err := issuer.ListByOwner(ctx, "owner-1", model.StatusConsumed)
	require.NoError(t, err)
	require.Len(t, consumed, 1)
	assert.Equal(t, first.ID, consumed[0].ID)
}
