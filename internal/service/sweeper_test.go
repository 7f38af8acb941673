package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/discount-platform/redemption-service/internal/model"
)

func TestSweeperSweepOnce(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	clk := newStepClock(testNow)

	overdue, _ := issueTicket(t, store, clk, time.Minute)

	clk.Advance(90 * time.Second)

	// Issued after the advance, so still well inside its window.
	second := ownedCoupon()
	second.ID = "coupon-2"
	issuer := NewIssuer(store, &fakeVerifier{coupon: second}, testCodec(), clk, time.Minute)
	fresh, _, err := issuer.Issue(context.Background(), IssueInput{OwnerID: "owner-1", CouponID: "coupon-2"})
	require.NoError(t, err)

	sweeper := NewSweeper(store, clk, 0)
	require.NoError(t, sweeper.SweepOnce(context.Background()))

	assert.Equal(t, model.StatusExpired, store.get(overdue.ID).Status)
	assert.Equal(t, model.StatusActive, store.get(fresh.ID).Status)

	// Idempotent: a second sweep finds nothing left to expire.
	require.NoError(t, sweeper.SweepOnce(context.Background()))
	assert.Equal(t, model.StatusExpired, store.get(overdue.ID).Status)
}

func TestSweeperRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	sweeper := NewSweeper(newFakeStore(), newStepClock(testNow), time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancellation")
	}
}
