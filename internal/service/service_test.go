package service

// Shared test doubles: an in-memory TicketStore that reproduces the store's
// conditional-update and unique-active-coupon semantics faithfully enough to
// race goroutines against it, a canned ledger verifier, and a step clock.

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/discount-platform/redemption-service/internal/codec"
	"github.com/discount-platform/redemption-service/internal/ledger"
	"github.com/discount-platform/redemption-service/internal/model"
	"github.com/discount-platform/redemption-service/internal/repository"
)

type fakeStore struct {
	mu      sync.Mutex
	nextID  uint64
	tickets map[uint64]*model.Ticket

	createErr     error
	transitionErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{nextID: 1, tickets: map[uint64]*model.Ticket{}}
}

func (s *fakeStore) Create(ctx context.Context, t *model.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	if t.Status == model.StatusActive {
		for _, existing := range s.tickets {
			if existing.CouponID == t.CouponID && existing.Status == model.StatusActive {
				return repository.ErrTicketAlreadyActive
			}
		}
	}
	t.ID = s.nextID
	s.nextID++
	cp := *t
	s.tickets[t.ID] = &cp
	return nil
}

func (s *fakeStore) GetByID(ctx context.Context, id uint64) (*model.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok {
		return nil, repository.ErrTicketNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *fakeStore) Transition(ctx context.Context, id uint64, to model.Status, version uint32, consumedAt *time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.transitionErr != nil {
		return false, s.transitionErr
	}
	t, ok := s.tickets[id]
	if !ok || t.Status != model.StatusActive || t.Version != version {
		return false, nil
	}
	t.Status = to
	t.Version++
	if to == model.StatusConsumed && consumedAt != nil {
		at := consumedAt.UTC()
		t.ConsumedAt = &at
	}
	return true, nil
}

func (s *fakeStore) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, t := range s.tickets {
		if t.Status == model.StatusActive && t.ExpiresAt.Before(now) {
			t.Status = model.StatusExpired
			t.Version++
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) ListByOwner(ctx context.Context, ownerID string, status model.Status) ([]model.Ticket, error) {
	return s.list(func(t *model.Ticket) bool { return t.OwnerID == ownerID }, status)
}

func (s *fakeStore) ListByMerchant(ctx context.Context, merchantID string, status model.Status) ([]model.Ticket, error) {
	return s.list(func(t *model.Ticket) bool { return t.MerchantID == merchantID }, status)
}

func (s *fakeStore) list(match func(*model.Ticket) bool, status model.Status) ([]model.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Ticket, 0)
	for _, t := range s.tickets {
		if match(t) && (status == "" || t.Status == status) {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IssuedAt.After(out[j].IssuedAt) })
	return out, nil
}

// get returns the stored ticket without copying, for assertions.
func (s *fakeStore) get(id uint64) *model.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tickets[id]
}

type fakeVerifier struct {
	coupon ledger.Coupon
	err    error
}

func (v *fakeVerifier) VerifyOwnership(ctx context.Context, couponID, ownerID string) (ledger.Coupon, error) {
	if v.err != nil {
		return ledger.Coupon{}, v.err
	}
	return v.coupon, nil
}

// stepClock is a mutable clock for scenario tests.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStepClock(t time.Time) *stepClock { return &stepClock{now: t.UTC()} }

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testCodec() *codec.Codec {
	c, err := codec.New([]byte("service-test-secret"))
	if err != nil {
		panic(err)
	}
	return c
}
