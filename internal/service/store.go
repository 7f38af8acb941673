package service

import (
	"context"
	"time"

	"github.com/discount-platform/redemption-service/internal/model"
)

// TicketStore is the slice of the repository the services depend on.
// *repository.TicketRepo satisfies it; tests substitute an in-memory fake.
//
// Transition is the contract the whole subsystem leans on: it applies the
// status change only when the row still matches (status=active, version) and
// reports false otherwise.  A false return is an answer, not an error: the
// caller lost a race that some other caller won.
type TicketStore interface {
	Create(ctx context.Context, t *model.Ticket) error
	GetByID(ctx context.Context, id uint64) (*model.Ticket, error)
	Transition(ctx context.Context, id uint64, to model.Status, version uint32, consumedAt *time.Time) (bool, error)
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
	ListByOwner(ctx context.Context, ownerID string, status model.Status) ([]model.Ticket, error)
	ListByMerchant(ctx context.Context, merchantID string, status model.Status) ([]model.Ticket, error)
}
