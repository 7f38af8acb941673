package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/discount-platform/redemption-service/internal/model"
)

// mysqlDupEntry is the MySQL error number for a unique key violation.
const mysqlDupEntry = 1062

// listLimit caps owner and merchant listings.
const listLimit = 100

// TicketRepo provides data access to the tickets table.  All timestamps are
// stored and compared in UTC.  Every state change goes through a conditional
// UPDATE guarded by (status, version); a zero-rows result means another
// caller won the transition and the ticket must not be touched again.
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo returns a TicketRepo bound to the provided database.
func NewTicketRepo(db *sql.DB) *TicketRepo {
	return &TicketRepo{db: db}
}

// wrap classifies a statement error.  Deadlines, dead connections and
// network timeouts become ErrUnavailable so the transport layer can answer
// with a retryable 503 instead of a generic 500.
func wrap(op string, err error) error {
	var ne net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		errors.Is(err, driver.ErrBadConn),
		errors.As(err, &ne) && ne.Timeout():
		return fmt.Errorf("%s: %w", op, errors.Join(ErrUnavailable, err))
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Create inserts a new ticket and populates t.ID.  The caller supplies every
// field except ID and the generated column; status should be active and
// version zero for a fresh ticket.  When the coupon already has an active
// ticket the unique index rejects the row and ErrTicketAlreadyActive is
// returned; uniqueness is never checked with a prior SELECT.
func (r *TicketRepo) Create(ctx context.Context, t *model.Ticket) error {
	const q = `INSERT INTO tickets
        (coupon_id, owner_id, merchant_id, ticket_hash, nonce, status,
         issued_at, expires_at, latitude, longitude, address, version)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	var lat, lon any
	var addr any
	if t.Location != nil {
		lat, lon = t.Location.Latitude, t.Location.Longitude
		if t.Location.Address != "" {
			addr = t.Location.Address
		}
	}
	res, err := r.db.ExecContext(ctx, q,
		t.CouponID, t.OwnerID, t.MerchantID, t.TicketHash, t.Nonce,
		string(t.Status), t.IssuedAt.UTC(), t.ExpiresAt.UTC(), lat, lon, addr, t.Version)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlDupEntry {
			return ErrTicketAlreadyActive
		}
		return wrap("insert ticket", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert ticket id: %w", err)
	}
	t.ID = uint64(id)
	return nil
}

// GetByID loads a single ticket.  Reads may be served by a replica; the
// authoritative state check happens inside the conditional update.
func (r *TicketRepo) GetByID(ctx context.Context, id uint64) (*model.Ticket, error) {
	const q = `SELECT id, coupon_id, owner_id, merchant_id, ticket_hash, nonce,
        status, issued_at, expires_at, consumed_at, latitude, longitude, address, version
        FROM tickets WHERE id = ?`
	t, err := scanTicket(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTicketNotFound
	}
	if err != nil {
		return nil, wrap("get ticket", err)
	}
	return t, nil
}

// Transition performs the conditional status update that every state change
// in the system funnels through:
//
//	UPDATE ... WHERE id = ? AND status = 'active' AND version = ?
//
// It returns false when zero rows were affected, meaning a concurrent
// transition won the race (or the caller held a stale read).  The caller
// must treat false as a terminal answer and never retry the transition.
// consumedAt is recorded only for the transition to consumed.
func (r *TicketRepo) Transition(ctx context.Context, id uint64, to model.Status, version uint32, consumedAt *time.Time) (bool, error) {
	if to == model.StatusActive || !model.ValidStatus(to) {
		return false, fmt.Errorf("transition to %q not allowed", to)
	}
	var at any
	if to == model.StatusConsumed {
		if consumedAt == nil {
			return false, errors.New("consumed transition requires consumedAt")
		}
		at = consumedAt.UTC()
	}
	const q = `UPDATE tickets
        SET status = ?, consumed_at = ?, version = version + 1
        WHERE id = ? AND status = 'active' AND version = ?`
	res, err := r.db.ExecContext(ctx, q, string(to), at, id, version)
	if err != nil {
		return false, wrap("transition ticket", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("transition ticket rows: %w", err)
	}
	return n == 1, nil
}

// ExpireOverdue marks every active ticket whose window has passed as
// expired, in one statement with the same status predicate the per-ticket
// transitions use.  It returns how many tickets were swept.
func (r *TicketRepo) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	const q = `UPDATE tickets
        SET status = 'expired', version = version + 1
        WHERE status = 'active' AND expires_at < ?`
	res, err := r.db.ExecContext(ctx, q, now.UTC())
	if err != nil {
		return 0, wrap("expire overdue", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expire overdue rows: %w", err)
	}
	return n, nil
}

// ListByOwner returns the owner's tickets, newest first.  An empty status
// returns tickets in every state.
func (r *TicketRepo) ListByOwner(ctx context.Context, ownerID string, status model.Status) ([]model.Ticket, error) {
	return r.list(ctx, "owner_id", ownerID, status)
}

// ListByMerchant returns the merchant's tickets, newest first.
func (r *TicketRepo) ListByMerchant(ctx context.Context, merchantID string, status model.Status) ([]model.Ticket, error) {
	return r.list(ctx, "merchant_id", merchantID, status)
}

func (r *TicketRepo) list(ctx context.Context, column, id string, status model.Status) ([]model.Ticket, error) {
	q := `SELECT id, coupon_id, owner_id, merchant_id, ticket_hash, nonce,
        status, issued_at, expires_at, consumed_at, latitude, longitude, address, version
        FROM tickets WHERE ` + column + ` = ?`
	args := []any{id}
	if status != "" {
		q += ` AND status = ?`
		args = append(args, string(status))
	}
	q += ` ORDER BY issued_at DESC LIMIT ?`
	args = append(args, listLimit)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, wrap("list tickets", err)
	}
	defer rows.Close()

	tickets := make([]model.Ticket, 0)
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("list tickets scan: %w", err)
		}
		tickets = append(tickets, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tickets rows: %w", err)
	}
	return tickets, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner) (*model.Ticket, error) {
	var (
		t          model.Ticket
		status     string
		consumedAt sql.NullTime
		lat, lon   sql.NullFloat64
		addr       sql.NullString
	)
	if err := row.Scan(&t.ID, &t.CouponID, &t.OwnerID, &t.MerchantID, &t.TicketHash,
		&t.Nonce, &status, &t.IssuedAt, &t.ExpiresAt, &consumedAt, &lat, &lon, &addr,
		&t.Version); err != nil {
		return nil, err
	}
	t.Status = model.Status(status)
	if consumedAt.Valid {
		at := consumedAt.Time.UTC()
		t.ConsumedAt = &at
	}
	if lat.Valid && lon.Valid {
		t.Location = &model.Location{
			Latitude:  lat.Float64,
			Longitude: lon.Float64,
			Address:   addr.String,
		}
	}
	t.IssuedAt = t.IssuedAt.UTC()
	t.ExpiresAt = t.ExpiresAt.UTC()
	return &t, nil
}
