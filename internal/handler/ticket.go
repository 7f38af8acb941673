package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/discount-platform/redemption-service/internal/codec"
	"github.com/discount-platform/redemption-service/internal/ledger"
	"github.com/discount-platform/redemption-service/internal/model"
	"github.com/discount-platform/redemption-service/internal/repository"
	"github.com/discount-platform/redemption-service/internal/service"
)

// TicketHandler exposes the ticket lifecycle over HTTP.  All methods assume
// JWT authentication and role validation already ran in middleware; the
// authenticated subject is read from the context and must agree with any
// identity the body claims, so a token for one wallet can never act for
// another.
type TicketHandler struct {
	Issuer *service.Issuer
	Gate   *service.Gate
}

// NewTicketHandler constructs a TicketHandler.  Both services must be non-nil.
func NewTicketHandler(issuer *service.Issuer, gate *service.Gate) *TicketHandler {
	if issuer == nil || gate == nil {
		panic("nil service passed to NewTicketHandler")
	}
	return &TicketHandler{Issuer: issuer, Gate: gate}
}

// Issue handles POST /v1/tickets.  The body carries the coupon to redeem,
// the expected merchant and optionally where the ticket was generated.
// On success it returns 201 with the ticket and the scannable payload.
func (h *TicketHandler) Issue(c echo.Context) error {
	subject, err := authenticatedSubject(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var body struct {
		OwnerID    string          `json:"owner_id"`
		CouponID   string          `json:"coupon_id"`
		MerchantID string          `json:"merchant_id"`
		Location   *model.Location `json:"location"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.CouponID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "coupon_id is required"})
	}
	if body.OwnerID != "" && body.OwnerID != subject {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "owner does not match token subject"})
	}

	ticket, payload, err := h.Issuer.Issue(c.Request().Context(), service.IssueInput{
		OwnerID:    subject,
		CouponID:   body.CouponID,
		MerchantID: body.MerchantID,
		Location:   body.Location,
	})
	if err != nil {
		return writeTicketError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"ticket":     ticket,
		"qr_payload": payload,
	})
}

// Consume handles POST /v1/tickets/consume.  The scanning merchant submits
// the payload read from the code; on success the response identifies what
// was redeemed so fulfillment can proceed at the counter.
func (h *TicketHandler) Consume(c echo.Context) error {
	subject, err := authenticatedSubject(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var body struct {
		Payload    string `json:"payload"`
		MerchantID string `json:"merchant_id"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Payload == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "payload is required"})
	}
	if body.MerchantID != "" && body.MerchantID != subject {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "merchant does not match token subject"})
	}

	res, err := h.Gate.Consume(c.Request().Context(), body.Payload, subject)
	if err != nil {
		return writeTicketError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"ticket_id":   res.TicketID,
		"coupon_id":   res.CouponID,
		"owner_id":    res.OwnerID,
		"merchant_id": res.MerchantID,
		"consumed_at": res.ConsumedAt,
	})
}

// Cancel handles POST /v1/tickets/:id/cancel.  Only the owner may cancel,
// and only while the ticket is still active.  Cancelling frees the coupon
// for a fresh ticket immediately.
func (h *TicketHandler) Cancel(c echo.Context) error {
	subject, err := authenticatedSubject(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ticketID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || ticketID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}

	ticket, err := h.Gate.Cancel(c.Request().Context(), subject, ticketID)
	if err != nil {
		return writeTicketError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"ticket": ticket})
}

// ListMine handles GET /v1/tickets.  It returns the authenticated owner's
// tickets, newest first, optionally filtered with ?status=.
func (h *TicketHandler) ListMine(c echo.Context) error {
	subject, err := authenticatedSubject(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	status, ok := statusFilter(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status filter"})
	}
	tickets, err := h.Issuer.ListByOwner(c.Request().Context(), subject, status)
	if err != nil {
		return writeTicketError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": tickets})
}

// ListForMerchant handles GET /v1/merchant/tickets, the merchant-side view
// of tickets issued against their coupons.
func (h *TicketHandler) ListForMerchant(c echo.Context) error {
	subject, err := authenticatedSubject(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	status, ok := statusFilter(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status filter"})
	}
	tickets, err := h.Issuer.ListByMerchant(c.Request().Context(), subject, status)
	if err != nil {
		return writeTicketError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": tickets})
}

// statusFilter reads the optional ?status= query parameter.  The empty
// string means no filter; anything else must be one of the four literals.
func statusFilter(c echo.Context) (model.Status, bool) {
	s := model.Status(c.QueryParam("status"))
	if s == "" || model.ValidStatus(s) {
		return s, true
	}
	return "", false
}

// authenticatedSubject pulls the token subject stored by the JWT middleware.
func authenticatedSubject(c echo.Context) (string, error) {
	if v, ok := c.Get("user_id").(string); ok && v != "" {
		return v, nil
	}
	return "", errors.New("no authenticated subject")
}

// writeTicketError maps the service and collaborator error taxonomy onto
// HTTP responses.  Store or ledger unavailability is the only retryable
// outcome and surfaces as 503.
func writeTicketError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, codec.ErrInvalidPayload):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
	case errors.Is(err, service.ErrInvalidLocation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid location coordinates"})
	case errors.Is(err, repository.ErrTicketNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
	case errors.Is(err, ledger.ErrCouponNotOwned):
		return c.JSON(http.StatusConflict, echo.Map{"error": "coupon not owned"})
	case errors.Is(err, ledger.ErrCouponNotRedeemable):
		return c.JSON(http.StatusConflict, echo.Map{"error": "coupon not redeemable"})
	case errors.Is(err, repository.ErrTicketAlreadyActive):
		return c.JSON(http.StatusConflict, echo.Map{"error": "ticket already active"})
	case errors.Is(err, service.ErrTamperedTicket):
		return c.JSON(http.StatusConflict, echo.Map{"error": "ticket digest mismatch"})
	case errors.Is(err, service.ErrTicketExpired), errors.Is(err, service.ErrAlreadyExpired):
		return c.JSON(http.StatusGone, echo.Map{"error": "ticket expired"})
	case errors.Is(err, service.ErrAlreadyConsumed):
		return c.JSON(http.StatusConflict, echo.Map{"error": "ticket already consumed"})
	case errors.Is(err, service.ErrAlreadyCancelled):
		return c.JSON(http.StatusConflict, echo.Map{"error": "ticket already cancelled"})
	case errors.Is(err, service.ErrTicketNotActive):
		return c.JSON(http.StatusConflict, echo.Map{"error": "ticket not active"})
	case errors.Is(err, service.ErrMerchantMismatch):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "merchant mismatch"})
	case errors.Is(err, service.ErrNotTicketOwner):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not ticket owner"})
	case errors.Is(err, ledger.ErrUnavailable), errors.Is(err, repository.ErrUnavailable):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "service unavailable"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
