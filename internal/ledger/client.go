package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/discount-platform/redemption-service/internal/clock"
)

// Client is the HTTP implementation of Verifier.  Every call carries its
// own timeout so a slow ledger surfaces as ErrUnavailable instead of a
// hanging request.
type Client struct {
	baseURL string
	token   string
	timeout time.Duration
	clk     clock.Clock
	hc      *http.Client
}

// NewClient builds a ledger client.  token may be empty when the ledger
// does not require authentication (local development).  A nil clk falls
// back to the system clock.
func NewClient(baseURL, token string, timeout time.Duration, clk clock.Clock) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		timeout: timeout,
		clk:     clk,
		hc:      &http.Client{Timeout: timeout},
	}
}

// VerifyOwnership asks the ledger whether ownerID currently owns couponID
// and whether the coupon is still redeemable.
func (c *Client) VerifyOwnership(ctx context.Context, couponID, ownerID string) (Coupon, error) {
	endpoint := fmt.Sprintf("%s/v1/coupons/%s?owner=%s",
		c.baseURL, url.PathEscape(couponID), url.QueryEscape(ownerID))

	var coupon Coupon
	status, err := c.getJSON(ctx, endpoint, &coupon)
	if err != nil {
		return Coupon{}, err
	}
	switch status {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusForbidden:
		return Coupon{}, ErrCouponNotOwned
	case http.StatusConflict, http.StatusGone:
		return Coupon{}, ErrCouponNotRedeemable
	default:
		return Coupon{}, fmt.Errorf("ledger: unexpected status %d: %w", status, ErrUnavailable)
	}

	if coupon.Owner != ownerID {
		return Coupon{}, ErrCouponNotOwned
	}
	if coupon.Redeemed {
		return Coupon{}, ErrCouponNotRedeemable
	}
	if !coupon.ExpiresAt.IsZero() && !coupon.ExpiresAt.After(c.clk.Now()) {
		return Coupon{}, ErrCouponNotRedeemable
	}
	return coupon, nil
}

// RedeemCoupon marks the coupon redeemed at the ledger.  The reconciliation
// consumer calls this after a ticket is consumed; the scan itself never
// waits on it.
func (c *Client) RedeemCoupon(ctx context.Context, couponID string) error {
	endpoint := fmt.Sprintf("%s/v1/coupons/%s/redeem", c.baseURL, url.PathEscape(couponID))

	body, err := json.Marshal(map[string]string{"redeemed_by": "redemption-service"})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("ledger: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("ledger: redeem coupon: %w", errors.Join(ErrUnavailable, err))
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusConflict:
		// Already redeemed on the ledger side; reconciliation converged.
		return nil
	default:
		return fmt.Errorf("ledger: redeem returned %d: %w", resp.StatusCode, ErrUnavailable)
	}
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("ledger: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	c.authorize(req)

	resp, err := c.hc.Do(req)
	if err != nil {
		return 0, fmt.Errorf("ledger: request: %w", errors.Join(ErrUnavailable, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return 0, fmt.Errorf("ledger: decode response: %w", err)
		}
		return resp.StatusCode, nil
	}
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
