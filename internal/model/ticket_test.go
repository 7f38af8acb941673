package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatus(t *testing.T) {
	assert.False(t, StatusActive.Terminal())
	assert.True(t, StatusConsumed.Terminal())
	assert.True(t, StatusExpired.Terminal())
	assert.True(t, StatusCancelled.Terminal())

	assert.True(t, ValidStatus(StatusActive))
	assert.False(t, ValidStatus(Status("")))
	assert.False(t, ValidStatus(Status("refunded")))
}

func TestExpiredAtBoundary(t *testing.T) {
	expires := time.Date(2025, 6, 1, 12, 5, 0, 0, time.UTC)
	ticket := &Ticket{ExpiresAt: expires}

	assert.False(t, ticket.ExpiredAt(expires.Add(-time.Second)))
	assert.False(t, ticket.ExpiredAt(expires), "still valid at the exact boundary")
	assert.True(t, ticket.ExpiredAt(expires.Add(time.Millisecond)))
}
