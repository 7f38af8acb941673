// Package utils provides small helpers with no domain knowledge.
package utils

import (
	"crypto/rand"
	"encoding/binary"
)

// NewNonce returns a cryptographically random 64-bit nonce.  The nonce is
// folded into the ticket digest so that two tickets for the same coupon and
// owner never share a hash.
func NewNonce() (uint64, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}
