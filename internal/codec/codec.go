// Package codec turns a ticket's identity fields into a tamper-evident
// digest and into the compact payload embedded in the scannable code.
//
// The payload deliberately carries only the ticket id and the digest.  The
// nonce, owner and merchant never leave the server in the clear, so a
// captured code cannot be replayed against a different ticket.
package codec

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"
)

// DigestSize is the length in bytes of every ticket digest.
const DigestSize = 32

// ErrInvalidPayload is returned when a scanned payload cannot be decoded
// into a (ticket id, digest) pair.  Decoding fails closed: a payload is
// either fully valid or rejected.
var ErrInvalidPayload = errors.New("invalid ticket payload")

// Codec computes keyed digests and encodes/decodes scan payloads.  The key
// must be shared by every instance of the service so a ticket issued by one
// replica verifies on another.
type Codec struct {
	key []byte
}

// New builds a Codec from the secret key.  blake2b accepts keys up to 64
// bytes; longer keys are rejected here rather than silently truncated.
func New(key []byte) (*Codec, error) {
	if len(key) == 0 {
		return nil, errors.New("codec: empty hash key")
	}
	if len(key) > 64 {
		return nil, errors.New("codec: hash key longer than 64 bytes")
	}
	return &Codec{key: key}, nil
}

// Hash derives the ticket digest from the fields fixed at issuance.  The
// same inputs always produce the same digest.  Fields are joined with an
// explicit separator and fixed-width encodings so distinct tuples can never
// collide by concatenation.
func (c *Codec) Hash(couponID, ownerID string, nonce uint64, issuedAt time.Time) []byte {
	h, err := blake2b.New256(c.key)
	if err != nil {
		// Key length is validated in New; blake2b only errors on bad keys.
		panic("codec: " + err.Error())
	}
	var buf [8]byte
	h.Write([]byte(couponID))
	h.Write([]byte{0})
	h.Write([]byte(ownerID))
	h.Write([]byte{0})
	binary.LittleEndian.PutUint64(buf[:], nonce)
	h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(issuedAt.Unix()))
	h.Write(buf[:])
	return h.Sum(nil)
}

// payload is the fixed wire schema of the scannable code.
type payload struct {
	TicketID uint64 `json:"ticket_id"`
	Digest   string `json:"digest"`
}

// Encode produces the base64 payload for a ticket id and digest.
func (c *Codec) Encode(ticketID uint64, digest []byte) (string, error) {
	if ticketID == 0 {
		return "", errors.New("codec: zero ticket id")
	}
	if len(digest) != DigestSize {
		return "", errors.New("codec: digest must be 32 bytes")
	}
	raw, err := json.Marshal(payload{TicketID: ticketID, Digest: hex.EncodeToString(digest)})
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// Decode is the strict inverse of Encode.  Any structural defect in the
// payload returns ErrInvalidPayload; nothing is ever partially parsed.
func (c *Codec) Decode(s string) (uint64, []byte, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return 0, nil, ErrInvalidPayload
	}
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.DisallowUnknownFields()
	var p payload
	if err := dec.Decode(&p); err != nil {
		return 0, nil, ErrInvalidPayload
	}
	// Trailing garbage after the JSON object is also a malformed payload.
	if dec.More() {
		return 0, nil, ErrInvalidPayload
	}
	if p.TicketID == 0 {
		return 0, nil, ErrInvalidPayload
	}
	digest, err := hex.DecodeString(p.Digest)
	if err != nil || len(digest) != DigestSize {
		return 0, nil, ErrInvalidPayload
	}
	return p.TicketID, digest, nil
}
