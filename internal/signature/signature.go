// Package signature computes and checks tracker body signatures.
//
// A signature is base64(sha256("<time>|<md5 hex of body>|<shared secret>")).
// The collector receives the time and signature in the X-Hamustro-Time and
// X-Hamustro-Signature headers and recomputes the value from the raw body.
package signature

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"io"
	"strconv"
)

// DefaultTime is the signing timestamp used unless a caller overrides it.
const DefaultTime int64 = 1454514088

// Header names the collector reads the signing inputs from.
const (
	HeaderTime      = "X-Hamustro-Time"
	HeaderSignature = "X-Hamustro-Signature"
)

// ErrMismatch is returned when a signature does not match the body.
var ErrMismatch = errors.New("signature mismatch")

// Signer signs bodies with a fixed timestamp.
type Signer struct {
	Time int64
}

// New returns a Signer for t. A zero t selects DefaultTime.
func New(t int64) Signer {
	if t == 0 {
		t = DefaultTime
	}
	return Signer{Time: t}
}

// Timestamp returns the decimal form of the signing time, as sent in HeaderTime.
func (s Signer) Timestamp() string {
	return strconv.FormatInt(s.Time, 10)
}

// Sign returns the base64 signature of body.
func (s Signer) Sign(body []byte, secret string) string {
	return Compute(s.Timestamp(), body, secret)
}

// Verify checks sig against body signed at s.Time.
func (s Signer) Verify(body []byte, secret, sig string) error {
	return Verify(s.Timestamp(), body, secret, sig)
}

// Compute returns the signature for body using a raw timestamp string.
func Compute(timestamp string, body []byte, secret string) string {
	bodyHash := md5.Sum(body)

	h := sha256.New()
	io.WriteString(h, timestamp)
	io.WriteString(h, "|")
	io.WriteString(h, hex.EncodeToString(bodyHash[:]))
	io.WriteString(h, "|")
	io.WriteString(h, secret)

	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// Verify recomputes the signature and compares it in constant time.
func Verify(timestamp string, body []byte, secret, sig string) error {
	expected := Compute(timestamp, body, secret)
	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return ErrMismatch
	}
	return nil
}
