package tx

import (
	"bytes"
	"math"
	"strings"
	"time"
	"unicode/utf8"
)

// Version1 is the only canonical encoding version currently defined.
const Version1 uint8 = 1

const (
	// MaxIdentityLen bounds Sender and Recipient, in bytes.
	MaxIdentityLen = 256
	// MaxPayloadLen bounds Payload, in bytes.
	MaxPayloadLen = 1 << 20
)

var (
	epoch        = time.Unix(0, 0)
	maxTimestamp = time.Unix(0, math.MaxInt64)
)

// RawTransaction is the unsigned transaction. Fields are listed in canonical
// order.
//
// All fields except Payload are required. Because an unset integer cannot be
// told apart from zero, a zero Amount, Nonce or Timestamp counts as missing.
// An empty Payload is a value, not an absence, and is always encoded.
type RawTransaction struct {
	Version   uint8
	Sender    string
	Recipient string
	Amount    uint64
	Nonce     uint64
	Timestamp time.Time
	Payload   []byte
}

// Validate checks every field against its domain without encoding.
func Validate(t RawTransaction) error {
	switch {
	case t.Version == 0:
		return missingField("TX-VER-001", "Version")
	case t.Version != Version1:
		return outOfDomain("TX-VER-002", "Version", "unsupported version")
	}
	if err := checkIdentity("TX-SND", "Sender", t.Sender); err != nil {
		return err
	}
	if err := checkIdentity("TX-RCP", "Recipient", t.Recipient); err != nil {
		return err
	}
	if t.Amount == 0 {
		return missingField("TX-AMT-001", "Amount")
	}
	if t.Nonce == 0 {
		return missingField("TX-NON-001", "Nonce")
	}
	if t.Timestamp.IsZero() {
		return missingField("TX-TS-001", "Timestamp")
	}
	if !t.Timestamp.After(epoch) || t.Timestamp.After(maxTimestamp) {
		return outOfDomain("TX-TS-002", "Timestamp", "must be after the Unix epoch and representable in int64 nanoseconds")
	}
	if len(t.Payload) > MaxPayloadLen {
		return outOfDomain("TX-PAY-001", "Payload", "exceeds maximum length")
	}
	return nil
}

func checkIdentity(rulePrefix, field, v string) error {
	switch {
	case v == "":
		return missingField(rulePrefix+"-001", field)
	case len(v) > MaxIdentityLen:
		return outOfDomain(rulePrefix+"-002", field, "exceeds maximum length")
	case !utf8.ValidString(v):
		return outOfDomain(rulePrefix+"-003", field, "must be valid UTF-8")
	case strings.ContainsRune(v, 0):
		return outOfDomain(rulePrefix+"-004", field, "must not contain NUL")
	}
	return nil
}

// Equal reports whether a and b are semantically equal, i.e. whether they
// canonicalize to the same bytes. Timestamps are compared as instants.
func Equal(a, b RawTransaction) bool {
	return a.Version == b.Version &&
		a.Sender == b.Sender &&
		a.Recipient == b.Recipient &&
		a.Amount == b.Amount &&
		a.Nonce == b.Nonce &&
		a.Timestamp.Equal(b.Timestamp) &&
		bytes.Equal(a.Payload, b.Payload)
}
