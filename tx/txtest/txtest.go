// Package txtest generates varied transactions for property tests.
package txtest

import (
	"math"
	"math/rand/v2"
	"time"
	"unicode/utf8"

	"xdao.co/txauth/tx"
)

const identityAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789-_.@"

// NewRand returns a deterministic generator so failures are reproducible.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// RandomTransaction returns a well-formed transaction with every field drawn
// from r.
func RandomTransaction(r *rand.Rand) tx.RawTransaction {
	payload := make([]byte, r.IntN(64))
	for i := range payload {
		payload[i] = byte(r.Uint32())
	}
	if len(payload) == 0 && r.IntN(2) == 0 {
		payload = nil
	}
	return tx.RawTransaction{
		Version:   tx.Version1,
		Sender:    randomIdentity(r),
		Recipient: randomIdentity(r),
		Amount:    1 + r.Uint64N(math.MaxUint64),
		Nonce:     1 + r.Uint64N(math.MaxUint64),
		Timestamp: time.Unix(0, 1+r.Int64N(math.MaxInt64)).UTC(),
		Payload:   payload,
	}
}

func randomIdentity(r *rand.Rand) string {
	b := make([]byte, 1+r.IntN(32))
	for i := range b {
		b[i] = identityAlphabet[r.IntN(len(identityAlphabet))]
	}
	s := string(b)
	if r.IntN(8) == 0 {
		s += "é"
	}
	return s
}

// Mutation is a copy of a transaction with exactly one field changed.
type Mutation struct {
	Field string
	Tx    tx.RawTransaction
}

// Mutations returns one well-formed variant of t per mutable field. Each
// variant differs from t in exactly that field.
func Mutations(t tx.RawTransaction) []Mutation {
	out := make([]Mutation, 0, 6)
	add := func(field string, f func(*tx.RawTransaction)) {
		m := t
		m.Payload = append([]byte(nil), t.Payload...)
		f(&m)
		out = append(out, Mutation{Field: field, Tx: m})
	}

	add("Sender", func(m *tx.RawTransaction) { m.Sender = mutateIdentity(m.Sender) })
	add("Recipient", func(m *tx.RawTransaction) { m.Recipient = mutateIdentity(m.Recipient) })
	add("Amount", func(m *tx.RawTransaction) { m.Amount = bump(m.Amount) })
	add("Nonce", func(m *tx.RawTransaction) { m.Nonce = bump(m.Nonce) })
	add("Timestamp", func(m *tx.RawTransaction) {
		if m.Timestamp.UnixNano() == math.MaxInt64 {
			m.Timestamp = m.Timestamp.Add(-time.Nanosecond)
			return
		}
		m.Timestamp = m.Timestamp.Add(time.Nanosecond)
	})
	add("Payload", func(m *tx.RawTransaction) {
		if len(m.Payload) >= tx.MaxPayloadLen {
			m.Payload = m.Payload[:len(m.Payload)-1]
			return
		}
		m.Payload = append(m.Payload, 0)
	})
	return out
}

func bump(v uint64) uint64 {
	if v == math.MaxUint64 {
		return 1
	}
	return v + 1
}

func mutateIdentity(s string) string {
	if len(s) < tx.MaxIdentityLen {
		return s + "x"
	}
	_, size := utf8.DecodeLastRuneInString(s)
	return s[:len(s)-size]
}
