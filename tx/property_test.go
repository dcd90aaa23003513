package tx_test

import (
	"bytes"
	"testing"

	"xdao.co/txauth/tx"
	"xdao.co/txauth/tx/txtest"
)

func TestProperty_CanonicalizeParseIdentity(t *testing.T) {
	r := txtest.NewRand(1)
	for i := 0; i < 500; i++ {
		tr := txtest.RandomTransaction(r)
		b, err := tx.Canonicalize(tr)
		if err != nil {
			t.Fatalf("iteration %d: Canonicalize: %v", i, err)
		}
		back, err := tx.Parse(b)
		if err != nil {
			t.Fatalf("iteration %d: Parse: %v", i, err)
		}
		if !tx.Equal(tr, back) {
			t.Fatalf("iteration %d: round-trip mismatch", i)
		}
		again, err := tx.Canonicalize(back)
		if err != nil {
			t.Fatalf("iteration %d: Canonicalize(back): %v", i, err)
		}
		if !bytes.Equal(b, again) {
			t.Fatalf("iteration %d: canonical bytes changed after round-trip", i)
		}
	}
}

func TestProperty_EveryFieldChangesBytes(t *testing.T) {
	r := txtest.NewRand(2)
	for i := 0; i < 200; i++ {
		tr := txtest.RandomTransaction(r)
		base, err := tx.Canonicalize(tr)
		if err != nil {
			t.Fatalf("Canonicalize: %v", err)
		}
		for _, m := range txtest.Mutations(tr) {
			if tx.Equal(tr, m.Tx) {
				t.Fatalf("mutation of %s left the transaction equal", m.Field)
			}
			mb, err := tx.Canonicalize(m.Tx)
			if err != nil {
				t.Fatalf("mutation of %s is malformed: %v", m.Field, err)
			}
			if bytes.Equal(base, mb) {
				t.Fatalf("mutation of %s did not change canonical bytes", m.Field)
			}
		}
	}
}

func TestProperty_DistinctTransactionsDistinctBytes(t *testing.T) {
	r := txtest.NewRand(3)
	seen := make(map[string]tx.RawTransaction)
	for i := 0; i < 1000; i++ {
		tr := txtest.RandomTransaction(r)
		b, err := tx.Canonicalize(tr)
		if err != nil {
			t.Fatalf("Canonicalize: %v", err)
		}
		if prev, ok := seen[string(b)]; ok && !tx.Equal(prev, tr) {
			t.Fatalf("two different transactions share canonical bytes")
		}
		seen[string(b)] = tr
	}
}
