package txsig

import (
	"crypto/ed25519"
	"fmt"

	"go.uber.org/multierr"

	"xdao.co/txauth/tx"
)

// Verify reports whether sig authenticates exactly t under pub.
//
// A well-formed transaction with a signature that does not verify returns
// (false, nil): a bad signature is an expected input, not a fault. A
// transaction that cannot be canonicalized returns KindMalformedTransaction
// before any cryptography runs, so callers can tell "not signed correctly"
// from "not well-formed".
func Verify(t tx.RawTransaction, pub ed25519.PublicKey, sig Signature) (bool, error) {
	msg, err := tx.Canonicalize(t)
	if err != nil {
		return false, wrapError(KindMalformedTransaction, "TXSIG-VER-001", "cannot verify transaction", err)
	}
	if len(pub) != ed25519.PublicKeySize {
		return false, newError(KindInvalidPublicKey, "TXSIG-VER-002", fmt.Sprintf("public key must be %d bytes, got %d", ed25519.PublicKeySize, len(pub)))
	}
	return ed25519.Verify(pub, msg, sig[:]), nil
}

// VerifyBatch verifies every envelope in items.
//
// results[i] is true only if items[i] verified. Errors for malformed items are
// combined, each prefixed with its index; well-formed items with bad
// signatures contribute false and no error.
func VerifyBatch(items []*SignedTransaction) (results []bool, err error) {
	results = make([]bool, len(items))
	for i, st := range items {
		ok, verr := st.Verify()
		if verr != nil {
			err = multierr.Append(err, fmt.Errorf("item %d: %w", i, verr))
			continue
		}
		results[i] = ok
	}
	return results, err
}
