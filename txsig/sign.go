// Package txsig signs and verifies transactions with Ed25519 (RFC 8032) over
// their canonical encoding.
//
// Sign and Verify share tx.Canonicalize, so both sides always agree on the
// signed message. Neither holds state; both are safe for concurrent use.
package txsig

import (
	"crypto"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"xdao.co/txauth/tx"
)

// SignatureSize is the length of an Ed25519 signature.
const SignatureSize = ed25519.SignatureSize

// Signature is an Ed25519 signature over canonical transaction bytes.
type Signature [SignatureSize]byte

// SignatureFromBytes copies b into a Signature.
func SignatureFromBytes(b []byte) (Signature, error) {
	var s Signature
	if len(b) != SignatureSize {
		return s, newError(KindEncoding, "TXSIG-ENC-003", fmt.Sprintf("signature must be %d bytes, got %d", SignatureSize, len(b)))
	}
	copy(s[:], b)
	return s, nil
}

// Bytes returns a copy of the signature as a slice.
func (s Signature) Bytes() []byte {
	return append([]byte(nil), s[:]...)
}

// Sign signs the canonical encoding of t with key.
//
// key is a private-key handle supplied by a key provider; its Public method
// must return an ed25519.PublicKey. ed25519.PrivateKey satisfies this, as do
// remote or hardware-backed handles. Handle failures are passed through as
// KindKeyUnavailable and are never retried here.
//
// The transaction is canonicalized before the handle is touched: a malformed
// transaction fails with KindInvalidTransaction and nothing is signed.
func Sign(t tx.RawTransaction, key crypto.Signer) (Signature, error) {
	var sig Signature
	msg, err := tx.Canonicalize(t)
	if err != nil {
		return sig, wrapError(KindInvalidTransaction, "TXSIG-TX-001", "cannot sign transaction", err)
	}
	if key == nil {
		return sig, newError(KindKeyUnavailable, "TXSIG-KEY-001", "no signing key")
	}
	if _, err := ed25519PublicKey(key); err != nil {
		return sig, err
	}

	// crypto.Hash(0) selects pure Ed25519; the reader is ignored by Ed25519.
	raw, err := key.Sign(rand.Reader, msg, crypto.Hash(0))
	if err != nil {
		return sig, wrapError(KindKeyUnavailable, "TXSIG-KEY-003", "signing key unavailable", err)
	}
	if len(raw) != SignatureSize {
		return sig, newError(KindKeyUnavailable, "TXSIG-KEY-004", fmt.Sprintf("key produced a %d-byte signature", len(raw)))
	}
	copy(sig[:], raw)
	return sig, nil
}

func ed25519PublicKey(key crypto.Signer) (ed25519.PublicKey, error) {
	pub, ok := key.Public().(ed25519.PublicKey)
	if !ok || len(pub) != ed25519.PublicKeySize {
		return nil, newError(KindKeyUnavailable, "TXSIG-KEY-002", "signing key is not an Ed25519 key")
	}
	return pub, nil
}

// Seal signs t and bundles it with the signature and the signer's public key.
func Seal(t tx.RawTransaction, key crypto.Signer) (*SignedTransaction, error) {
	sig, err := Sign(t, key)
	if err != nil {
		return nil, err
	}
	pub, err := ed25519PublicKey(key)
	if err != nil {
		return nil, err
	}
	return &SignedTransaction{
		Tx:        t,
		Signature: sig,
		PublicKey: append(ed25519.PublicKey(nil), pub...),
	}, nil
}
