package txsig

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"

	"github.com/ipfs/go-cid"

	"xdao.co/txauth/tx"
)

// EnvelopeMagic prefixes every encoded SignedTransaction.
const EnvelopeMagic = "XST1"

// SignedTransaction is a transaction together with its signature and the
// public key of its signer. It has no mutating methods: changing Tx after
// sealing makes Verify report false.
type SignedTransaction struct {
	Tx        tx.RawTransaction
	Signature Signature
	PublicKey ed25519.PublicKey
}

// Verify checks the envelope's signature against its own public key.
func (st *SignedTransaction) Verify() (bool, error) {
	if st == nil {
		return false, newError(KindMalformedTransaction, "TXSIG-VER-003", "nil signed transaction")
	}
	return Verify(st.Tx, st.PublicKey, st.Signature)
}

// ID returns the content identifier of the embedded transaction.
// The signature does not contribute, so the ID is stable across signers.
func (st *SignedTransaction) ID() (cid.Cid, error) {
	if st == nil {
		return cid.Undef, newError(KindMalformedTransaction, "TXSIG-VER-003", "nil signed transaction")
	}
	return tx.ID(st.Tx)
}

// MarshalBinary encodes the envelope:
//
//	"XST1" | len:uint32be | canonical tx | public key (32) | signature (64)
func (st *SignedTransaction) MarshalBinary() ([]byte, error) {
	if st == nil {
		return nil, newError(KindEncoding, "TXSIG-ENC-001", "nil signed transaction")
	}
	canon, err := tx.Canonicalize(st.Tx)
	if err != nil {
		return nil, wrapError(KindMalformedTransaction, "TXSIG-ENC-002", "cannot encode transaction", err)
	}
	if len(st.PublicKey) != ed25519.PublicKeySize {
		return nil, newError(KindInvalidPublicKey, "TXSIG-VER-002", "invalid public key length")
	}
	b := make([]byte, 0, len(EnvelopeMagic)+4+len(canon)+ed25519.PublicKeySize+SignatureSize)
	b = append(b, EnvelopeMagic...)
	b = binary.BigEndian.AppendUint32(b, uint32(len(canon)))
	b = append(b, canon...)
	b = append(b, st.PublicKey...)
	b = append(b, st.Signature[:]...)
	return b, nil
}

// UnmarshalBinary decodes an envelope produced by MarshalBinary.
func (st *SignedTransaction) UnmarshalBinary(b []byte) error {
	parsed, err := ParseSigned(b)
	if err != nil {
		return err
	}
	*st = *parsed
	return nil
}

// ParseSigned decodes an encoded envelope. It does not verify the signature.
//
// The embedded transaction must be canonical; envelopes with trailing bytes
// or wrong lengths are rejected with KindEncoding.
func ParseSigned(b []byte) (*SignedTransaction, error) {
	if !bytes.HasPrefix(b, []byte(EnvelopeMagic)) {
		return nil, newError(KindEncoding, "TXSIG-ENC-004", "missing envelope magic")
	}
	rest := b[len(EnvelopeMagic):]
	if len(rest) < 4 {
		return nil, newError(KindEncoding, "TXSIG-ENC-005", "truncated envelope")
	}
	n := uint64(binary.BigEndian.Uint32(rest))
	rest = rest[4:]
	if uint64(len(rest)) != n+ed25519.PublicKeySize+SignatureSize {
		return nil, newError(KindEncoding, "TXSIG-ENC-005", "envelope length mismatch")
	}

	t, err := tx.Parse(rest[:n])
	if err != nil {
		return nil, wrapError(KindMalformedTransaction, "TXSIG-ENC-006", "invalid embedded transaction", err)
	}
	rest = rest[n:]

	st := &SignedTransaction{
		Tx:        t,
		PublicKey: append(ed25519.PublicKey(nil), rest[:ed25519.PublicKeySize]...),
	}
	copy(st.Signature[:], rest[ed25519.PublicKeySize:])
	return st, nil
}
