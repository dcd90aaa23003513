package keys

import (
	"crypto"
	"crypto/ed25519"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
)

var (
	ErrNoKey      = errors.New("keys: no key material")
	ErrKeyLocked  = errors.New("keys: key is locked")
	ErrKeyRevoked = errors.New("keys: key is revoked")
)

const (
	stateActive int32 = iota
	stateLocked
	stateRevoked
)

// KeyPair is an in-memory Ed25519 key handle. It implements crypto.Signer.
//
// A handle can be locked (temporarily unusable) or revoked (permanently
// unusable); Sign then fails with ErrKeyLocked or ErrKeyRevoked. State
// changes are atomic, so a KeyPair may be shared between goroutines.
// A KeyPair must not be copied after first use.
type KeyPair struct {
	priv  ed25519.PrivateKey
	state atomic.Int32
}

// GenerateKeypair creates a new keypair from r, which must be a
// cryptographically secure source (normally crypto/rand.Reader).
func GenerateKeypair(r io.Reader) (*KeyPair, error) {
	if r == nil {
		return nil, errors.New("keys: nil randomness source")
	}
	_, priv, err := ed25519.GenerateKey(r)
	if err != nil {
		return nil, fmt.Errorf("keys: generate ed25519 key: %w", err)
	}
	return &KeyPair{priv: priv}, nil
}

// NewKeyPairFromSeed returns the keypair for a 32-byte Ed25519 seed.
func NewKeyPairFromSeed(seed []byte) (*KeyPair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("keys: seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	return &KeyPair{priv: ed25519.NewKeyFromSeed(seed)}, nil
}

// PublicKeyOf returns the public half of kp, or nil for a nil handle.
func PublicKeyOf(kp *KeyPair) ed25519.PublicKey {
	if kp == nil || len(kp.priv) == 0 {
		return nil
	}
	return append(ed25519.PublicKey(nil), kp.priv.Public().(ed25519.PublicKey)...)
}

// Public implements crypto.Signer.
func (kp *KeyPair) Public() crypto.PublicKey {
	pub := PublicKeyOf(kp)
	if pub == nil {
		return nil
	}
	return pub
}

// Sign implements crypto.Signer. With opts == crypto.Hash(0) it produces a
// pure Ed25519 signature over message.
func (kp *KeyPair) Sign(rand io.Reader, message []byte, opts crypto.SignerOpts) ([]byte, error) {
	if kp == nil || len(kp.priv) == 0 {
		return nil, ErrNoKey
	}
	switch kp.state.Load() {
	case stateLocked:
		return nil, ErrKeyLocked
	case stateRevoked:
		return nil, ErrKeyRevoked
	}
	return kp.priv.Sign(rand, message, opts)
}

// Lock makes the handle temporarily unusable. Locking a revoked key is a no-op.
func (kp *KeyPair) Lock() {
	kp.state.CompareAndSwap(stateActive, stateLocked)
}

// Unlock reverses Lock. It fails with ErrKeyRevoked once the key is revoked.
func (kp *KeyPair) Unlock() error {
	if kp.state.Load() == stateRevoked {
		return ErrKeyRevoked
	}
	kp.state.CompareAndSwap(stateLocked, stateActive)
	return nil
}

// Revoke makes the handle permanently unusable.
func (kp *KeyPair) Revoke() {
	kp.state.Store(stateRevoked)
}

// Seed returns a copy of the 32-byte seed, for persistence by a key store.
func (kp *KeyPair) Seed() []byte {
	if kp == nil || len(kp.priv) == 0 {
		return nil
	}
	return append([]byte(nil), kp.priv.Seed()...)
}
