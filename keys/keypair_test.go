package keys

import (
	"bytes"
	"crypto"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"sync"
	"testing"
)

type deterministicReader struct{ b byte }

func (r *deterministicReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = r.b
		r.b++
	}
	return len(p), nil
}

func TestGenerateKeypairFromSource(t *testing.T) {
	a, err := GenerateKeypair(&deterministicReader{})
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}
	b, err := GenerateKeypair(&deterministicReader{})
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}
	if !PublicKeyOf(a).Equal(PublicKeyOf(b)) {
		t.Fatalf("same randomness must yield the same keypair")
	}

	c, err := GenerateKeypair(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}
	if PublicKeyOf(a).Equal(PublicKeyOf(c)) {
		t.Fatalf("expected distinct keypairs")
	}

	if _, err := GenerateKeypair(nil); err == nil {
		t.Fatalf("expected nil reader to be rejected")
	}
}

func TestKeyPairSignsPureEd25519(t *testing.T) {
	kp, err := NewKeyPairFromSeed(bytes.Repeat([]byte{7}, ed25519.SeedSize))
	if err != nil {
		t.Fatalf("NewKeyPairFromSeed: %v", err)
	}
	var signer crypto.Signer = kp
	msg := []byte("hello")
	sig, err := signer.Sign(nil, msg, crypto.Hash(0))
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	pub, ok := signer.Public().(ed25519.PublicKey)
	if !ok {
		t.Fatalf("expected ed25519.PublicKey, got %T", signer.Public())
	}
	if !ed25519.Verify(pub, msg, sig) {
		t.Fatalf("signature did not verify")
	}
	if !bytes.Equal(kp.Seed(), bytes.Repeat([]byte{7}, ed25519.SeedSize)) {
		t.Fatalf("Seed did not return the construction seed")
	}
}

func TestKeyPairLockUnlockRevoke(t *testing.T) {
	kp, err := GenerateKeypair(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}

	kp.Lock()
	if _, err := kp.Sign(nil, []byte("m"), crypto.Hash(0)); !errors.Is(err, ErrKeyLocked) {
		t.Fatalf("expected ErrKeyLocked, got %v", err)
	}
	if err := kp.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if _, err := kp.Sign(nil, []byte("m"), crypto.Hash(0)); err != nil {
		t.Fatalf("Sign after unlock: %v", err)
	}

	kp.Revoke()
	kp.Lock()
	if err := kp.Unlock(); !errors.Is(err, ErrKeyRevoked) {
		t.Fatalf("expected ErrKeyRevoked from Unlock, got %v", err)
	}
	if _, err := kp.Sign(nil, []byte("m"), crypto.Hash(0)); !errors.Is(err, ErrKeyRevoked) {
		t.Fatalf("expected ErrKeyRevoked, got %v", err)
	}
	if PublicKeyOf(kp) == nil {
		t.Fatalf("revoked key must still expose its public key")
	}
}

func TestNilKeyPair(t *testing.T) {
	var kp *KeyPair
	if PublicKeyOf(kp) != nil {
		t.Fatalf("expected nil public key")
	}
	if kp.Public() != nil {
		t.Fatalf("expected nil crypto.PublicKey")
	}
	if _, err := kp.Sign(nil, []byte("m"), crypto.Hash(0)); !errors.Is(err, ErrNoKey) {
		t.Fatalf("expected ErrNoKey, got %v", err)
	}
	if _, err := NewKeyPairFromSeed([]byte{1}); err == nil {
		t.Fatalf("expected short seed to be rejected")
	}
}

func TestKeyPairConcurrentUse(t *testing.T) {
	kp, err := GenerateKeypair(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if i%2 == 0 {
					kp.Lock()
					_ = kp.Unlock()
					continue
				}
				sig, err := kp.Sign(nil, []byte{byte(j)}, crypto.Hash(0))
				if err != nil && !errors.Is(err, ErrKeyLocked) {
					t.Errorf("Sign: %v", err)
					return
				}
				if err == nil && !ed25519.Verify(PublicKeyOf(kp), []byte{byte(j)}, sig) {
					t.Errorf("signature did not verify")
					return
				}
			}
		}(i)
	}
	wg.Wait()
}
