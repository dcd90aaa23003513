// Command txauth_vector_gen prints the conformance vector stored under
// testdata/conformance/tx/v1.
package main

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"time"

	"xdao.co/txauth/keys"
	"xdao.co/txauth/tx"
	"xdao.co/txauth/txsig"
)

func mustKeypair(seedByte byte) *keys.KeyPair {
	kp, err := keys.NewKeyPairFromSeed(bytes.Repeat([]byte{seedByte}, ed25519.SeedSize))
	if err != nil {
		panic(err)
	}
	return kp
}

func main() {
	kp := mustKeypair(0xA1)
	t := tx.RawTransaction{
		Version:   tx.Version1,
		Sender:    "alice",
		Recipient: "bob",
		Amount:    100,
		Nonce:     1,
		Timestamp: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	canon, err := tx.Canonicalize(t)
	if err != nil {
		panic(err)
	}
	id, err := tx.ID(t)
	if err != nil {
		panic(err)
	}
	st, err := txsig.Seal(t, kp)
	if err != nil {
		panic(err)
	}
	envelope, err := st.MarshalBinary()
	if err != nil {
		panic(err)
	}
	if ok, err := st.Verify(); err != nil || !ok {
		panic(fmt.Sprintf("vector does not verify: %v", err))
	}

	fmt.Printf("transfer_1.tx.hex       %s\n", hex.EncodeToString(canon))
	fmt.Printf("transfer_1.cid          %s\n", id)
	fmt.Printf("transfer_1.pub.hex      %s\n", hex.EncodeToString(keys.PublicKeyOf(kp)))
	fmt.Printf("transfer_1.sig.hex      %s\n", hex.EncodeToString(st.Signature[:]))
	fmt.Printf("transfer_1.envelope.hex %s\n", hex.EncodeToString(envelope))
}
