// Package cidutil derives content identifiers for canonical bytes.
package cidutil

import (
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// Sum returns a CIDv1 using the "raw" multicodec and a sha2-256 multihash
// over data. Callers are responsible for supplying canonical bytes.
func Sum(data []byte) (cid.Cid, error) {
	mh, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, mh), nil
}

// Parse decodes s and checks that it has the shape produced by Sum.
func Parse(s string) (cid.Cid, error) {
	c, err := cid.Decode(s)
	if err != nil {
		return cid.Undef, err
	}
	if c.Version() != 1 || c.Type() != cid.Raw {
		return cid.Undef, fmt.Errorf("cidutil: expected CIDv1 raw, got %s", c)
	}
	dec, err := multihash.Decode(c.Hash())
	if err != nil {
		return cid.Undef, err
	}
	if dec.Code != multihash.SHA2_256 {
		return cid.Undef, fmt.Errorf("cidutil: expected sha2-256 multihash, got %s", multihash.Codes[dec.Code])
	}
	return c, nil
}

// Matches reports whether c is the Sum of data.
func Matches(c cid.Cid, data []byte) bool {
	want, err := Sum(data)
	if err != nil {
		return false
	}
	return c.Equals(want)
}
