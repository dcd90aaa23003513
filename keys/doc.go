// Package keys is a reference key provider for txauth.
//
// The signing core only consumes a crypto.Signer handle and an
// ed25519.PublicKey; this package supplies both for tests, tools and the CLI.
//
// API stability:
//
// Stable:
//   - Keypair generation, public-key extraction and the ed25519:<base64> text form.
//   - Role-seed derivation (HKDF-SHA256).
//
// Experimental:
//   - Filesystem-backed key storage (KeyStore). It is a local-first utility and
//     not part of the transaction wire contract.
package keys
