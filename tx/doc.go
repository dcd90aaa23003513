// Package tx defines the transaction record that is signed and its canonical
// byte encoding.
//
// The canonical encoding is the wire-compatibility contract: two systems agree
// on "what was signed" only if they produce identical bytes. Field order,
// widths and endianness are fixed by this package:
//
//	magic      "XTX1"                                 4 bytes
//	version    uint8                                  1 byte
//	0x02 len:uint32be sender                          UTF-8, 1..256 bytes
//	0x03 len:uint32be recipient                       UTF-8, 1..256 bytes
//	0x04 amount:uint64be                              non-zero
//	0x05 nonce:uint64be                               non-zero
//	0x06 timestamp:int64be                            Unix nanoseconds, > 0
//	0x07 len:uint32be payload                         0..1 MiB
//
// Canonicalize is the single choke point for producing signing messages;
// signing and verification both go through it.
package tx
