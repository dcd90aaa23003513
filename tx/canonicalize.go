package tx

import (
	"bytes"
	"encoding/binary"
	"time"

	"github.com/ipfs/go-cid"

	"xdao.co/txauth/cidutil"
)

// Magic prefixes every canonical transaction.
const Magic = "XTX1"

const (
	tagSender    byte = 0x02
	tagRecipient byte = 0x03
	tagAmount    byte = 0x04
	tagNonce     byte = 0x05
	tagTimestamp byte = 0x06
	tagPayload   byte = 0x07
)

// Canonicalize renders t into its canonical byte encoding.
//
// It is pure: the result depends only on t. Validation runs first, so a
// malformed transaction never yields partial output.
func Canonicalize(t RawTransaction) ([]byte, error) {
	if err := Validate(t); err != nil {
		return nil, err
	}

	n := len(Magic) + 1 +
		1 + 4 + len(t.Sender) +
		1 + 4 + len(t.Recipient) +
		3*(1+8) +
		1 + 4 + len(t.Payload)
	b := make([]byte, 0, n)

	b = append(b, Magic...)
	b = append(b, t.Version)
	b = appendBytes(b, tagSender, []byte(t.Sender))
	b = appendBytes(b, tagRecipient, []byte(t.Recipient))
	b = appendUint64(b, tagAmount, t.Amount)
	b = appendUint64(b, tagNonce, t.Nonce)
	b = appendUint64(b, tagTimestamp, uint64(t.Timestamp.UnixNano()))
	b = appendBytes(b, tagPayload, t.Payload)
	return b, nil
}

func appendBytes(b []byte, tag byte, v []byte) []byte {
	b = append(b, tag)
	b = binary.BigEndian.AppendUint32(b, uint32(len(v)))
	return append(b, v...)
}

func appendUint64(b []byte, tag byte, v uint64) []byte {
	b = append(b, tag)
	return binary.BigEndian.AppendUint64(b, v)
}

// Parse decodes canonical transaction bytes.
//
// Non-canonical input is rejected: the magic, version, tag order and lengths
// must match exactly, no trailing bytes are allowed, and every decoded field
// must be within its domain. For any accepted b, Canonicalize(Parse(b)) == b.
func Parse(b []byte) (RawTransaction, error) {
	var t RawTransaction
	if !bytes.HasPrefix(b, []byte(Magic)) {
		return t, encodingError("TX-ENC-001", "missing transaction magic")
	}
	d := decoder{buf: b, off: len(Magic)}

	version, err := d.readByte()
	if err != nil {
		return t, err
	}
	if version != Version1 {
		return t, outOfDomain("TX-VER-002", "Version", "unsupported version")
	}
	t.Version = version

	sender, err := d.readBytes(tagSender, MaxIdentityLen)
	if err != nil {
		return t, err
	}
	recipient, err := d.readBytes(tagRecipient, MaxIdentityLen)
	if err != nil {
		return t, err
	}
	t.Sender, t.Recipient = string(sender), string(recipient)

	if t.Amount, err = d.readUint64(tagAmount); err != nil {
		return t, err
	}
	if t.Nonce, err = d.readUint64(tagNonce); err != nil {
		return t, err
	}
	ts, err := d.readUint64(tagTimestamp)
	if err != nil {
		return t, err
	}
	if int64(ts) <= 0 {
		return t, outOfDomain("TX-TS-002", "Timestamp", "must be after the Unix epoch and representable in int64 nanoseconds")
	}
	t.Timestamp = time.Unix(0, int64(ts)).UTC()

	if t.Payload, err = d.readBytes(tagPayload, MaxPayloadLen); err != nil {
		return t, err
	}
	if d.off != len(d.buf) {
		return t, encodingError("TX-ENC-005", "trailing bytes after transaction")
	}
	if err := Validate(t); err != nil {
		return t, err
	}
	return t, nil
}

type decoder struct {
	buf []byte
	off int
}

func (d *decoder) take(n int) ([]byte, error) {
	if n < 0 || len(d.buf)-d.off < n {
		return nil, encodingError("TX-ENC-004", "truncated transaction")
	}
	v := d.buf[d.off : d.off+n]
	d.off += n
	return v, nil
}

func (d *decoder) readByte() (byte, error) {
	v, err := d.take(1)
	if err != nil {
		return 0, err
	}
	return v[0], nil
}

func (d *decoder) expectTag(want byte) error {
	got, err := d.readByte()
	if err != nil {
		return err
	}
	if got != want {
		return encodingError("TX-ENC-003", "unexpected field tag")
	}
	return nil
}

func (d *decoder) readUint64(tag byte) (uint64, error) {
	if err := d.expectTag(tag); err != nil {
		return 0, err
	}
	v, err := d.take(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(v), nil
}

func (d *decoder) readBytes(tag byte, limit int) ([]byte, error) {
	if err := d.expectTag(tag); err != nil {
		return nil, err
	}
	lb, err := d.take(4)
	if err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lb)
	if uint64(n) > uint64(limit) {
		return nil, encodingError("TX-ENC-006", "field length exceeds limit")
	}
	v, err := d.take(int(n))
	if err != nil {
		return nil, err
	}
	// Copy so the decoded transaction never aliases the caller's buffer.
	return append([]byte(nil), v...), nil
}

// ID returns the content identifier of t: a CIDv1 (raw + sha2-256) over its
// canonical bytes.
func ID(t RawTransaction) (cid.Cid, error) {
	canon, err := Canonicalize(t)
	if err != nil {
		return cid.Undef, err
	}
	return cidutil.Sum(canon)
}
