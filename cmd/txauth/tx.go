package main

import (
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"time"

	"xdao.co/txauth/keys"
	"xdao.co/txauth/tx"
	"xdao.co/txauth/txsig"
)

// txFlags collects the RawTransaction fields from the command line.
type txFlags struct {
	sender     string
	recipient  string
	amount     string
	nonce      string
	timestamp  string
	payload    string
	payloadHex string
}

func (f *txFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.sender, "sender", "", "Sender identity")
	fs.StringVar(&f.recipient, "recipient", "", "Recipient identity")
	fs.StringVar(&f.amount, "amount", "", "Amount (unsigned, non-zero)")
	fs.StringVar(&f.nonce, "nonce", "", "Nonce (unsigned, non-zero)")
	fs.StringVar(&f.timestamp, "timestamp", "", "RFC3339 timestamp (default: now, fixed at construction)")
	fs.StringVar(&f.payload, "payload", "", "Payload as text")
	fs.StringVar(&f.payloadHex, "payload-hex", "", "Payload as hex")
}

// build constructs the transaction. Field validation is left to
// tx.Canonicalize so the CLI reports the same rule IDs as the library.
func (f *txFlags) build(now func() time.Time) (tx.RawTransaction, error) {
	t := tx.RawTransaction{
		Version:   tx.Version1,
		Sender:    f.sender,
		Recipient: f.recipient,
	}
	var err error
	if f.amount != "" {
		if t.Amount, err = strconv.ParseUint(f.amount, 10, 64); err != nil {
			return t, fmt.Errorf("invalid --amount: %w", err)
		}
	}
	if f.nonce != "" {
		if t.Nonce, err = strconv.ParseUint(f.nonce, 10, 64); err != nil {
			return t, fmt.Errorf("invalid --nonce: %w", err)
		}
	}
	if f.timestamp != "" {
		if t.Timestamp, err = time.Parse(time.RFC3339Nano, f.timestamp); err != nil {
			return t, fmt.Errorf("invalid --timestamp: %w", err)
		}
	} else {
		t.Timestamp = now().UTC()
	}
	switch {
	case f.payload != "" && f.payloadHex != "":
		return t, errors.New("--payload and --payload-hex are mutually exclusive")
	case f.payloadHex != "":
		if t.Payload, err = hex.DecodeString(f.payloadHex); err != nil {
			return t, fmt.Errorf("invalid --payload-hex: %w", err)
		}
	case f.payload != "":
		t.Payload = []byte(f.payload)
	}
	return t, nil
}

// parseTxCommand parses the common and tx flags shared by canon, id and sign.
func parseTxCommand(name string, args []string, errOut io.Writer, extra func(*flag.FlagSet)) (*env, tx.RawTransaction, int) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(errOut)
	var common commonFlags
	var tf txFlags
	common.register(fs)
	tf.register(fs)
	if extra != nil {
		extra(fs)
	}
	if err := fs.Parse(args); err != nil {
		return nil, tx.RawTransaction{}, exitUsage
	}
	if fs.NArg() != 0 {
		fmt.Fprintf(errOut, "unexpected arguments: %v\n", fs.Args())
		return nil, tx.RawTransaction{}, exitUsage
	}
	e, err := common.resolve(name, errOut)
	if err != nil {
		fmt.Fprintf(errOut, "config: %v\n", err)
		return nil, tx.RawTransaction{}, exitUsage
	}
	t, err := tf.build(time.Now)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return nil, tx.RawTransaction{}, exitUsage
	}
	return e, t, exitOK
}

func reportMalformed(e *env, err error) int {
	e.log.WithError(err).WithField("rule", tx.RuleID(err)).Error("malformed transaction")
	return exitMalformed
}

func cmdCanon(args []string, out io.Writer, errOut io.Writer) int {
	e, t, code := parseTxCommand("canon", args, errOut, nil)
	if code != exitOK {
		return code
	}
	b, err := tx.Canonicalize(t)
	if err != nil {
		return reportMalformed(e, err)
	}
	e.log.WithField("bytes", len(b)).Debug("canonicalized transaction")
	_, _ = fmt.Fprintln(out, e.encode(b))
	return exitOK
}

func cmdID(args []string, out io.Writer, errOut io.Writer) int {
	e, t, code := parseTxCommand("id", args, errOut, nil)
	if code != exitOK {
		return code
	}
	id, err := tx.ID(t)
	if err != nil {
		return reportMalformed(e, err)
	}
	_, _ = fmt.Fprintln(out, id.String())
	return exitOK
}

func cmdSign(args []string, out io.Writer, errOut io.Writer) int {
	var seedHex, signer, signerRole, keyFile string
	e, t, code := parseTxCommand("sign", args, errOut, func(fs *flag.FlagSet) {
		fs.StringVar(&seedHex, "seed-hex", "", "Ed25519 seed as 64 hex chars")
		fs.StringVar(&signer, "signer", "", "Key store name")
		fs.StringVar(&signerRole, "signer-role", "", "Optional derived role of --signer")
		fs.StringVar(&keyFile, "key-file", "", "Path to a hex seed file")
	})
	if code != exitOK {
		return code
	}

	kp, err := loadSigner(e, seedHex, signer, signerRole, keyFile)
	if err != nil {
		e.log.WithError(err).Error("load signing key")
		return exitFailure
	}
	st, err := txsig.Seal(t, kp)
	switch {
	case txsig.IsKind(err, txsig.KindInvalidTransaction):
		return reportMalformed(e, err)
	case err != nil:
		e.log.WithError(err).WithField("rule", txsig.RuleID(err)).Error("sign transaction")
		return exitFailure
	}
	b, err := st.MarshalBinary()
	if err != nil {
		e.log.WithError(err).Error("encode envelope")
		return exitFailure
	}
	if id, err := st.ID(); err == nil {
		e.log.WithField("id", id.String()).Debug("signed transaction")
	}
	_, _ = fmt.Fprintln(out, e.encode(b))
	return exitOK
}

func parseEnvelopeCommand(name string, args []string, in io.Reader, errOut io.Writer, extra func(*flag.FlagSet)) (*env, *txsig.SignedTransaction, int) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(errOut)
	var common commonFlags
	common.register(fs)
	if extra != nil {
		extra(fs)
	}
	if err := fs.Parse(args); err != nil {
		return nil, nil, exitUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(errOut, "usage: txauth %s <envelope-file | ->\n", name)
		return nil, nil, exitUsage
	}
	e, err := common.resolve(name, errOut)
	if err != nil {
		fmt.Fprintf(errOut, "config: %v\n", err)
		return nil, nil, exitUsage
	}
	raw, err := readInput(fs.Arg(0), in)
	if err != nil {
		e.log.WithError(err).Error("read envelope")
		return nil, nil, exitFailure
	}
	b, err := e.decode(string(raw))
	if err != nil {
		e.log.WithError(err).WithField("encoding", e.cfg.Encoding).Error("decode envelope")
		return nil, nil, exitMalformed
	}
	st, err := txsig.ParseSigned(b)
	if err != nil {
		e.log.WithError(err).WithField("rule", txsig.RuleID(err)).Error("malformed envelope")
		return nil, nil, exitMalformed
	}
	return e, st, exitOK
}

func cmdVerify(args []string, in io.Reader, out io.Writer, errOut io.Writer) int {
	var pubFlag string
	e, st, code := parseEnvelopeCommand("verify", args, in, errOut, func(fs *flag.FlagSet) {
		fs.StringVar(&pubFlag, "pubkey", "", "Expected signer key (ed25519:<base64>); defaults to the envelope's key")
	})
	if code != exitOK {
		return code
	}

	pub := st.PublicKey
	if pubFlag != "" {
		var err error
		if pub, err = keys.ParsePublicKey(pubFlag); err != nil {
			fmt.Fprintf(errOut, "invalid --pubkey: %v\n", err)
			return exitUsage
		}
	}
	ok, err := txsig.Verify(st.Tx, pub, st.Signature)
	if err != nil {
		e.log.WithError(err).WithField("rule", txsig.RuleID(err)).Error("verify")
		return exitMalformed
	}
	id, _ := st.ID()
	if !ok {
		e.log.WithField("id", id.String()).Warn("signature rejected")
		_, _ = fmt.Fprintf(out, "INVALID %s\n", id)
		return exitFailure
	}
	_, _ = fmt.Fprintf(out, "OK %s\n", id)
	return exitOK
}

func cmdInspect(args []string, in io.Reader, out io.Writer, errOut io.Writer) int {
	_, st, code := parseEnvelopeCommand("inspect", args, in, errOut, nil)
	if code != exitOK {
		return code
	}
	id, _ := st.ID()
	signer, err := keys.EncodePublicKey(st.PublicKey)
	if err != nil {
		signer = hex.EncodeToString(st.PublicKey)
	}
	fmt.Fprintf(out, "id: %s\n", id)
	fmt.Fprintf(out, "version: %d\n", st.Tx.Version)
	fmt.Fprintf(out, "sender: %s\n", st.Tx.Sender)
	fmt.Fprintf(out, "recipient: %s\n", st.Tx.Recipient)
	fmt.Fprintf(out, "amount: %d\n", st.Tx.Amount)
	fmt.Fprintf(out, "nonce: %d\n", st.Tx.Nonce)
	fmt.Fprintf(out, "timestamp: %s\n", st.Tx.Timestamp.UTC().Format(time.RFC3339Nano))
	fmt.Fprintf(out, "payload: %s\n", hex.EncodeToString(st.Tx.Payload))
	fmt.Fprintf(out, "signer: %s\n", signer)
	fmt.Fprintf(out, "signature: %s\n", hex.EncodeToString(st.Signature[:]))
	return exitOK
}
