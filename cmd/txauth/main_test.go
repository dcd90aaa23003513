package main

import (
	"bytes"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"xdao.co/txauth/internal/config"
)

const (
	vectorSeedHex = "a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1"
	vectorPubKey  = "ed25519:vHy8tWNjdfodgkNNRmck2SN39TuYBpXdSdJtDOEiBaU="
)

var vectorRoot = filepath.Join("..", "..", "testdata", "conformance", "tx", "v1")

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{config.EnvKeysDir, config.EnvLogLevel, config.EnvEncoding} {
		t.Setenv(k, "")
	}
}

func runCmd(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := run(args, strings.NewReader(stdin), &out, &errOut)
	return code, out.String(), errOut.String()
}

func readVector(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(vectorRoot, name))
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return strings.TrimSpace(string(b))
}

var aliceToBobFlags = []string{
	"--sender", "alice",
	"--recipient", "bob",
	"--amount", "100",
	"--nonce", "1",
	"--timestamp", "2024-01-02T03:04:05Z",
}

func TestRun_Usage(t *testing.T) {
	clearEnv(t)
	if code, _, _ := runCmd(t, ""); code != exitUsage {
		t.Fatalf("expected usage exit, got %d", code)
	}
	if code, _, _ := runCmd(t, "", "frobnicate"); code != exitUsage {
		t.Fatalf("expected usage exit for unknown command, got %d", code)
	}
	if code, out, _ := runCmd(t, "", "help"); code != exitOK || !strings.Contains(out, "txauth sign") {
		t.Fatalf("help: %d %q", code, out)
	}
}

func TestRun_KeySignVerifyFlow(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	code, out, errOut := runCmd(t, "", "key", "init", "--keys-dir", dir, "--name", "alice", "--seed-hex", vectorSeedHex)
	if code != exitOK {
		t.Fatalf("key init: %d %s", code, errOut)
	}
	if !strings.Contains(out, vectorPubKey) {
		t.Fatalf("key init output missing public key: %q", out)
	}

	code, out, _ = runCmd(t, "", "key", "export", "--keys-dir", dir, "--name", "alice")
	if code != exitOK || strings.TrimSpace(out) != vectorPubKey {
		t.Fatalf("key export: %d %q", code, out)
	}

	code, out, errOut = runCmd(t, "", append([]string{"sign", "--keys-dir", dir, "--signer", "alice"}, aliceToBobFlags...)...)
	if code != exitOK {
		t.Fatalf("sign: %d %s", code, errOut)
	}
	envelope := strings.TrimSpace(out)
	if envelope != readVector(t, "transfer_1.envelope.hex") {
		t.Fatalf("envelope mismatch:\n got %s\nwant %s", envelope, readVector(t, "transfer_1.envelope.hex"))
	}

	path := filepath.Join(dir, "tx.envelope")
	if err := os.WriteFile(path, []byte(out), 0o600); err != nil {
		t.Fatalf("write envelope: %v", err)
	}
	wantCID := readVector(t, "transfer_1.cid")

	code, out, errOut = runCmd(t, "", "verify", path)
	if code != exitOK || strings.TrimSpace(out) != "OK "+wantCID {
		t.Fatalf("verify: %d %q %s", code, out, errOut)
	}

	code, out, _ = runCmd(t, envelope, "verify", "--pubkey", vectorPubKey, "-")
	if code != exitOK || !strings.HasPrefix(out, "OK ") {
		t.Fatalf("verify from stdin: %d %q", code, out)
	}

	code, out, _ = runCmd(t, "", "inspect", path)
	if code != exitOK || !strings.Contains(out, "amount: 100") || !strings.Contains(out, "signer: "+vectorPubKey) {
		t.Fatalf("inspect: %d %q", code, out)
	}
}

func TestRun_VerifyRejects(t *testing.T) {
	clearEnv(t)
	envelope := readVector(t, "transfer_1.envelope.hex")

	code, out, _ := runCmd(t, envelope, "verify", "--pubkey", "ed25519:"+strings.Repeat("A", 43)+"=", "-")
	if code != exitFailure || !strings.HasPrefix(out, "INVALID ") {
		t.Fatalf("verify under wrong key: %d %q", code, out)
	}

	b, err := hex.DecodeString(envelope)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	b[len(b)-1] ^= 0x01
	if code, _, _ := runCmd(t, hex.EncodeToString(b), "verify", "-"); code != exitFailure {
		t.Fatalf("expected tampered signature to fail with %d, got %d", exitFailure, code)
	}

	if code, _, _ := runCmd(t, "zz", "verify", "-"); code != exitMalformed {
		t.Fatalf("expected undecodable input to be malformed, got %d", code)
	}
	if code, _, _ := runCmd(t, envelope[:20], "verify", "-"); code != exitMalformed {
		t.Fatalf("expected truncated envelope to be malformed, got %d", code)
	}
}

func TestRun_CanonAndID(t *testing.T) {
	clearEnv(t)

	code, out, errOut := runCmd(t, "", append([]string{"canon"}, aliceToBobFlags...)...)
	if code != exitOK {
		t.Fatalf("canon: %d %s", code, errOut)
	}
	if strings.TrimSpace(out) != readVector(t, "transfer_1.tx.hex") {
		t.Fatalf("canon mismatch: %s", out)
	}

	code, out, _ = runCmd(t, "", append([]string{"id"}, aliceToBobFlags...)...)
	if code != exitOK || strings.TrimSpace(out) != readVector(t, "transfer_1.cid") {
		t.Fatalf("id: %d %q", code, out)
	}

	code, _, errOut = runCmd(t, "", "id", "--recipient", "bob", "--amount", "1", "--nonce", "1")
	if code != exitMalformed {
		t.Fatalf("expected missing sender to be malformed, got %d", code)
	}
	if !strings.Contains(errOut, "TX-SND-001") {
		t.Fatalf("expected rule id in log output, got %q", errOut)
	}

	if code, _, _ := runCmd(t, "", "canon", "--amount", "-1"); code != exitUsage {
		t.Fatalf("expected unparsable amount to be a usage error, got %d", code)
	}
}

func TestRun_Base64EncodingFromEnvFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	envFile := filepath.Join(dir, "txauth.env")
	if err := os.WriteFile(envFile, []byte("TXAUTH_ENCODING=base64\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	os.Unsetenv(config.EnvEncoding)

	code, out, errOut := runCmd(t, "", append([]string{"sign", "--env-file", envFile, "--seed-hex", vectorSeedHex}, aliceToBobFlags...)...)
	if code != exitOK {
		t.Fatalf("sign: %d %s", code, errOut)
	}
	if _, err := hex.DecodeString(strings.TrimSpace(out)); err == nil {
		t.Fatalf("expected base64 output, got hex")
	}
	code, verOut, errOut := runCmd(t, out, "verify", "--env-file", envFile, "-")
	if code != exitOK || !strings.HasPrefix(verOut, "OK ") {
		t.Fatalf("verify: %d %q %s", code, verOut, errOut)
	}
}

func TestRun_SignRequiresOneKeySource(t *testing.T) {
	clearEnv(t)
	code, _, _ := runCmd(t, "", append([]string{"sign"}, aliceToBobFlags...)...)
	if code != exitFailure {
		t.Fatalf("expected failure without a key source, got %d", code)
	}
	code, _, _ = runCmd(t, "", append([]string{"sign", "--seed-hex", vectorSeedHex, "--signer", "alice"}, aliceToBobFlags...)...)
	if code != exitFailure {
		t.Fatalf("expected failure with two key sources, got %d", code)
	}
}
