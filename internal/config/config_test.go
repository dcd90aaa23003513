package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
)

func lookupMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestFromLookup_Defaults(t *testing.T) {
	cfg, err := FromLookup(lookupMap(nil))
	if err != nil {
		t.Fatalf("FromLookup: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestFromLookup_Overrides(t *testing.T) {
	cfg, err := FromLookup(lookupMap(map[string]string{
		EnvKeysDir:  " /tmp/keys ",
		EnvLogLevel: "debug",
		EnvEncoding: "BASE64",
	}))
	if err != nil {
		t.Fatalf("FromLookup: %v", err)
	}
	if cfg.KeysDir != "/tmp/keys" || cfg.LogLevel != logrus.DebugLevel || cfg.Encoding != EncodingBase64 {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestFromLookup_Rejects(t *testing.T) {
	if _, err := FromLookup(lookupMap(map[string]string{EnvLogLevel: "loud"})); err == nil {
		t.Fatalf("expected invalid log level to be rejected")
	}
	if _, err := FromLookup(lookupMap(map[string]string{EnvEncoding: "base58"})); err == nil {
		t.Fatalf("expected unsupported encoding to be rejected")
	}
}

func TestLoad_DotenvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "txauth.env")
	if err := os.WriteFile(path, []byte(EnvKeysDir+"="+dir+"\n"+EnvEncoding+"=base64\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv(EnvKeysDir, "")
	os.Unsetenv(EnvKeysDir)
	t.Setenv(EnvEncoding, "hex")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.KeysDir != dir {
		t.Fatalf("expected keys dir from env file, got %q", cfg.KeysDir)
	}
	if cfg.Encoding != EncodingHex {
		t.Fatalf("process environment must win over env file, got %q", cfg.Encoding)
	}

	if _, err := Load(filepath.Join(dir, "missing.env")); err == nil {
		t.Fatalf("expected missing env file to fail")
	}
}
