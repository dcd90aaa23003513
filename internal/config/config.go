// Package config resolves txauth CLI settings from the environment.
//
// Values come from, in increasing precedence: defaults, an optional dotenv
// file, the process environment. Command-line flags are applied by the caller
// on top of the returned Config.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	EnvKeysDir  = "TXAUTH_KEYS_DIR"
	EnvLogLevel = "TXAUTH_LOG_LEVEL"
	EnvEncoding = "TXAUTH_ENCODING"
)

// Encodings accepted for binary CLI output.
const (
	EncodingHex    = "hex"
	EncodingBase64 = "base64"
)

type Config struct {
	// KeysDir is the KeyStore directory; empty means the keys package default.
	KeysDir  string
	LogLevel logrus.Level
	Encoding string
}

func Default() Config {
	return Config{
		LogLevel: logrus.WarnLevel,
		Encoding: EncodingHex,
	}
}

// Load reads envFile (if non-empty) into the process environment without
// overriding variables that are already set, then resolves the Config.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, fmt.Errorf("config: load %s: %w", envFile, err)
		}
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup resolves a Config through lookup, which has the signature of
// os.LookupEnv.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	if v, ok := lookup(EnvKeysDir); ok {
		cfg.KeysDir = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvLogLevel); ok && strings.TrimSpace(v) != "" {
		lvl, err := logrus.ParseLevel(strings.TrimSpace(v))
		if err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", EnvLogLevel, err)
		}
		cfg.LogLevel = lvl
	}
	if v, ok := lookup(EnvEncoding); ok && strings.TrimSpace(v) != "" {
		cfg.Encoding = strings.ToLower(strings.TrimSpace(v))
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Encoding {
	case EncodingHex, EncodingBase64:
		return nil
	case "":
		return errors.New("config: empty encoding")
	default:
		return fmt.Errorf("config: unsupported encoding %q (want %s or %s)", c.Encoding, EncodingHex, EncodingBase64)
	}
}
