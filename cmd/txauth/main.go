package main

import (
	"encoding/base64"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"xdao.co/txauth/internal/config"
	"xdao.co/txauth/keys"
)

// Exit codes.
const (
	exitOK        = 0
	exitFailure   = 1
	exitUsage     = 2
	exitMalformed = 3
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, in io.Reader, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return exitUsage
	}

	switch args[0] {
	case "key":
		return cmdKey(args[1:], out, errOut)
	case "canon":
		return cmdCanon(args[1:], out, errOut)
	case "id":
		return cmdID(args[1:], out, errOut)
	case "sign":
		return cmdSign(args[1:], out, errOut)
	case "verify":
		return cmdVerify(args[1:], in, out, errOut)
	case "inspect":
		return cmdInspect(args[1:], in, out, errOut)
	case "help", "-h", "--help":
		printUsage(out)
		return exitOK
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return exitUsage
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "txauth: transaction canonicalization, signing and verification")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  txauth key init --name <name> [--seed-hex <64hex>] [--force]")
	fmt.Fprintln(w, "  txauth key derive --from <name> --role <role> [--force]")
	fmt.Fprintln(w, "  txauth key list")
	fmt.Fprintln(w, "  txauth key export --name <name> [--role <role>]")
	fmt.Fprintln(w, "  txauth canon <tx flags>")
	fmt.Fprintln(w, "  txauth id <tx flags>")
	fmt.Fprintln(w, "  txauth sign (--signer <name> [--signer-role <role>] | --seed-hex <64hex> | --key-file <path>) <tx flags>")
	fmt.Fprintln(w, "  txauth verify [--pubkey ed25519:<base64>] <envelope-file | ->")
	fmt.Fprintln(w, "  txauth inspect <envelope-file | ->")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Tx flags:")
	fmt.Fprintln(w, "  --sender <id> --recipient <id> --amount <n> --nonce <n> [--timestamp <RFC3339>] [--payload <text> | --payload-hex <hex>]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Common flags:")
	fmt.Fprintln(w, "  --env-file <path>   dotenv file with TXAUTH_* settings")
	fmt.Fprintln(w, "  --keys-dir <dir>    key store directory (default ~/.xdao/txauth/keys)")
	fmt.Fprintln(w, "  --encoding hex|base64")
	fmt.Fprintln(w, "  -v                  debug logging")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Exit codes: 0 ok, 1 failure or invalid signature, 2 usage, 3 malformed input")
}

// commonFlags are accepted by every subcommand.
type commonFlags struct {
	envFile  string
	keysDir  string
	encoding string
	verbose  bool
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.envFile, "env-file", "", "Optional dotenv file")
	fs.StringVar(&c.keysDir, "keys-dir", "", "Key store directory")
	fs.StringVar(&c.encoding, "encoding", "", "Binary output encoding: hex or base64")
	fs.BoolVar(&c.verbose, "v", false, "Debug logging")
}

// env is the resolved runtime for one command invocation.
type env struct {
	cfg config.Config
	log *logrus.Entry
}

func (c *commonFlags) resolve(cmd string, errOut io.Writer) (*env, error) {
	cfg, err := config.Load(c.envFile)
	if err != nil {
		return nil, err
	}
	if c.keysDir != "" {
		cfg.KeysDir = c.keysDir
	}
	if c.encoding != "" {
		cfg.Encoding = strings.ToLower(c.encoding)
	}
	if c.verbose {
		cfg.LogLevel = logrus.DebugLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetOutput(errOut)
	logger.SetLevel(cfg.LogLevel)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return &env{cfg: cfg, log: logger.WithField("cmd", cmd)}, nil
}

func (e *env) keyStore() (*keys.KeyStore, error) {
	return keys.OpenKeyStore(e.cfg.KeysDir)
}

func (e *env) encode(b []byte) string {
	if e.cfg.Encoding == config.EncodingBase64 {
		return base64.StdEncoding.EncodeToString(b)
	}
	return hex.EncodeToString(b)
}

func (e *env) decode(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if e.cfg.Encoding == config.EncodingBase64 {
		return base64.StdEncoding.DecodeString(s)
	}
	return hex.DecodeString(s)
}

// readInput reads a file path, or stdin when path is "-".
func readInput(path string, in io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(in)
	}
	return os.ReadFile(path)
}
