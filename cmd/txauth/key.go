package main

import (
	"crypto/rand"
	"errors"
	"flag"
	"fmt"
	"io"

	"xdao.co/txauth/keys"
)

func cmdKey(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printKeyUsage(errOut)
		return exitUsage
	}
	switch args[0] {
	case "init":
		return cmdKeyInit(args[1:], out, errOut)
	case "derive":
		return cmdKeyDerive(args[1:], out, errOut)
	case "list":
		return cmdKeyList(args[1:], out, errOut)
	case "export":
		return cmdKeyExport(args[1:], out, errOut)
	case "help", "-h", "--help":
		printKeyUsage(out)
		return exitOK
	default:
		fmt.Fprintf(errOut, "unknown key subcommand: %s\n\n", args[0])
		printKeyUsage(errOut)
		return exitUsage
	}
}

func printKeyUsage(w io.Writer) {
	fmt.Fprintln(w, "txauth key: local reference key provider")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  txauth key init --name <name> [--seed-hex <64hex>] [--force]")
	fmt.Fprintln(w, "  txauth key derive --from <name> --role <role> [--force]")
	fmt.Fprintln(w, "  txauth key list")
	fmt.Fprintln(w, "  txauth key export --name <name> [--role <role>]")
}

func cmdKeyInit(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key init", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var common commonFlags
	var name string
	var seedHex string
	var force bool

	common.register(fs)
	fs.StringVar(&name, "name", "", "Key name")
	fs.StringVar(&seedHex, "seed-hex", "", "Optional ed25519 seed as 64 hex chars (for reproducible demos)")
	fs.BoolVar(&force, "force", false, "Overwrite existing key files")

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if name == "" {
		fmt.Fprintln(errOut, "missing --name")
		return exitUsage
	}
	if err := keys.CheckKeyName(name); err != nil {
		fmt.Fprintf(errOut, "invalid --name: %v\n", err)
		return exitUsage
	}
	e, err := common.resolve("key init", errOut)
	if err != nil {
		fmt.Fprintf(errOut, "config: %v\n", err)
		return exitUsage
	}

	var seed []byte
	if seedHex != "" {
		seed, err = keys.ParseSeedHex(seedHex)
		if err != nil {
			fmt.Fprintf(errOut, "invalid --seed-hex: %v\n", err)
			return exitUsage
		}
	} else {
		kp, err := keys.GenerateKeypair(rand.Reader)
		if err != nil {
			e.log.WithError(err).Error("generate key")
			return exitFailure
		}
		seed = kp.Seed()
	}

	ks, err := e.keyStore()
	if err != nil {
		e.log.WithError(err).Error("open key store")
		return exitFailure
	}
	pub, path, err := ks.InitializeRootKey(name, seed, force)
	if err != nil {
		e.log.WithError(err).Error("write key")
		return exitFailure
	}
	e.log.WithField("path", path).Debug("stored root key")
	fmt.Fprintf(out, "Created root key: %s\n", pub)
	fmt.Fprintf(out, "Stored at: %s\n", path)
	return exitOK
}

func cmdKeyDerive(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key derive", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var common commonFlags
	var from string
	var role string
	var force bool

	common.register(fs)
	fs.StringVar(&from, "from", "", "Root key name")
	fs.StringVar(&role, "role", "", "Role identifier (e.g. payments, treasury)")
	fs.BoolVar(&force, "force", false, "Overwrite existing key files")

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if from == "" || role == "" {
		fmt.Fprintln(errOut, "missing --from or --role")
		return exitUsage
	}
	if err := keys.CheckKeyName(from); err != nil {
		fmt.Fprintf(errOut, "invalid --from: %v\n", err)
		return exitUsage
	}
	if err := keys.CheckRole(role); err != nil {
		fmt.Fprintf(errOut, "invalid --role: %v\n", err)
		return exitUsage
	}
	e, err := common.resolve("key derive", errOut)
	if err != nil {
		fmt.Fprintf(errOut, "config: %v\n", err)
		return exitUsage
	}
	ks, err := e.keyStore()
	if err != nil {
		e.log.WithError(err).Error("open key store")
		return exitFailure
	}
	pub, path, err := ks.DeriveKeyFromRole(from, role, force)
	if err != nil {
		e.log.WithError(err).Error("derive role key")
		return exitFailure
	}
	fmt.Fprintf(out, "Created role key: %s\n", pub)
	fmt.Fprintf(out, "Stored at: %s\n", path)
	return exitOK
}

func cmdKeyExport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key export", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var common commonFlags
	var name string
	var role string

	common.register(fs)
	fs.StringVar(&name, "name", "", "Key name")
	fs.StringVar(&role, "role", "", "Optional role (if set, exports derived role key)")

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if name == "" {
		fmt.Fprintln(errOut, "missing --name")
		return exitUsage
	}
	e, err := common.resolve("key export", errOut)
	if err != nil {
		fmt.Fprintf(errOut, "config: %v\n", err)
		return exitUsage
	}
	ks, err := e.keyStore()
	if err != nil {
		e.log.WithError(err).Error("open key store")
		return exitFailure
	}
	pub, err := ks.ExportKey(name, role)
	if err != nil {
		e.log.WithError(err).Error("export key")
		return exitFailure
	}
	_, _ = fmt.Fprintln(out, pub)
	return exitOK
}

func cmdKeyList(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key list", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var common commonFlags
	common.register(fs)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	e, err := common.resolve("key list", errOut)
	if err != nil {
		fmt.Fprintf(errOut, "config: %v\n", err)
		return exitUsage
	}
	ks, err := e.keyStore()
	if err != nil {
		e.log.WithError(err).Error("open key store")
		return exitFailure
	}
	entries, err := ks.ListKeys()
	if err != nil {
		e.log.WithError(err).Error("list keys")
		return exitFailure
	}
	for _, entry := range entries {
		fmt.Fprintf(out, "%s\n", entry.Identifier)
		for _, r := range entry.Roles {
			fmt.Fprintf(out, "  - %s\n", r)
		}
	}
	return exitOK
}

// loadSigner resolves the signing key from exactly one of the sources.
func loadSigner(e *env, seedHex, signer, signerRole, keyFile string) (*keys.KeyPair, error) {
	n := 0
	for _, s := range []string{seedHex, signer, keyFile} {
		if s != "" {
			n++
		}
	}
	if n != 1 {
		return nil, errors.New("exactly one of --seed-hex, --signer, --key-file is required")
	}
	switch {
	case seedHex != "":
		seed, err := keys.ParseSeedHex(seedHex)
		if err != nil {
			return nil, err
		}
		return keys.NewKeyPairFromSeed(seed)
	case keyFile != "":
		seed, err := keys.LoadSeedFile(keyFile)
		if err != nil {
			return nil, err
		}
		return keys.NewKeyPairFromSeed(seed)
	default:
		ks, err := e.keyStore()
		if err != nil {
			return nil, err
		}
		return ks.LoadKeyPair(signer, signerRole)
	}
}
