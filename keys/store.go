package keys

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// KeyStore keeps Ed25519 seeds on the local filesystem.
//
// EXPERIMENTAL: this storage surface is not part of the transaction wire
// contract and may change.
//
// Layout:
//
//	<Directory>/<name>/root.key          hex seed, 0600
//	<Directory>/<name>/roles/<role>.key  hex seed derived with DeriveRoleSeed
type KeyStore struct {
	Directory string
}

// KeyEntry describes one stored identity and its derived roles.
type KeyEntry struct {
	Identifier string
	Roles      []string
}

func GetDefaultDirectory() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".xdao", "txauth", "keys"), nil
}

// OpenKeyStore returns a KeyStore rooted at directory, or at
// GetDefaultDirectory when directory is empty. Nothing is created on disk
// until a key is written.
func OpenKeyStore(directory string) (*KeyStore, error) {
	if directory == "" {
		var err error
		directory, err = GetDefaultDirectory()
		if err != nil {
			return nil, err
		}
	}
	return &KeyStore{Directory: directory}, nil
}

func (ks *KeyStore) rootKeyPath(identifier string) string {
	return filepath.Join(ks.Directory, identifier, "root.key")
}

func (ks *KeyStore) roleKeyPath(identifier, role string) string {
	return filepath.Join(ks.Directory, identifier, "roles", role+".key")
}

func CheckKeyName(identifier string) error {
	if identifier == "" {
		return errors.New("identifier cannot be empty")
	}
	if c, ok := firstInvalidChar(identifier); ok {
		return fmt.Errorf("invalid character %q in identifier", c)
	}
	return nil
}

func CheckRole(role string) error {
	if role == "" {
		return errors.New("role cannot be empty")
	}
	if c, ok := firstInvalidChar(role); ok {
		return fmt.Errorf("invalid character %q in role", c)
	}
	return nil
}

func firstInvalidChar(s string) (rune, bool) {
	for _, c := range s {
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-' || c == '_' {
			continue
		}
		return c, true
	}
	return 0, false
}

// ParseSeedHex decodes a 32-byte seed from hex, with an optional 0x prefix.
func ParseSeedHex(seedHex string) ([]byte, error) {
	seedHex = strings.TrimPrefix(strings.TrimSpace(seedHex), "0x")
	data, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, err
	}
	if len(data) != ed25519.SeedSize {
		return nil, fmt.Errorf("expected seed length of %d bytes, got %d", ed25519.SeedSize, len(data))
	}
	return data, nil
}

func writeSeedFile(path string, seed []byte, overwrite bool) error {
	if len(seed) != ed25519.SeedSize {
		return fmt.Errorf("expected seed length of %d bytes", ed25519.SeedSize)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	flags := os.O_WRONLY | os.O_CREATE
	if overwrite {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_EXCL
	}
	file, err := os.OpenFile(path, flags, 0o600)
	if err != nil {
		return err
	}
	defer file.Close()
	if _, err := file.WriteString(hex.EncodeToString(seed) + "\n"); err != nil {
		return err
	}
	return file.Close()
}

// LoadSeedFile reads a hex seed file as written by the KeyStore.
func LoadSeedFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSeedHex(string(data))
}

func publicKeyString(seed []byte) (string, error) {
	kp, err := NewKeyPairFromSeed(seed)
	if err != nil {
		return "", err
	}
	return EncodePublicKey(PublicKeyOf(kp))
}

// InitializeRootKey stores seed as the root key of identifier and returns the
// encoded public key and the file path.
func (ks *KeyStore) InitializeRootKey(identifier string, seed []byte, overwrite bool) (publicKey string, path string, err error) {
	if err := CheckKeyName(identifier); err != nil {
		return "", "", err
	}
	path = ks.rootKeyPath(identifier)
	if err := writeSeedFile(path, seed, overwrite); err != nil {
		return "", "", err
	}
	publicKey, err = publicKeyString(seed)
	return publicKey, path, err
}

// DeriveKeyFromRole derives and stores the role key of an existing identity.
func (ks *KeyStore) DeriveKeyFromRole(from, role string, overwrite bool) (publicKey string, path string, err error) {
	if err := CheckKeyName(from); err != nil {
		return "", "", err
	}
	if err := CheckRole(role); err != nil {
		return "", "", err
	}
	rootSeed, err := LoadSeedFile(ks.rootKeyPath(from))
	if err != nil {
		return "", "", err
	}
	roleSeed, err := DeriveRoleSeed(rootSeed, role)
	if err != nil {
		return "", "", err
	}
	path = ks.roleKeyPath(from, role)
	if err := writeSeedFile(path, roleSeed, overwrite); err != nil {
		return "", "", err
	}
	publicKey, err = publicKeyString(roleSeed)
	return publicKey, path, err
}

// LoadKeyPair loads the root key of identifier, or its role key when role is
// non-empty.
func (ks *KeyStore) LoadKeyPair(identifier, role string) (*KeyPair, error) {
	if err := CheckKeyName(identifier); err != nil {
		return nil, err
	}
	path := ks.rootKeyPath(identifier)
	if role != "" {
		if err := CheckRole(role); err != nil {
			return nil, err
		}
		path = ks.roleKeyPath(identifier, role)
	}
	seed, err := LoadSeedFile(path)
	if err != nil {
		return nil, err
	}
	return NewKeyPairFromSeed(seed)
}

// ExportKey returns the encoded public key of a stored key.
func (ks *KeyStore) ExportKey(identifier, role string) (string, error) {
	kp, err := ks.LoadKeyPair(identifier, role)
	if err != nil {
		return "", err
	}
	return EncodePublicKey(PublicKeyOf(kp))
}

// ListKeys returns stored identities and their roles, sorted by name.
func (ks *KeyStore) ListKeys() ([]KeyEntry, error) {
	entries, err := os.ReadDir(ks.Directory)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var identifiers []string
	for _, entry := range entries {
		if entry.IsDir() {
			identifiers = append(identifiers, entry.Name())
		}
	}
	sort.Strings(identifiers)

	var result []KeyEntry
	for _, identifier := range identifiers {
		roleEntries, rerr := os.ReadDir(filepath.Join(ks.Directory, identifier, "roles"))
		var roles []string
		if rerr == nil {
			for _, roleEntry := range roleEntries {
				if name, ok := strings.CutSuffix(roleEntry.Name(), ".key"); ok && !roleEntry.IsDir() {
					roles = append(roles, name)
				}
			}
			sort.Strings(roles)
		}
		result = append(result, KeyEntry{Identifier: identifier, Roles: roles})
	}
	return result, nil
}
