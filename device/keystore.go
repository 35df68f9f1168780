package device

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

const (
	scryptN      = 32768 // N = CPU/memory cost parameter (suitable as of 2017)
	scryptR      = 8     // r and p must satisfy r * p < 2^30
	scryptP      = 1
	scryptKeyLen = 32

	saltSize  = 16
	nonceSize = 24

	privateKeyFile = "identity.sealed"
	deviceIDFile   = "device_id"
)

// SecureKeyStore holds the device signing key. Implementations must keep
// the private key sealed at rest; PrivateKey is only called after the
// biometric gate passes.
type SecureKeyStore interface {
	// Generate creates and seals a fresh Ed25519 key pair.
	// Fails with ErrIdentityExists when a key is already present.
	Generate(passphrase string) (ed25519.PublicKey, error)
	// PublicKey returns the stored public key without unsealing anything
	PublicKey() (ed25519.PublicKey, error)
	// PrivateKey unseals and returns the signing key
	PrivateKey(passphrase string) (ed25519.PrivateKey, error)
	// HasPrivate reports whether key material exists, without unsealing it
	HasPrivate() bool
}

// FileKeyStore seals the private key on disk with a passphrase-derived
// secretbox. Layout: salt(16) || nonce(24) || sealed(privateKey).
// The public key rides along unencrypted as the last 32 bytes of the
// private key, so PublicKey never needs the passphrase.
type FileKeyStore struct {
	dir string
}

func NewFileKeyStore(dir string) (*FileKeyStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	return &FileKeyStore{dir: dir}, nil
}

// Dir returns the keystore directory (the device id file lives alongside)
func (ks *FileKeyStore) Dir() string {
	return ks.dir
}

func (ks *FileKeyStore) sealedPath() string {
	return filepath.Join(ks.dir, privateKeyFile)
}

func (ks *FileKeyStore) publicPath() string {
	return filepath.Join(ks.dir, "identity.pub")
}

func (ks *FileKeyStore) HasPrivate() bool {
	_, err := os.Stat(ks.sealedPath())
	return err == nil
}

func (ks *FileKeyStore) Generate(passphrase string) (ed25519.PublicKey, error) {
	if ks.HasPrivate() {
		return nil, ErrIdentityExists
	}
	public, private, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyGeneration, err)
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyGeneration, err)
	}
	sealKey, err := deriveKey(passphrase, salt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyGeneration, err)
	}
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyGeneration, err)
	}
	sealed := secretbox.Seal(nil, private, &nonce, sealKey)

	blob := make([]byte, 0, saltSize+nonceSize+len(sealed))
	blob = append(blob, salt...)
	blob = append(blob, nonce[:]...)
	blob = append(blob, sealed...)

	if err := os.WriteFile(ks.sealedPath(), blob, 0600); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyStorage, err)
	}
	if err := os.WriteFile(ks.publicPath(), public, 0600); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyStorage, err)
	}
	return public, nil
}

func (ks *FileKeyStore) PublicKey() (ed25519.PublicKey, error) {
	raw, err := os.ReadFile(ks.publicPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoIdentity
		}
		return nil, err
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, ErrKeystoreCorrupt
	}
	return ed25519.PublicKey(raw), nil
}

func (ks *FileKeyStore) PrivateKey(passphrase string) (ed25519.PrivateKey, error) {
	blob, err := os.ReadFile(ks.sealedPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoIdentity
		}
		return nil, err
	}
	if len(blob) < saltSize+nonceSize+secretbox.Overhead+ed25519.PrivateKeySize {
		return nil, ErrKeystoreCorrupt
	}
	salt := blob[:saltSize]
	var nonce [nonceSize]byte
	copy(nonce[:], blob[saltSize:saltSize+nonceSize])
	sealed := blob[saltSize+nonceSize:]

	sealKey, err := deriveKey(passphrase, salt)
	if err != nil {
		return nil, err
	}
	private, ok := secretbox.Open(nil, sealed, &nonce, sealKey)
	if !ok {
		return nil, ErrWrongPassphrase
	}
	if len(private) != ed25519.PrivateKeySize {
		return nil, ErrKeystoreCorrupt
	}
	return ed25519.PrivateKey(private), nil
}

// DeviceID returns the persisted device identifier, creating it on first
// use from 16 random bytes
func (ks *FileKeyStore) DeviceID() (string, error) {
	path := filepath.Join(ks.dir, deviceIDFile)
	raw, err := os.ReadFile(path)
	if err == nil && len(raw) > 0 {
		return string(raw), nil
	}
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	id := hex.EncodeToString(buf)
	if err := os.WriteFile(path, []byte(id), 0600); err != nil {
		return "", err
	}
	return id, nil
}

func deriveKey(passphrase string, salt []byte) (*[32]byte, error) {
	derived, err := scrypt.Key([]byte(passphrase), salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return nil, err
	}
	var key [32]byte
	copy(key[:], derived)
	return &key, nil
}

// MemoryKeyStore keeps the key pair in memory, for tests
type MemoryKeyStore struct {
	private ed25519.PrivateKey
	public  ed25519.PublicKey
}

func (ks *MemoryKeyStore) Generate(passphrase string) (ed25519.PublicKey, error) {
	if ks.private != nil {
		return nil, ErrIdentityExists
	}
	public, private, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyGeneration, err)
	}
	ks.private = private
	ks.public = public
	return public, nil
}

func (ks *MemoryKeyStore) PublicKey() (ed25519.PublicKey, error) {
	if ks.public == nil {
		return nil, ErrNoIdentity
	}
	return ks.public, nil
}

func (ks *MemoryKeyStore) PrivateKey(passphrase string) (ed25519.PrivateKey, error) {
	if ks.private == nil {
		return nil, ErrNoIdentity
	}
	return ks.private, nil
}

func (ks *MemoryKeyStore) HasPrivate() bool {
	return ks.private != nil
}
