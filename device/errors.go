package device

import "errors"

// Identity-level errors, one per failure origin. All are terminal for the
// current attempt; nothing in this package retries internally.
var (
	// ErrKeyStorage means the secure storage backend is unavailable or a write failed
	ErrKeyStorage = errors.New("secure key storage failed")
	// ErrKeyGeneration means randomness or key derivation failed
	ErrKeyGeneration = errors.New("key generation failed")
	// ErrAuthenticationRequired means no authenticated session exists for a server call
	ErrAuthenticationRequired = errors.New("authentication required")
	// ErrRegistration wraps a failed public key upsert to the server
	ErrRegistration = errors.New("device key registration failed")
	// ErrBiometricUnavailable means the device has no biometric hardware
	ErrBiometricUnavailable = errors.New("biometric hardware unavailable")
	// ErrBiometricNotEnrolled means hardware is present but nothing is enrolled
	ErrBiometricNotEnrolled = errors.New("no biometrics enrolled")
	// ErrAuthenticationCancelled means the user declined or failed the prompt
	ErrAuthenticationCancelled = errors.New("authentication cancelled")
	// ErrSigning means key retrieval or the signing primitive failed
	ErrSigning = errors.New("proof signing failed")
	// ErrServerRejected wraps a non-2xx server response
	ErrServerRejected = errors.New("server rejected the request")
)

// Keystore-level errors, surfaced by SecureKeyStore implementations and
// wrapped into ErrKeyStorage/ErrSigning by the identity operations.
var (
	// ErrNoIdentity means no key material exists in the keystore yet
	ErrNoIdentity = errors.New("no device identity")
	// ErrIdentityExists means the keystore already holds a private key
	ErrIdentityExists = errors.New("device identity already exists")
	// ErrKeystoreCorrupt means the sealed key blob failed to decrypt or parse
	ErrKeystoreCorrupt = errors.New("keystore data corrupt")
	// ErrWrongPassphrase means the unlock passphrase did not open the sealed blob
	ErrWrongPassphrase = errors.New("wrong keystore passphrase")
)
