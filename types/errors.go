package types

import "errors"

var (
	// ErrNotFound is returned when the requested document doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when the resource conflicts (e.g. update of old revision)
	ErrConflict = errors.New("conflict")

	// ErrBadRequest is returned on structurally invalid input
	ErrBadRequest = errors.New("bad request")

	// ErrInternal (for unhandled failures)
	ErrInternal = errors.New("internal error")

	// ErrInvalidPublicKey is returned when a key is not a valid Ed25519 public key
	ErrInvalidPublicKey = errors.New("invalid public key")

	// ErrInvalidPrivateKey is returned when a key is not a valid Ed25519 private key
	ErrInvalidPrivateKey = errors.New("invalid private key")

	// ErrSignatureInvalid is returned when an Ed25519 signature doesn't verify
	ErrSignatureInvalid = errors.New("invalid signature")

	// ErrSessionNotFound is returned when no attendance session matches the submitted token
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExpired is returned when the attendance session is past its expiry
	ErrSessionExpired = errors.New("session expired")

	// ErrOutOfRange is returned when the claimed location falls outside the session geofence
	ErrOutOfRange = errors.New("location out of range")

	// ErrKeyNotRegistered is returned when the caller has no registered device key
	ErrKeyNotRegistered = errors.New("device key not registered")
)
