package util

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	src "math/rand"

	"github.com/rollcall/go-rollcall-server/types"
)

const letterBytes = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
const (
	letterIdxBits = 6                    // 6 bits to represent a letter index
	letterIdxMask = 1<<letterIdxBits - 1 // All 1-bits, as many as letterIdxBits
	letterIdxMax  = 63 / letterIdxBits   // # of letter indices fitting in 63 bits
)

// Generates a random nonce of custom length in bytes
// method based on https://stackoverflow.com/questions/22892120/how-to-generate-a-random-string-of-a-fixed-length-in-go
// 5. Masking improved version
func GenerateNonce(n int) string {
	b := make([]byte, n)
	// A src.Int63() generates 63 random bits, enough for letterIdxMax characters!
	for i, cache, remain := n-1, src.Int63(), letterIdxMax; i >= 0; {
		if remain == 0 {
			cache, remain = src.Int63(), letterIdxMax
		}
		if idx := int(cache & letterIdxMask); idx < len(letterBytes) {
			b[i] = letterBytes[idx]
			i--
		}
		cache >>= letterIdxBits
		remain--
	}

	return string(b)
}

// GenerateSessionToken returns a 32 character hex token from a CSPRNG.
// Session tokens gate attendance verification and must be unguessable,
// unlike login nonces which are single-use and short-lived.
func GenerateSessionToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Check if a base64 string is an ed25519 public key.
func IsEd25519PublicKey(b64Key string) bool {
	decoded, err := base64.StdEncoding.DecodeString(b64Key)
	if err != nil {
		// Base64 decoding error.
		return false
	}
	if len(decoded) != ed25519.PublicKeySize {
		// The key is not the correct size.
		return false
	}

	// It's a valid size, so we'll assume it's an Ed25519 public key.
	return true
}

// Signing message using ed25519, signature returned as lowercase hex
func SignToHex(message []byte, privateKey ed25519.PrivateKey) (string, error) {
	if len(privateKey) != ed25519.PrivateKeySize {
		return "", types.ErrInvalidPrivateKey
	}
	signature := ed25519.Sign(privateKey, message)
	return hex.EncodeToString(signature), nil
}

// Signing message using ed25519, signature returned as base64 (login flow)
func SignToBase64(message []byte, privateKey ed25519.PrivateKey) (string, error) {
	if len(privateKey) != ed25519.PrivateKeySize {
		return "", types.ErrInvalidPrivateKey
	}
	signature := ed25519.Sign(privateKey, message)
	return base64.StdEncoding.EncodeToString(signature), nil
}

// Verify a hex encoded message signature using ed25519
func VerifyHex(message []byte, signatureHex string, publicKeyBase64 string) (bool, error) {
	pubKey, err := base64.StdEncoding.DecodeString(publicKeyBase64)
	if err != nil {
		return false, err
	}
	if len(pubKey) != ed25519.PublicKeySize {
		return false, types.ErrInvalidPublicKey
	}
	signature, sErr := hex.DecodeString(signatureHex)
	if sErr != nil {
		return false, types.ErrSignatureInvalid
	}
	if len(signature) != ed25519.SignatureSize {
		return false, types.ErrSignatureInvalid
	}

	if ed25519.Verify(pubKey, message, signature) {
		return true, nil
	}
	return false, nil
}

// Generates an ed25519 signing key pair and returns base64 public key, private key
// returns publicKey, privateKey, error
func GenerateEd25519KeyPair() (*string, *string, error) {
	pubKey, privKey, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, nil, err
	}

	pubKeyBase64 := base64.StdEncoding.EncodeToString(pubKey)
	privKeyBase64 := base64.StdEncoding.EncodeToString(privKey)
	return &pubKeyBase64, &privKeyBase64, nil
}
