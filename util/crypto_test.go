package util

import (
	"encoding/base64"
	"testing"

	"github.com/tj/assert"
)

func TestGenerateKeyPair(t *testing.T) {

	pub, priv, err := GenerateEd25519KeyPair()
	if err != nil {
		t.Fatal(err)
	}
	pubKey, kErr := base64.StdEncoding.DecodeString(*pub)
	if kErr != nil {
		t.Fatal(kErr)
	}
	privKey, kErr := base64.StdEncoding.DecodeString(*priv)
	if kErr != nil {
		t.Fatal(kErr)
	}
	if len(pubKey) != 32 {
		t.Fatal("invalid public key length")
	}
	if len(privKey) != 64 {
		t.Fatal("invalid private key length")
	}
}

func TestSignVerifyHex(t *testing.T) {
	pub, priv, err := GenerateEd25519KeyPair()
	if err != nil {
		t.Fatal(err)
	}
	privBytes, _ := base64.StdEncoding.DecodeString(*priv)
	message := []byte(CanonicalProofMessage("abc123", 1704096000000, 14.599520, 120.984230))
	signature, err := SignToHex(message, privBytes)
	if err != nil {
		t.Fatal(err)
	}
	if len(signature) != 128 {
		t.Fatal("invalid hex signature length")
	}
	verified, err := VerifyHex(message, signature, *pub)
	if err != nil {
		t.Fatal(err)
	}
	if !verified {
		t.Fatal("invalid signature")
	}
}

func TestVerifyHexRejectsMutation(t *testing.T) {
	pub, priv, err := GenerateEd25519KeyPair()
	if err != nil {
		t.Fatal(err)
	}
	privBytes, _ := base64.StdEncoding.DecodeString(*priv)
	message := []byte(CanonicalProofMessage("abc123", 1704096000000, 14.599520, 120.984230))
	signature, _ := SignToHex(message, privBytes)

	mutations := []string{
		CanonicalProofMessage("abc124", 1704096000000, 14.599520, 120.984230),
		CanonicalProofMessage("abc123", 1704096000001, 14.599520, 120.984230),
		CanonicalProofMessage("abc123", 1704096000000, 14.599521, 120.984230),
		CanonicalProofMessage("abc123", 1704096000000, 14.599520, 120.984231),
	}
	for _, m := range mutations {
		verified, vErr := VerifyHex([]byte(m), signature, *pub)
		if vErr != nil {
			t.Fatal(vErr)
		}
		assert.False(t, verified)
	}
}

func TestVerifyHexBadSignatureEncoding(t *testing.T) {
	pub, _, err := GenerateEd25519KeyPair()
	if err != nil {
		t.Fatal(err)
	}
	verified, vErr := VerifyHex([]byte("message"), "not-hex", *pub)
	assert.Error(t, vErr)
	assert.False(t, verified)
}

func TestGenerateSessionToken(t *testing.T) {
	token, err := GenerateSessionToken()
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, 32, len(token))
	second, _ := GenerateSessionToken()
	assert.NotEqual(t, token, second)
}

func TestIsEd25519PublicKey(t *testing.T) {
	pub, _, err := GenerateEd25519KeyPair()
	if err != nil {
		t.Fatal(err)
	}
	assert.True(t, IsEd25519PublicKey(*pub))
	assert.False(t, IsEd25519PublicKey("dG9vc2hvcnQ="))
	assert.False(t, IsEd25519PublicKey("*** not base64 ***"))
}
