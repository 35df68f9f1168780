package device

import (
	"crypto/ed25519"
	"encoding/base64"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/rollcall/go-rollcall-server/types"
	"github.com/rollcall/go-rollcall-server/util"
	"github.com/tj/assert"
)

const testPassphrase = "correct horse battery staple"

func TestEnsureIdentityIdempotent(t *testing.T) {
	id := NewIdentity(&MemoryKeyStore{}, NewStubGate(), "http://localhost:8080", "u1", "d1")

	first, err := id.EnsureIdentity(testPassphrase)
	assert.NoError(t, err)
	assert.NotEmpty(t, first)

	second, err := id.EnsureIdentity(testPassphrase)
	assert.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFileKeyStoreRoundtrip(t *testing.T) {
	ks, err := NewFileKeyStore(t.TempDir())
	assert.NoError(t, err)
	assert.False(t, ks.HasPrivate())

	public, err := ks.Generate(testPassphrase)
	assert.NoError(t, err)
	assert.True(t, ks.HasPrivate())

	// second generate must not replace the key
	_, err = ks.Generate(testPassphrase)
	assert.Equal(t, ErrIdentityExists, err)

	stored, err := ks.PublicKey()
	assert.NoError(t, err)
	assert.Equal(t, []byte(public), []byte(stored))

	private, err := ks.PrivateKey(testPassphrase)
	assert.NoError(t, err)
	assert.Equal(t, []byte(public), []byte(private.Public().(ed25519.PublicKey)))
}

func TestFileKeyStoreWrongPassphrase(t *testing.T) {
	ks, err := NewFileKeyStore(t.TempDir())
	assert.NoError(t, err)
	_, err = ks.Generate(testPassphrase)
	assert.NoError(t, err)

	_, err = ks.PrivateKey("not the passphrase")
	assert.Equal(t, ErrWrongPassphrase, err)
}

func TestFileKeyStoreDeviceIDStable(t *testing.T) {
	ks, err := NewFileKeyStore(t.TempDir())
	assert.NoError(t, err)

	first, err := ks.DeviceID()
	assert.NoError(t, err)
	assert.Equal(t, 32, len(first))

	second, err := ks.DeviceID()
	assert.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSignProofVerifiable(t *testing.T) {
	store := &MemoryKeyStore{}
	id := NewIdentity(store, NewStubGate(), "http://localhost:8080", "u1", "d1")
	publicB64, err := id.EnsureIdentity(testPassphrase)
	assert.NoError(t, err)

	at := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	proof, err := id.SignProof(testPassphrase, "abc123", 14.599512, 120.984222, at)
	assert.NoError(t, err)
	assert.Equal(t, "2024-01-01T08:00:00.000Z", proof.Timestamp)

	tsMillis, err := util.ParseProofTimestamp(proof.Timestamp)
	assert.NoError(t, err)
	message := util.CanonicalProofMessage(proof.Token, tsMillis, proof.Latitude, proof.Longitude)
	ok, err := util.VerifyHex([]byte(message), proof.Signature, publicB64)
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestSignProofBiometricDenied(t *testing.T) {
	id := NewIdentity(&MemoryKeyStore{}, &StubGate{Hardware: true, Enrolled: true, Allow: false}, "http://localhost:8080", "u1", "d1")
	_, err := id.EnsureIdentity(testPassphrase)
	assert.NoError(t, err)

	_, sErr := id.SignProof(testPassphrase, "abc123", 14.599512, 120.984222, time.Now())
	assert.Equal(t, ErrAuthenticationCancelled, sErr)
}

func TestSignProofBiometricUnavailable(t *testing.T) {
	id := NewIdentity(&MemoryKeyStore{}, &StubGate{Hardware: false}, "http://localhost:8080", "u1", "d1")
	_, err := id.EnsureIdentity(testPassphrase)
	assert.NoError(t, err)

	_, sErr := id.SignProof(testPassphrase, "abc123", 14.599512, 120.984222, time.Now())
	assert.Equal(t, ErrBiometricUnavailable, sErr)
}

func TestSignProofBiometricNotEnrolled(t *testing.T) {
	id := NewIdentity(&MemoryKeyStore{}, &StubGate{Hardware: true, Enrolled: false}, "http://localhost:8080", "u1", "d1")
	_, err := id.EnsureIdentity(testPassphrase)
	assert.NoError(t, err)

	_, sErr := id.SignProof(testPassphrase, "abc123", 14.599512, 120.984222, time.Now())
	assert.Equal(t, ErrBiometricNotEnrolled, sErr)
}

func TestLoginAndCheckIn(t *testing.T) {
	store := &MemoryKeyStore{}
	id := NewIdentity(store, NewStubGate(), "http://server.local", "u1", "d1")
	publicB64, err := id.EnsureIdentity(testPassphrase)
	assert.NoError(t, err)

	httpmock.ActivateNonDefault(id.client.GetClient())
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", "http://server.local/api/v1/nonce",
		func(req *http.Request) (*http.Response, error) {
			return httpmock.NewJsonResponse(200, types.NonceResponse{Nonce: "challenge-1"})
		})
	httpmock.RegisterResponder("POST", "http://server.local/api/v1/login",
		func(req *http.Request) (*http.Response, error) {
			return httpmock.NewJsonResponse(200, types.JwsToken{Token: "jws-token"})
		})
	httpmock.RegisterResponder("PUT", "http://server.local/api/v1/devicekeys",
		func(req *http.Request) (*http.Response, error) {
			return httpmock.NewJsonResponse(200, types.DeviceKey{UserID: "u1", PublicKey: publicB64, DeviceID: "d1"})
		})
	httpmock.RegisterResponder("POST", "http://server.local/api/v1/attendance/verify",
		func(req *http.Request) (*http.Response, error) {
			return httpmock.NewJsonResponse(200, types.OutputVerified{IsOK: true, RecordID: "r1", DistanceMeters: 1})
		})

	// registration before login fails fast
	_, rErr := id.RegisterPublicKey()
	assert.Equal(t, ErrAuthenticationRequired, rErr)

	assert.NoError(t, id.Login(testPassphrase))
	assert.Equal(t, "jws-token", id.Token())

	saved, rErr := id.RegisterPublicKey()
	assert.NoError(t, rErr)
	assert.Equal(t, publicB64, saved.PublicKey)

	verified, cErr := id.CheckIn(testPassphrase, "abc123", 14.599512, 120.984222)
	assert.NoError(t, cErr)
	assert.True(t, verified.IsOK)
	assert.Equal(t, "r1", verified.RecordID)
}

func TestLoginServerRejection(t *testing.T) {
	id := NewIdentity(&MemoryKeyStore{}, NewStubGate(), "http://server.local", "u1", "d1")
	_, err := id.EnsureIdentity(testPassphrase)
	assert.NoError(t, err)

	httpmock.ActivateNonDefault(id.client.GetClient())
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", "http://server.local/api/v1/nonce",
		httpmock.NewStringResponder(429, `{"code":429,"message":"too many requests"}`))

	lErr := id.Login(testPassphrase)
	assert.Error(t, lErr)
}

func TestPublicKeyEncoding(t *testing.T) {
	store := &MemoryKeyStore{}
	id := NewIdentity(store, NewStubGate(), "http://localhost:8080", "u1", "d1")
	publicB64, err := id.EnsureIdentity(testPassphrase)
	assert.NoError(t, err)

	raw, dErr := base64.StdEncoding.DecodeString(publicB64)
	assert.NoError(t, dErr)
	assert.Equal(t, 32, len(raw))
	assert.True(t, util.IsEd25519PublicKey(publicB64))
}
