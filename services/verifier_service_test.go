package services

import (
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/rollcall/go-rollcall-server/types"
	"github.com/rollcall/go-rollcall-server/util"
	"github.com/tj/assert"
)

// in-memory store fakes

type fakeSessionStore struct {
	sessions map[string]*types.AttendanceSession
}

func (f *fakeSessionStore) GetByToken(token string) (*types.AttendanceSession, error) {
	if s, ok := f.sessions[token]; ok {
		return s, nil
	}
	return nil, types.ErrNotFound
}

type fakeDeviceKeyStore struct {
	keys map[string]*types.DeviceKey
}

func (f *fakeDeviceKeyStore) GetByUserID(userID string) (*types.DeviceKey, error) {
	if k, ok := f.keys[userID]; ok {
		return k, nil
	}
	return nil, types.ErrNotFound
}

type fakeAttendanceStore struct {
	records []*types.AttendanceRecord
	failing bool
}

func (f *fakeAttendanceStore) Insert(record *types.AttendanceRecord) error {
	if f.failing {
		return types.ErrInternal
	}
	record.ID = "record-" + time.Now().Format("150405.000000000")
	f.records = append(f.records, record)
	return nil
}

type verifierFixture struct {
	verifier   *ProofVerifier
	sessions   *fakeSessionStore
	keys       *fakeDeviceKeyStore
	records    *fakeAttendanceStore
	privateKey []byte
	publicKey  string
	userID     string
}

const (
	testToken     = "abc123"
	testTimestamp = "2024-01-01T08:00:00.000Z"
	sessionLat    = 14.599512
	sessionLng    = 120.984222
	deviceLat     = 14.599520
	deviceLng     = 120.984230
)

// newVerifierFixture wires a verifier against fakes with one registered
// key for user "u1" and one session for testToken, expiring in 10 minutes.
func newVerifierFixture(t *testing.T) *verifierFixture {
	pub, priv, err := util.GenerateEd25519KeyPair()
	if err != nil {
		t.Fatal(err)
	}
	privBytes, _ := base64.StdEncoding.DecodeString(*priv)

	sessions := &fakeSessionStore{sessions: map[string]*types.AttendanceSession{
		testToken: {
			BaseDocument: types.BaseDocument{UnderstoreID: "session-1"},
			Token:        testToken,
			Latitude:     sessionLat,
			Longitude:    sessionLng,
			RadiusMeters: 50,
			ExpiresAt:    time.Now().UTC().Add(10 * time.Minute).UnixMilli(),
		},
	}}
	keys := &fakeDeviceKeyStore{keys: map[string]*types.DeviceKey{
		"u1": {
			UserID:       "u1",
			PublicKey:    *pub,
			DeviceID:     "device-1",
			RegisteredAt: time.Now().UTC().UnixMilli(),
		},
	}}
	records := &fakeAttendanceStore{}

	return &verifierFixture{
		verifier:   NewProofVerifier(sessions, keys, records, nil),
		sessions:   sessions,
		keys:       keys,
		records:    records,
		privateKey: privBytes,
		publicKey:  *pub,
		userID:     "u1",
	}
}

// signedProof builds a proof signed with the fixture's private key
func (f *verifierFixture) signedProof(t *testing.T, token string, lat, lng float64, timestamp string) *types.InputProof {
	tsMillis, err := util.ParseProofTimestamp(timestamp)
	if err != nil {
		t.Fatal(err)
	}
	message := util.CanonicalProofMessage(token, tsMillis, lat, lng)
	signature, sErr := util.SignToHex([]byte(message), f.privateKey)
	if sErr != nil {
		t.Fatal(sErr)
	}
	return &types.InputProof{
		Token:     token,
		Latitude:  lat,
		Longitude: lng,
		Timestamp: timestamp,
		Signature: signature,
	}
}

func TestVerifyEndToEnd(t *testing.T) {
	f := newVerifierFixture(t)
	proof := f.signedProof(t, testToken, deviceLat, deviceLng, testTimestamp)

	record, err := f.verifier.Verify(f.userID, proof)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, 1, len(f.records.records))
	assert.Equal(t, types.AttendanceMethodCryptoProof, record.Method)
	assert.True(t, record.Verified)
	assert.Equal(t, f.userID, record.VerifiedBy)
	assert.Equal(t, "session-1", record.Metadata.SessionID)
	assert.Equal(t, f.publicKey, record.Metadata.PublicKey)
	assert.Equal(t, "device-1", record.Metadata.DeviceID)
	// ~1m away from the session center
	assert.True(t, record.Metadata.DistanceMeters <= 2)
}

func TestVerifyDoubleSubmitInsertsTwice(t *testing.T) {
	// documents the current non-idempotent behavior: a resubmitted valid
	// proof before expiry is accepted again and commits a second record
	f := newVerifierFixture(t)
	proof := f.signedProof(t, testToken, deviceLat, deviceLng, testTimestamp)

	_, err1 := f.verifier.Verify(f.userID, proof)
	_, err2 := f.verifier.Verify(f.userID, proof)
	assert.NoError(t, err1)
	assert.NoError(t, err2)
	assert.Equal(t, 2, len(f.records.records))
}

func TestVerifyInvalidPayload(t *testing.T) {
	f := newVerifierFixture(t)

	cases := []*types.InputProof{
		nil,
		{Token: "", Latitude: deviceLat, Longitude: deviceLng, Timestamp: testTimestamp, Signature: "abcd"},
		{Token: testToken, Latitude: 91, Longitude: deviceLng, Timestamp: testTimestamp, Signature: "abcd"},
		{Token: testToken, Latitude: deviceLat, Longitude: -181, Timestamp: testTimestamp, Signature: "abcd"},
		{Token: testToken, Latitude: deviceLat, Longitude: deviceLng, Timestamp: "", Signature: "abcd"},
		{Token: testToken, Latitude: deviceLat, Longitude: deviceLng, Timestamp: "yesterday", Signature: "abcd"},
		{Token: testToken, Latitude: deviceLat, Longitude: deviceLng, Timestamp: testTimestamp, Signature: ""},
	}
	for _, c := range cases {
		_, err := f.verifier.Verify(f.userID, c)
		assert.Equal(t, types.ErrBadRequest, err)
	}
	assert.Equal(t, 0, len(f.records.records))
}

func TestVerifyUnknownToken(t *testing.T) {
	f := newVerifierFixture(t)
	proof := f.signedProof(t, "no-such-token", deviceLat, deviceLng, testTimestamp)

	_, err := f.verifier.Verify(f.userID, proof)
	assert.Equal(t, types.ErrSessionNotFound, err)
	assert.Equal(t, 0, len(f.records.records))
}

func TestVerifyExpiryBoundary(t *testing.T) {
	f := newVerifierFixture(t)
	proof := f.signedProof(t, testToken, deviceLat, deviceLng, testTimestamp)

	// one second in the past: rejected
	f.sessions.sessions[testToken].ExpiresAt = time.Now().UTC().Add(-1 * time.Second).UnixMilli()
	_, err := f.verifier.Verify(f.userID, proof)
	assert.Equal(t, types.ErrSessionExpired, err)

	// one second in the future: accepted
	f.sessions.sessions[testToken].ExpiresAt = time.Now().UTC().Add(1 * time.Second).UnixMilli()
	_, err = f.verifier.Verify(f.userID, proof)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(f.records.records))
}

func TestVerifyGeofenceBoundary(t *testing.T) {
	f := newVerifierFixture(t)
	proof := f.signedProof(t, testToken, deviceLat, deviceLng, testTimestamp)
	distance := util.HaversineMeters(deviceLat, deviceLng, sessionLat, sessionLng)

	// radius exactly equal to the distance: inclusive boundary, accepted
	f.sessions.sessions[testToken].RadiusMeters = distance
	_, err := f.verifier.Verify(f.userID, proof)
	assert.NoError(t, err)

	// a hair under the distance: rejected
	f.sessions.sessions[testToken].RadiusMeters = distance - 0.01
	_, err = f.verifier.Verify(f.userID, proof)
	assert.Equal(t, types.ErrOutOfRange, err)
	assert.Equal(t, 1, len(f.records.records))
}

func TestVerifyDefaultRadius(t *testing.T) {
	f := newVerifierFixture(t)
	// session without an explicit radius falls back to the 50m default
	f.sessions.sessions[testToken].RadiusMeters = 0

	proof := f.signedProof(t, testToken, deviceLat, deviceLng, testTimestamp)
	_, err := f.verifier.Verify(f.userID, proof)
	assert.NoError(t, err)

	// ~8.4km away (Quezon City) is far outside any sane default
	far := f.signedProof(t, testToken, 14.676041, 121.043700, testTimestamp)
	_, err = f.verifier.Verify(f.userID, far)
	assert.Equal(t, types.ErrOutOfRange, err)
}

func TestVerifyKeyNotRegistered(t *testing.T) {
	f := newVerifierFixture(t)
	proof := f.signedProof(t, testToken, deviceLat, deviceLng, testTimestamp)

	_, err := f.verifier.Verify("stranger", proof)
	assert.Equal(t, types.ErrKeyNotRegistered, err)
	assert.Equal(t, 0, len(f.records.records))
}

func TestVerifyTamperedFields(t *testing.T) {
	f := newVerifierFixture(t)
	valid := f.signedProof(t, testToken, deviceLat, deviceLng, testTimestamp)

	tampered := []*types.InputProof{
		{Token: valid.Token, Latitude: valid.Latitude + 0.000010, Longitude: valid.Longitude, Timestamp: valid.Timestamp, Signature: valid.Signature},
		{Token: valid.Token, Latitude: valid.Latitude, Longitude: valid.Longitude + 0.000010, Timestamp: valid.Timestamp, Signature: valid.Signature},
		{Token: valid.Token, Latitude: valid.Latitude, Longitude: valid.Longitude, Timestamp: "2024-01-01T08:00:01.000Z", Signature: valid.Signature},
		{Token: valid.Token, Latitude: valid.Latitude, Longitude: valid.Longitude, Timestamp: valid.Timestamp, Signature: "00" + valid.Signature[2:]},
	}
	for _, p := range tampered {
		_, err := f.verifier.Verify(f.userID, p)
		assert.Equal(t, types.ErrSignatureInvalid, err)
	}
	assert.Equal(t, 0, len(f.records.records))
}

func TestVerifySignatureFromWrongKey(t *testing.T) {
	f := newVerifierFixture(t)

	// a proof signed by some other device's key never verifies
	_, otherPriv, err := util.GenerateEd25519KeyPair()
	if err != nil {
		t.Fatal(err)
	}
	otherPrivBytes, _ := base64.StdEncoding.DecodeString(*otherPriv)
	tsMillis, _ := util.ParseProofTimestamp(testTimestamp)
	message := util.CanonicalProofMessage(testToken, tsMillis, deviceLat, deviceLng)
	signature, _ := util.SignToHex([]byte(message), otherPrivBytes)

	proof := &types.InputProof{
		Token:     testToken,
		Latitude:  deviceLat,
		Longitude: deviceLng,
		Timestamp: testTimestamp,
		Signature: signature,
	}
	_, vErr := f.verifier.Verify(f.userID, proof)
	assert.Equal(t, types.ErrSignatureInvalid, vErr)
}

func TestVerifyPersistenceFailure(t *testing.T) {
	f := newVerifierFixture(t)
	f.records.failing = true

	proof := f.signedProof(t, testToken, deviceLat, deviceLng, testTimestamp)
	_, err := f.verifier.Verify(f.userID, proof)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, types.ErrSignatureInvalid))
	assert.Equal(t, 0, len(f.records.records))
}

func TestVerifyTimezoneOffsetSameInstant(t *testing.T) {
	// the canonical message carries epoch milliseconds, so a timestamp
	// serialized with an offset still verifies when it names the same instant
	f := newVerifierFixture(t)
	proof := f.signedProof(t, testToken, deviceLat, deviceLng, testTimestamp)
	proof.Timestamp = "2024-01-01T16:00:00+08:00"

	_, err := f.verifier.Verify(f.userID, proof)
	assert.NoError(t, err)
}
