package device

import (
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rollcall/go-rollcall-server/types"
	"github.com/rollcall/go-rollcall-server/util"
)

// Identity is the device-side client: it owns the sealed signing key,
// gates every signature behind the biometric check and talks to the
// attendance server over its REST API.
type Identity struct {
	store    SecureKeyStore
	gate     BiometricGate
	client   *resty.Client
	userID   string
	deviceID string
	token    string // JWS access token, set after Login
}

func NewIdentity(store SecureKeyStore, gate BiometricGate, serverURL, userID, deviceID string) *Identity {
	client := resty.New().
		SetBaseURL(serverURL).
		SetTimeout(30 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &Identity{
		store:    store,
		gate:     gate,
		client:   client,
		userID:   userID,
		deviceID: deviceID,
	}
}

// EnsureIdentity returns the device public key in base64, generating and
// sealing a fresh key pair on first use. Idempotent: an existing key is
// never replaced. Fails with ErrKeyStorage or ErrKeyGeneration.
func (id *Identity) EnsureIdentity(passphrase string) (string, error) {
	if id.store.HasPrivate() {
		public, err := id.store.PublicKey()
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrKeyStorage, err)
		}
		return base64.StdEncoding.EncodeToString(public), nil
	}
	public, err := id.store.Generate(passphrase)
	if err != nil {
		if errors.Is(err, ErrKeyGeneration) {
			return "", err
		}
		if errors.Is(err, ErrKeyStorage) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ErrKeyStorage, err)
	}
	return base64.StdEncoding.EncodeToString(public), nil
}

// Login obtains a challenge nonce, signs it and exchanges the signature
// for a JWS access token. The signature requires the biometric gate.
func (id *Identity) Login(passphrase string) error {
	var nonceResp types.NonceResponse
	resp, err := id.client.R().SetResult(&nonceResp).Get("/api/v1/nonce")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("%w: %s", ErrServerRejected, resp.Status())
	}

	if gErr := id.gate.Authenticate("Sign in to the attendance server"); gErr != nil {
		return gErr
	}
	private, pErr := id.store.PrivateKey(passphrase)
	if pErr != nil {
		return pErr
	}
	public, pubErr := id.store.PublicKey()
	if pubErr != nil {
		return pubErr
	}
	signature, sErr := util.SignToBase64([]byte(nonceResp.Nonce), private)
	if sErr != nil {
		return sErr
	}

	login := &types.InputLogin{
		UserID:                        id.userID,
		Nonce:                         nonceResp.Nonce,
		Ed25519SigningPublicKeyBase64: base64.StdEncoding.EncodeToString(public),
		SignatureBase64:               signature,
	}
	var token types.JwsToken
	lResp, lErr := id.client.R().SetBody(login).SetResult(&token).Post("/api/v1/login")
	if lErr != nil {
		return lErr
	}
	if lResp.IsError() {
		return fmt.Errorf("%w: %s", ErrServerRejected, lResp.Status())
	}
	id.token = token.Token
	return nil
}

// RegisterPublicKey uploads the device public key under the logged-in
// user. Re-registering after a reinstall overwrites the previous key.
// Not retried automatically: the caller decides.
func (id *Identity) RegisterPublicKey() (*types.DeviceKey, error) {
	if id.token == "" {
		return nil, ErrAuthenticationRequired
	}
	public, err := id.store.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyStorage, err)
	}
	input := &types.InputDeviceKey{
		PublicKey: base64.StdEncoding.EncodeToString(public),
		DeviceID:  id.deviceID,
	}
	var saved types.DeviceKey
	resp, rErr := id.client.R().
		SetAuthToken(id.token).
		SetBody(input).
		SetResult(&saved).
		Put("/api/v1/devicekeys")
	if rErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrRegistration, rErr)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: %s", ErrRegistration, resp.Status())
	}
	return &saved, nil
}

// SignProof builds a signed attendance proof for the given session token
// and device location. The biometric gate runs before the key is unsealed;
// the timestamp is normalized to UTC milliseconds inside the signed message.
// Fails with ErrBiometricUnavailable, ErrBiometricNotEnrolled,
// ErrAuthenticationCancelled or ErrSigning; all terminal per attempt.
func (id *Identity) SignProof(passphrase, sessionToken string, lat, lng float64, at time.Time) (*types.InputProof, error) {
	if !id.gate.HasHardware() {
		return nil, ErrBiometricUnavailable
	}
	if !id.gate.IsEnrolled() {
		return nil, ErrBiometricNotEnrolled
	}
	if gErr := id.gate.Authenticate("Confirm attendance check-in"); gErr != nil {
		return nil, gErr
	}
	// the keystore re-checks the passphrase on every read, the explicit
	// gate above is defense in depth
	private, err := id.store.PrivateKey(passphrase)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigning, err)
	}

	atUTC := at.UTC()
	message := util.CanonicalProofMessage(sessionToken, atUTC.UnixMilli(), lat, lng)
	signature, sErr := util.SignToHex([]byte(message), private)
	if sErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigning, sErr)
	}
	return &types.InputProof{
		Token:     sessionToken,
		Latitude:  lat,
		Longitude: lng,
		Timestamp: atUTC.Format("2006-01-02T15:04:05.000Z"),
		Signature: signature,
	}, nil
}

// CheckIn signs a proof for the current moment and submits it
func (id *Identity) CheckIn(passphrase, sessionToken string, lat, lng float64) (*types.OutputVerified, error) {
	if id.token == "" {
		return nil, ErrAuthenticationRequired
	}
	proof, err := id.SignProof(passphrase, sessionToken, lat, lng, time.Now())
	if err != nil {
		return nil, err
	}
	var verified types.OutputVerified
	resp, rErr := id.client.R().
		SetAuthToken(id.token).
		SetBody(proof).
		SetResult(&verified).
		Post("/api/v1/attendance/verify")
	if rErr != nil {
		return nil, rErr
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: %s", ErrServerRejected, resp.Status())
	}
	return &verified, nil
}

// Token exposes the current access token (for the CLI to persist)
func (id *Identity) Token() string {
	return id.token
}

// SetToken restores a previously issued access token
func (id *Identity) SetToken(token string) {
	id.token = token
}
