package types

// proof submission body (caller identity comes from the bearer token, not the body)
type InputProof struct {
	Token     string  `json:"token" validate:"required"`
	Latitude  float64 `json:"lat" validate:"min=-90,max=90"`
	Longitude float64 `json:"lng" validate:"min=-180,max=180"`
	Timestamp string  `json:"timestamp" validate:"required"` // ISO-8601
	Signature string  `json:"signature" validate:"required,hexadecimal"`
}

// for login
type InputLogin struct {
	UserID                        string `json:"userId" validate:"required"`
	Nonce                         string `json:"nonce" validate:"required"`
	Ed25519SigningPublicKeyBase64 string `json:"ed25519SigningPublicKeyBase64" validate:"required"`
	SignatureBase64               string `json:"signature" validate:"required"` // signed nonce as proof of owning the private key
}

// device key registration (upsert)
type InputDeviceKey struct {
	PublicKey string `json:"publicKey" validate:"required"` // base64 Ed25519 public key
	DeviceID  string `json:"deviceId" validate:"required"`
}

// attendance session creation (admin flow)
type InputSession struct {
	Latitude        float64 `json:"lat" validate:"min=-90,max=90"`
	Longitude       float64 `json:"lng" validate:"min=-180,max=180"`
	RadiusMeters    float64 `json:"radiusMeters,omitempty" validate:"omitempty,gt=0"`
	DurationMinutes int     `json:"durationMinutes,omitempty" validate:"omitempty,gt=0"`
}
