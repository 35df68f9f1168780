package types

// DeviceKey is the registered signing key of a user's device.
// A user has at most one active key; re-registration overwrites it.
type DeviceKey struct {
	BaseDocument `json:",inline"` // user id is the document _id
	UserID       string           `json:"userId" validate:"required"`
	PublicKey    string           `json:"publicKey" validate:"required"` // base64 Ed25519 public key
	DeviceID     string           `json:"deviceId,omitempty"`
	RegisteredAt int64            `json:"registeredAt"` // when the current key was first registered
	Updated      int64            `json:"updated,omitempty"`
}
