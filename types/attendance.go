package types

const (
	// attendance committed through the cryptographic proof protocol
	AttendanceMethodCryptoProof = "crypto_proof"
	// attendance entered manually by an admin (external flows, kept for audit queries)
	AttendanceMethodManual = "manual"
)

// AttendanceRecord is written exactly once per successfully verified proof.
type AttendanceRecord struct {
	BaseDocument `json:",inline"`
	UserID       string         `json:"userId" validate:"required"`
	Method       string         `json:"method" validate:"required"`
	Verified     bool           `json:"verified"`
	VerifiedAt   int64          `json:"verifiedAt"` // epoch milliseconds UTC
	VerifiedBy   string         `json:"verifiedBy"` // self-reference for self-verified crypto proofs
	Metadata     *ProofMetadata `json:"metadata,omitempty"`
}

// ProofMetadata captures the full proof for audit/forensics.
type ProofMetadata struct {
	Token           string  `json:"token"`
	Timestamp       string  `json:"timestamp"` // as submitted, ISO-8601
	TimestampMillis int64   `json:"timestampMillis"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	DistanceMeters  int64   `json:"distanceMeters"` // rounded to the nearest meter
	PublicKey       string  `json:"publicKey"`      // base64 key the signature verified against
	DeviceID        string  `json:"deviceId,omitempty"`
	SessionID       string  `json:"sessionId"`
	Signature       string  `json:"signature"` // lowercase hex
}
