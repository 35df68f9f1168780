package types

// AttendanceSession is one attendance-taking window bound to a location.
// The token is the opaque credential handed to devices out-of-band
// (typically rendered as a QR code by the admin client).
type AttendanceSession struct {
	BaseDocument `json:",inline"`
	Token        string  `json:"token" validate:"required"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	RadiusMeters float64 `json:"radiusMeters,omitempty"`
	ExpiresAt    int64   `json:"expiresAt"` // epoch milliseconds UTC
	Created      int64   `json:"created,omitempty"`
	CreatedBy    string  `json:"createdBy,omitempty"`
}
