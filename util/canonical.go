package util

import (
	"fmt"
	"time"

	"github.com/rollcall/go-rollcall-server/types"
)

// canonical message version prefix; bump on any change to the encoding
const proofMessageVersion = "v1"

// CanonicalProofMessage builds the exact string signed by the device and
// reconstructed by the verifier. Coordinates are fixed-point with six
// decimals and the timestamp is UTC epoch milliseconds, so both sides
// produce byte-identical messages regardless of how the ISO timestamp was
// serialized in transit.
func CanonicalProofMessage(token string, timestampMillis int64, lat float64, lng float64) string {
	return fmt.Sprintf("%s|%s|%d|%.6f|%.6f", proofMessageVersion, token, timestampMillis, lat, lng)
}

// ParseProofTimestamp converts an ISO-8601 timestamp to UTC epoch milliseconds
func ParseProofTimestamp(iso string) (int64, error) {
	if iso == "" {
		return 0, types.ErrBadRequest
	}
	t, err := time.Parse(time.RFC3339Nano, iso)
	if err != nil {
		return 0, err
	}
	return t.UTC().UnixMilli(), nil
}
