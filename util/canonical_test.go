package util

import (
	"testing"

	"github.com/tj/assert"
)

func TestCanonicalProofMessageFormatting(t *testing.T) {
	msg := CanonicalProofMessage("abc123", 1704096000000, 14.5, -14.123456789)
	assert.Equal(t, "v1|abc123|1704096000000|14.500000|-14.123457", msg)
}

func TestCanonicalProofMessageDeterminism(t *testing.T) {
	a := CanonicalProofMessage("tok", 1700000000000, 14.599512, 120.984222)
	b := CanonicalProofMessage("tok", 1700000000000, 14.599512, 120.984222)
	assert.Equal(t, a, b)
}

func TestParseProofTimestamp(t *testing.T) {
	millis, err := ParseProofTimestamp("2024-01-01T08:00:00.000Z")
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, int64(1704096000000), millis)

	// timezone offsets normalize to the same instant
	offset, err := ParseProofTimestamp("2024-01-01T16:00:00+08:00")
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, millis, offset)
}

func TestParseProofTimestampInvalid(t *testing.T) {
	_, err := ParseProofTimestamp("")
	assert.Error(t, err)

	_, err = ParseProofTimestamp("01/01/2024 08:00")
	assert.Error(t, err)
}
