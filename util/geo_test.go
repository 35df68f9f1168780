package util

import (
	"testing"

	"github.com/tj/assert"
)

func TestHaversineSamePoint(t *testing.T) {
	d := HaversineMeters(14.599512, 120.984222, 14.599512, 120.984222)
	assert.Equal(t, float64(0), d)
}

func TestHaversineNearbyPoint(t *testing.T) {
	// ~1 meter apart (spec scenario coordinates, Manila)
	d := HaversineMeters(14.599512, 120.984222, 14.599520, 120.984230)
	assert.True(t, d > 0.5)
	assert.True(t, d < 2.0)
}

func TestHaversineKnownDistance(t *testing.T) {
	// Manila city hall to Rizal Park, roughly 750m
	d := HaversineMeters(14.589793, 120.981617, 14.582919, 120.979683)
	assert.InDelta(t, 790, d, 100)
}

func TestHaversineSymmetric(t *testing.T) {
	a := HaversineMeters(14.5995, 120.9842, 14.6760, 121.0437)
	b := HaversineMeters(14.6760, 121.0437, 14.5995, 120.9842)
	assert.InDelta(t, a, b, 0.000001)
}
