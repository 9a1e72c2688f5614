package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDMSToDegrees(t *testing.T) {
	tests := []struct {
		name          string
		deg, min, sec float64
		ref           string
		want          float64
	}{
		{"north", 13, 30, 0, "N", 13.5},
		{"south negated", 13, 30, 0, "S", -13.5},
		{"east", 100, 15, 36, "E", 100.26},
		{"west negated", 100, 15, 36, "W", -100.26},
		{"seconds only", 0, 0, 36, "N", 0.01},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, DMSToDegrees(tt.deg, tt.min, tt.sec, tt.ref), 1e-9)
		})
	}
}

func TestExtractExifGarbageDegradesToZero(t *testing.T) {
	summary, fix := ExtractExif([]byte("not an image at all"))
	assert.Equal(t, "", summary.CaptureTime)
	assert.Equal(t, "", summary.Make)
	assert.Nil(t, fix.Lat)
	assert.Nil(t, fix.Lon)
	assert.False(t, fix.Valid())
}
