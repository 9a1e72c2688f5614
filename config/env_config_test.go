package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadEnvConfigGPSFlags(t *testing.T) {
	t.Run("defaults off", func(t *testing.T) {
		t.Setenv("ARTCAP_GPS_ENABLED", "")
		t.Setenv("ARTCAP_GPS_REQUIRED", "")
		cfg := LoadEnvConfig()
		assert.False(t, cfg.Capture.GPSEnabled)
		assert.False(t, cfg.Capture.GPSRequired)
	})

	t.Run("required implies enabled", func(t *testing.T) {
		t.Setenv("ARTCAP_GPS_ENABLED", "")
		t.Setenv("ARTCAP_GPS_REQUIRED", "true")
		cfg := LoadEnvConfig()
		assert.True(t, cfg.Capture.GPSRequired)
		assert.True(t, cfg.Capture.GPSEnabled)
	})
}
