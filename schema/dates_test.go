package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseUserDate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"six digit day first", "020286", "1986-02-02"},
		{"six digit recent year", "150324", "2024-03-15"},
		{"six digit fifty boundary", "010150", "1950-01-01"},
		{"eight digit day first", "02021986", "1986-02-02"},
		{"slash day first", "15/03/2024", "2024-03-15"},
		{"slash ambiguous stays day first", "02/03/2024", "2024-03-02"},
		{"dash day first", "15-03-2024", "2024-03-15"},
		{"dot day first", "15.03.2024", "2024-03-15"},
		{"two digit year slash", "15/03/24", "2024-03-15"},
		{"iso passthrough", "2024-03-15", "2024-03-15"},
		{"whitespace trimmed", "  2024-03-15  ", "2024-03-15"},
		{"empty", "", ""},
		{"garbage", "not a date", ""},
		{"impossible day", "32012024", ""},
		{"february rollover rejected", "30022024", ""},
		{"seven digits", "1234567", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseUserDate(tt.in))
		})
	}
}

func TestParseUserTimestamp(t *testing.T) {
	assert.Equal(t, "2024-03-15T00:00:00", ParseUserTimestamp("150324"))
	assert.Equal(t, "", ParseUserTimestamp("nonsense"))
}

func TestNowTimestampFormat(t *testing.T) {
	ts := NowTimestamp()
	parsed, err := time.Parse(TimestampFormat, ts)
	assert.NoError(t, err)
	assert.WithinDuration(t, time.Now(), parsed, time.Minute)
}
