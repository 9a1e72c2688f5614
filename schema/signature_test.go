package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldworks/artifact-capture/entity"
)

func signatureSchema(t *testing.T) *entity.ObjectTypeSchema {
	t.Helper()
	s, err := Normalize("bags", RawObjectType{
		InputFields: [][]string{
			{"Unit", "unit", "TEXT"},
			{"Level", "level", "TEXT"},
			{"T-Number", "tnumber", "TEXT"},
			{"Count", "count", "INT"},
			{"Photo time", "photo_time", "TIMESTAMP"},
			{"Date recorded", "date_recorded", "TIMESTAMP"},
		},
	})
	require.NoError(t, err)
	return s
}

func TestSignatureDeterministic(t *testing.T) {
	s := signatureSchema(t)
	values := map[string]any{"unit": "A", "level": "2", "tnumber": "T5"}

	assert.Equal(t, Signature(s, values), Signature(s, values))
	assert.NotEmpty(t, Signature(s, values))
}

func TestSignatureIgnoresTimestampFamily(t *testing.T) {
	s := signatureSchema(t)

	first := Signature(s, map[string]any{
		"unit": "A", "level": "2",
		"photo_time":    "2024-03-15T10:00:00",
		"date_recorded": "2024-03-15T10:00:00",
	})
	second := Signature(s, map[string]any{
		"unit": "A", "level": "2",
		"photo_time":    "2024-03-15T10:00:42",
		"date_recorded": "2024-03-15T10:00:42",
	})
	assert.Equal(t, first, second)
}

func TestSignatureDistinguishesValues(t *testing.T) {
	s := signatureSchema(t)

	a := Signature(s, map[string]any{"unit": "A", "level": "2"})
	b := Signature(s, map[string]any{"unit": "A", "level": "3"})
	assert.NotEqual(t, a, b)
}

func TestSignatureStableAcrossIntWidths(t *testing.T) {
	s := signatureSchema(t)

	// a freshly coerced int64 and a float64 read back from the store must
	// sign identically
	fresh := Signature(s, map[string]any{"unit": "A", "count": int64(7)})
	readBack := Signature(s, map[string]any{"unit": "A", "count": float64(7)})
	assert.Equal(t, fresh, readBack)
}

func TestSignatureSortedCompactEncoding(t *testing.T) {
	s := signatureSchema(t)

	sig := Signature(s, map[string]any{"unit": "A", "level": "2", "tnumber": "T5"})
	assert.Equal(t, `{"level":"2","tnumber":"T5","unit":"A"}`, sig)
}
