package schema

import (
	"encoding/json"

	"github.com/fieldworks/artifact-capture/entity"
)

// Signature computes the canonical metadata signature for a set of coerced
// field values. Timestamp-family and server-managed fields are excluded so
// that repeated photo captures of the same physical record match even when
// taken minutes apart.
//
// The encoding is compact JSON with lexicographically sorted keys, which
// json.Marshal guarantees for maps: two submissions with identical
// non-timestamp values produce byte-identical signatures.
func Signature(s *entity.ObjectTypeSchema, values map[string]any) string {
	sig := make(map[string]any, len(values))
	for i := range s.Fields {
		f := &s.Fields[i]
		if f.ServerManaged || f.Kind.IsTimestampFamily() {
			continue
		}
		if v, ok := values[f.Column]; ok {
			sig[f.Column] = normalizeSignatureValue(v)
		}
	}
	encoded, _ := json.Marshal(sig)
	return string(encoded)
}

// normalizeSignatureValue folds the typed coercion results into the small set
// of JSON shapes the signature is defined over. Integers are widened to
// float64 so a value read back from the store (database/sql returns int64 or
// float64 depending on driver) signs identically to a freshly coerced one.
func normalizeSignatureValue(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float32:
		return float64(n)
	default:
		return v
	}
}
