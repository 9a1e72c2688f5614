package schema

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/fieldworks/artifact-capture/entity"
)

// Coerce converts raw form values into typed values keyed by column, in field
// declaration order. Malformed business data (bad numbers, bad dates) is
// softened to nil, never rejected; partial records are acceptable downstream.
//
// With allowMissing=true, fields absent from the input are skipped entirely
// (partial edits); with allowMissing=false every non-server field yields a
// key, empty input becoming nil.
func Coerce(s *entity.ObjectTypeSchema, raw map[string][]string, allowMissing bool) map[string]any {
	out := make(map[string]any, len(s.Fields))
	now := NowTimestamp()

	for i := range s.Fields {
		f := &s.Fields[i]

		if f.ServerManaged {
			out[f.Column] = now
			continue
		}

		switch f.Widget {
		case entity.WidgetConstant:
			out[f.Column] = f.ConstantValue
			continue
		case entity.WidgetRadio:
			selected := make([]string, 0, len(raw[f.Column]))
			for _, v := range raw[f.Column] {
				if t := strings.TrimSpace(v); t != "" {
					selected = append(selected, t)
				}
			}
			if len(selected) == 0 {
				if !allowMissing {
					out[f.Column] = nil
				}
				continue
			}
			encoded, _ := json.Marshal(selected)
			out[f.Column] = string(encoded)
			continue
		}

		vals, present := raw[f.Column]
		if !present && allowMissing {
			continue
		}
		var v string
		if len(vals) > 0 {
			v = strings.TrimSpace(vals[0])
		}
		if v == "" {
			out[f.Column] = nil
			continue
		}

		out[f.Column] = coerceScalar(f, v)
	}
	return out
}

func coerceScalar(f *entity.FieldDef, v string) any {
	switch f.Kind {
	case entity.FieldInt:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil
		}
		return n
	case entity.FieldFloat:
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil
		}
		return n
	case entity.FieldDate:
		if d := ParseUserDate(v); d != "" {
			return d
		}
		return nil
	case entity.FieldTimestamp:
		if ts := ParseUserTimestamp(v); ts != "" {
			return ts
		}
		return nil
	case entity.FieldUppercase:
		return strings.ToUpper(v)
	default:
		return v
	}
}

// MissingRequired returns the required columns whose coerced value is absent,
// nil or blank. A non-empty result must reject the submission before any
// record or file mutation.
func MissingRequired(s *entity.ObjectTypeSchema, values map[string]any) []string {
	var missing []string
	for _, col := range s.RequiredFields {
		v, ok := values[col]
		if !ok || v == nil {
			missing = append(missing, col)
			continue
		}
		if sv, isStr := v.(string); isStr && strings.TrimSpace(sv) == "" {
			missing = append(missing, col)
		}
	}
	return missing
}
