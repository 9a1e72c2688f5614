package schema

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/fieldworks/artifact-capture/entity"
)

// RawObjectType is one object-type block of the schema configuration before
// normalization. InputFields entries are 2-4 element tuples:
// label, column, type, optional widget-spec / constant value.
type RawObjectType struct {
	Label          string     `yaml:"label"`
	FilenameFormat string     `yaml:"filename_format"`
	InputFields    [][]string `yaml:"input_fields"`
	RequiredFields []string   `yaml:"required_fields"`
	ResultRows     [][]string `yaml:"result_rows"`
}

var columnNameRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// reservedTimestampColumns are server-managed when declared with a
// timestamp-family type: the server clock wins over any client value.
var reservedTimestampColumns = map[string]bool{
	entity.ColDateRecorded: true,
	entity.ColDateUpdated:  true,
}

// Normalize turns a raw object-type config into a validated field catalog.
// It is pure and deterministic, called once per object type at startup; any
// error here is a configuration error and must abort the process.
func Normalize(otype string, raw RawObjectType) (*entity.ObjectTypeSchema, error) {
	if !columnNameRe.MatchString(otype) {
		return nil, fmt.Errorf("invalid object type name %q", otype)
	}
	if len(raw.InputFields) == 0 {
		return nil, fmt.Errorf("object type %q has no input_fields", otype)
	}

	label := raw.Label
	if label == "" {
		label = strings.ToUpper(otype[:1]) + otype[1:]
	}

	required := make(map[string]bool, len(raw.RequiredFields))
	for _, c := range raw.RequiredFields {
		required[c] = true
	}

	out := &entity.ObjectTypeSchema{
		OType:          otype,
		Label:          label,
		FilenameFormat: raw.FilenameFormat,
		ResultRows:     raw.ResultRows,
	}

	seen := make(map[string]bool, len(raw.InputFields))
	for _, tuple := range raw.InputFields {
		if len(tuple) < 2 || len(tuple) > 4 {
			return nil, fmt.Errorf("object type %q: input field %v must have 2-4 elements", otype, tuple)
		}
		fieldLabel, column := tuple[0], tuple[1]
		declared := "TEXT"
		if len(tuple) > 2 && strings.TrimSpace(tuple[2]) != "" {
			declared = strings.ToUpper(strings.TrimSpace(tuple[2]))
		}
		extra := ""
		if len(tuple) > 3 {
			extra = tuple[3]
		}

		if !columnNameRe.MatchString(column) {
			return nil, fmt.Errorf("object type %q: invalid column name %q", otype, column)
		}
		if seen[column] {
			return nil, fmt.Errorf("object type %q: duplicate column %q", otype, column)
		}
		seen[column] = true

		def, err := normalizeField(fieldLabel, column, declared, extra)
		if err != nil {
			return nil, fmt.Errorf("object type %q: %w", otype, err)
		}
		def.Required = required[column]
		out.Fields = append(out.Fields, *def)
	}

	for _, c := range raw.RequiredFields {
		if !seen[c] {
			return nil, fmt.Errorf("object type %q: required field %q is not an input field", otype, c)
		}
		if f := fieldByColumn(out.Fields, c); f != nil && f.ServerManaged {
			return nil, fmt.Errorf("object type %q: required field %q is server-managed", otype, c)
		}
		if entity.SystemColumns[c] {
			return nil, fmt.Errorf("object type %q: required field %q is a reserved system column", otype, c)
		}
		out.RequiredFields = append(out.RequiredFields, c)
	}

	return out, nil
}

func normalizeField(label, column, declared, extra string) (*entity.FieldDef, error) {
	def := &entity.FieldDef{Label: label, Column: column}

	switch declared {
	case "CONSTANT":
		def.Kind = entity.FieldConstant
		def.Widget = entity.WidgetConstant
		def.ConstantValue = extra
		return def, nil
	case "UPPERCASE":
		def.Kind = entity.FieldUppercase
		def.Widget = entity.WidgetUpper
		return def, nil
	case "TEXT", "INT", "FLOAT", "DATE", "TIMESTAMP":
		def.Kind = entity.FieldKind(declared)
	default:
		return nil, fmt.Errorf("field %q: unknown type %q", column, declared)
	}

	widget, options, err := parseWidgetSpec(extra)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", column, err)
	}
	def.Widget = widget
	def.Options = options
	if widget == entity.WidgetRadio {
		// Radio groups are multi-select in the capture form and stored as a
		// JSON array string.
		def.Kind = entity.FieldMultiSelect
	}

	// "date_recorded"/"date_updated" declared TIMESTAMP are stamped by the
	// server; a DATE-typed date_recorded stays a normal user field.
	if reservedTimestampColumns[strings.ToLower(column)] && def.Kind == entity.FieldTimestamp {
		def.ServerManaged = true
	}
	return def, nil
}

// parseWidgetSpec parses DROPDOWN('a','b') / RADIO('a','b') widget strings.
// An empty spec is the plain text widget. Anything else that looks like a
// widget call but cannot be parsed is a configuration error.
func parseWidgetSpec(spec string) (string, []string, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return entity.WidgetText, nil, nil
	}

	up := strings.ToUpper(spec)
	var widget string
	switch {
	case strings.HasPrefix(up, "DROPDOWN"):
		widget = entity.WidgetDropdown
	case strings.HasPrefix(up, "RADIO"):
		widget = entity.WidgetRadio
	default:
		return "", nil, fmt.Errorf("unrecognized widget spec %q", spec)
	}

	open := strings.Index(spec, "(")
	if open < 0 || !strings.HasSuffix(spec, ")") {
		return "", nil, fmt.Errorf("malformed widget spec %q", spec)
	}
	options, err := parseOptionList(spec[open+1 : len(spec)-1])
	if err != nil {
		return "", nil, fmt.Errorf("malformed widget spec %q: %w", spec, err)
	}
	if len(options) == 0 {
		return "", nil, fmt.Errorf("widget spec %q has no options", spec)
	}
	return widget, options, nil
}

// parseOptionList parses a comma-separated list of single- or double-quoted
// string literals, e.g. 'red slip', "T1", 'it''s'.
func parseOptionList(s string) ([]string, error) {
	var out []string
	i := 0
	for {
		for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n') {
			i++
		}
		if i >= len(s) {
			break
		}
		quote := s[i]
		if quote != '\'' && quote != '"' {
			return nil, fmt.Errorf("expected quoted literal at offset %d", i)
		}
		i++
		var b strings.Builder
		closed := false
		for i < len(s) {
			if s[i] == quote {
				// doubled quote is an escaped quote
				if i+1 < len(s) && s[i+1] == quote {
					b.WriteByte(quote)
					i += 2
					continue
				}
				closed = true
				i++
				break
			}
			b.WriteByte(s[i])
			i++
		}
		if !closed {
			return nil, fmt.Errorf("unterminated literal")
		}
		out = append(out, b.String())

		for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n') {
			i++
		}
		if i < len(s) {
			if s[i] != ',' {
				return nil, fmt.Errorf("expected ',' at offset %d", i)
			}
			i++
		}
	}
	return out, nil
}

func fieldByColumn(fields []entity.FieldDef, column string) *entity.FieldDef {
	for i := range fields {
		if fields[i].Column == column {
			return &fields[i]
		}
	}
	return nil
}
