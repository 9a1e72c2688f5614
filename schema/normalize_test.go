package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldworks/artifact-capture/entity"
)

func validRaw() RawObjectType {
	return RawObjectType{
		Label:          "Bags",
		FilenameFormat: "BAG_{season}_ID{record_id}",
		InputFields: [][]string{
			{"Recorders", "recorders", "TEXT", "RADIO('JB', 'Karen')"},
			{"Season", "season", "TEXT", "DROPDOWN('TAP86', 'TAP90')"},
			{"T-Number", "tnumber", "TEXT"},
			{"Typology Number", "typology_number", "INT"},
			{"Rim Diameter", "rim_diameter", "FLOAT"},
			{"Excavation Date", "excavation_date", "DATE"},
			{"Date recorded", "date_recorded", "TIMESTAMP"},
			{"Site", "site", "CONSTANT", "TAP"},
			{"Unit Code", "unit_code", "UPPERCASE"},
		},
		RequiredFields: []string{"season", "tnumber"},
	}
}

func TestNormalizeValidSchema(t *testing.T) {
	s, err := Normalize("bags", validRaw())
	require.NoError(t, err)

	assert.Equal(t, "bags", s.OType)
	assert.Equal(t, "Bags", s.Label)
	assert.Len(t, s.Fields, 9)
	assert.Equal(t, []string{"season", "tnumber"}, s.RequiredFields)

	recorders := s.Field("recorders")
	require.NotNil(t, recorders)
	assert.Equal(t, entity.FieldMultiSelect, recorders.Kind)
	assert.Equal(t, entity.WidgetRadio, recorders.Widget)
	assert.Equal(t, []string{"JB", "Karen"}, recorders.Options)

	season := s.Field("season")
	require.NotNil(t, season)
	assert.Equal(t, entity.FieldText, season.Kind)
	assert.Equal(t, entity.WidgetDropdown, season.Widget)
	assert.True(t, season.Required)

	site := s.Field("site")
	require.NotNil(t, site)
	assert.Equal(t, entity.FieldConstant, site.Kind)
	assert.Equal(t, "TAP", site.ConstantValue)

	unitCode := s.Field("unit_code")
	require.NotNil(t, unitCode)
	assert.Equal(t, entity.FieldUppercase, unitCode.Kind)
}

func TestNormalizeServerManagedTimestamp(t *testing.T) {
	s, err := Normalize("bags", validRaw())
	require.NoError(t, err)

	// TIMESTAMP-typed date_recorded is stamped by the server
	rec := s.Field("date_recorded")
	require.NotNil(t, rec)
	assert.True(t, rec.ServerManaged)
}

func TestNormalizeDateRecordedAsDateStaysUserField(t *testing.T) {
	raw := RawObjectType{
		InputFields: [][]string{
			{"Season", "season", "TEXT"},
			{"Date recorded", "date_recorded", "DATE"},
		},
	}
	s, err := Normalize("bags", raw)
	require.NoError(t, err)

	rec := s.Field("date_recorded")
	require.NotNil(t, rec)
	assert.False(t, rec.ServerManaged)
	assert.Equal(t, entity.FieldDate, rec.Kind)
}

func TestNormalizeDefaultsLabelAndType(t *testing.T) {
	raw := RawObjectType{
		InputFields: [][]string{
			{"Notes", "notes"},
		},
	}
	s, err := Normalize("bags", raw)
	require.NoError(t, err)

	assert.Equal(t, "Bags", s.Label)
	assert.Equal(t, entity.FieldText, s.Field("notes").Kind)
	assert.Equal(t, entity.WidgetText, s.Field("notes").Widget)
}

func TestNormalizeErrors(t *testing.T) {
	tests := []struct {
		name  string
		otype string
		raw   RawObjectType
	}{
		{
			name:  "invalid object type name",
			otype: "Bad-Name",
			raw:   validRaw(),
		},
		{
			name:  "no input fields",
			otype: "bags",
			raw:   RawObjectType{},
		},
		{
			name:  "invalid column name",
			otype: "bags",
			raw: RawObjectType{InputFields: [][]string{
				{"Bad", "Bad Column!"},
			}},
		},
		{
			name:  "duplicate column",
			otype: "bags",
			raw: RawObjectType{InputFields: [][]string{
				{"A", "season"},
				{"B", "season"},
			}},
		},
		{
			name:  "unknown declared type",
			otype: "bags",
			raw: RawObjectType{InputFields: [][]string{
				{"A", "season", "DECIMAL"},
			}},
		},
		{
			name:  "malformed widget spec",
			otype: "bags",
			raw: RawObjectType{InputFields: [][]string{
				{"A", "season", "TEXT", "DROPDOWN('unclosed"},
			}},
		},
		{
			name:  "unrecognized widget spec",
			otype: "bags",
			raw: RawObjectType{InputFields: [][]string{
				{"A", "season", "TEXT", "CHECKBOX('a')"},
			}},
		},
		{
			name:  "required field not declared",
			otype: "bags",
			raw: RawObjectType{
				InputFields:    [][]string{{"A", "season"}},
				RequiredFields: []string{"tnumber"},
			},
		},
		{
			name:  "required field is server-managed",
			otype: "bags",
			raw: RawObjectType{
				InputFields:    [][]string{{"Date recorded", "date_recorded", "TIMESTAMP"}},
				RequiredFields: []string{"date_recorded"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.otype, tt.raw)
			assert.Error(t, err)
		})
	}
}

func TestParseOptionListEscapedQuotes(t *testing.T) {
	options, err := parseOptionList(`'it''s a jar', "said ""so""", 'plain'`)
	require.NoError(t, err)
	assert.Equal(t, []string{"it's a jar", `said "so"`, "plain"}, options)
}
