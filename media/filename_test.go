package media

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fieldworks/artifact-capture/entity"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"TAP86", "TAP86"},
		{"Sq A / Level 2", "Sq_A_Level_2"},
		{"red slip, incised", "red_slip_incised"},
		{"___already___", "already"},
		{"../../etc/passwd", "etc_passwd"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), "input %q", tt.in)
	}
}

func stemSchema(format string) *entity.ObjectTypeSchema {
	return &entity.ObjectTypeSchema{
		OType:          "bags",
		FilenameFormat: format,
		Fields: []entity.FieldDef{
			{Label: "Season", Column: "season", Kind: entity.FieldText},
			{Label: "Unit", Column: "unit", Kind: entity.FieldText},
		},
	}
}

func TestRenderStem(t *testing.T) {
	s := stemSchema("BAG_{season}_Unit{unit}_ID{record_id}")
	values := map[string]any{"season": "TAP86", "unit": "Sq A"}

	assert.Equal(t, "BAG_TAP86_UnitSq_A_ID7_IMG1", RenderStem(s, values, 7, 1))
	assert.Equal(t, "BAG_TAP86_UnitSq_A_ID7_IMG2", RenderStem(s, values, 7, 2))
}

func TestRenderStemUnknownPlaceholderEmpty(t *testing.T) {
	s := stemSchema("BAG_{season}_{mystery}_ID{record_id}")
	stem := RenderStem(s, map[string]any{"season": "TAP86"}, 3, 1)
	assert.Equal(t, "BAG_TAP86_ID3_IMG1", stem)
}

func TestRenderStemNilValueEmpty(t *testing.T) {
	s := stemSchema("BAG_{season}_ID{record_id}")
	stem := RenderStem(s, map[string]any{"season": nil}, 3, 1)
	assert.Equal(t, "BAG_ID3_IMG1", stem)
}

func TestRenderStemFallbacks(t *testing.T) {
	// no template configured
	noFormat := stemSchema("")
	assert.Equal(t, "BAGS_ID5_IMG1", RenderStem(noFormat, nil, 5, 1))

	// template renders to nothing
	empty := stemSchema("{season}")
	assert.Equal(t, "BAGS_ID5_IMG1", RenderStem(empty, map[string]any{}, 5, 1))
}
