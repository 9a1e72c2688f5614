package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldworks/artifact-capture/entity"
)

func writeSchemaFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "object-types.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSchemaConfig(t *testing.T) {
	path := writeSchemaFile(t, `
object_types:
  bags:
    label: Bags
    filename_format: "BAG_{season}_ID{record_id}"
    input_fields:
      - ["Season", "season", "TEXT", "DROPDOWN('TAP86', 'TAP90')"]
      - ["Notes", "notes"]
    required_fields:
      - season
  artifacts:
    input_fields:
      - ["Temper", "temper", "TEXT"]
`)

	cfg, err := LoadSchemaConfig(path)
	require.NoError(t, err)

	// catalog order follows the file, not the alphabet
	assert.Equal(t, []string{"bags", "artifacts"}, cfg.Order)
	assert.Equal(t, "bags", cfg.DefaultType())

	bags := cfg.Type("bags")
	require.NotNil(t, bags)
	assert.Equal(t, "Bags", bags.Label)
	assert.Equal(t, []string{"season"}, bags.RequiredFields)
	assert.Equal(t, entity.WidgetDropdown, bags.Field("season").Widget)

	assert.Nil(t, cfg.Type("unknown"))
}

func TestLoadSchemaConfigErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadSchemaConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("no object types", func(t *testing.T) {
		_, err := LoadSchemaConfig(writeSchemaFile(t, "object_types: {}\n"))
		assert.Error(t, err)
	})

	t.Run("invalid field definition", func(t *testing.T) {
		_, err := LoadSchemaConfig(writeSchemaFile(t, `
object_types:
  bags:
    input_fields:
      - ["Season", "season", "DECIMAL"]
`))
		assert.Error(t, err)
	})
}

func TestLoadShippedSchemaConfig(t *testing.T) {
	cfg, err := LoadSchemaConfig("../configs/object-types.yaml")
	require.NoError(t, err)

	for _, otype := range []string{"bags", "artifacts", "photographs"} {
		assert.NotNil(t, cfg.Type(otype), "missing %s", otype)
	}

	// TIMESTAMP-typed date_recorded on photographs is server-managed
	photos := cfg.Type("photographs")
	require.NotNil(t, photos)
	assert.True(t, photos.Field("date_recorded").ServerManaged)

	// DATE-typed date_recorded on bags is a normal user field
	bags := cfg.Type("bags")
	require.NotNil(t, bags)
	assert.False(t, bags.Field("date_recorded").ServerManaged)
}
