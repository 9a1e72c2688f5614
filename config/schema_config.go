package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fieldworks/artifact-capture/entity"
	"github.com/fieldworks/artifact-capture/schema"
)

// SchemaConfig holds the normalized object-type catalog. Built once at
// startup from the schema YAML; immutable afterwards.
type SchemaConfig struct {
	Types map[string]*entity.ObjectTypeSchema
	// Order is the declaration order of object types, used for stable
	// defaults (first type) and catalog listings.
	Order []string
}

// object_types is decoded as a yaml.Node so the catalog keeps the file's
// declaration order; a plain map would lose it.
type schemaFile struct {
	ObjectTypes yaml.Node `yaml:"object_types"`
}

// LoadSchemaConfig reads and normalizes the object-type definitions. Any
// error is a configuration error: the process must not serve requests with
// an invalid schema.
func LoadSchemaConfig(path string) (*SchemaConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema config %s: %w", path, err)
	}

	var file schemaFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse schema config %s: %w", path, err)
	}
	if file.ObjectTypes.Kind != yaml.MappingNode || len(file.ObjectTypes.Content) == 0 {
		return nil, fmt.Errorf("schema config %s defines no object_types", path)
	}

	// mapping nodes hold alternating key and value nodes
	pairs := file.ObjectTypes.Content
	cfg := &SchemaConfig{Types: make(map[string]*entity.ObjectTypeSchema, len(pairs)/2)}
	for i := 0; i+1 < len(pairs); i += 2 {
		otype := pairs[i].Value
		var raw schema.RawObjectType
		if err := pairs[i+1].Decode(&raw); err != nil {
			return nil, fmt.Errorf("schema config %s: object type %s: %w", path, otype, err)
		}
		normalized, err := schema.Normalize(otype, raw)
		if err != nil {
			return nil, fmt.Errorf("schema config %s: %w", path, err)
		}
		cfg.Types[otype] = normalized
		cfg.Order = append(cfg.Order, otype)
	}

	return cfg, nil
}

// Type returns the schema for an object type, or nil when unknown.
func (c *SchemaConfig) Type(otype string) *entity.ObjectTypeSchema {
	return c.Types[otype]
}

// DefaultType returns the first object type in catalog order.
func (c *SchemaConfig) DefaultType() string {
	if len(c.Order) == 0 {
		return ""
	}
	return c.Order[0]
}
