package config

import "fmt"

type Config struct {
	EnvConfig *EnvConfig
	Schema    *SchemaConfig
}

// NewConfig loads the environment and the object-type schema. Schema errors
// are fatal: the service must not start with an invalid field catalog.
func NewConfig() *Config {
	env := LoadEnvConfig()

	schemaCfg, err := LoadSchemaConfig(env.Capture.SchemaPath)
	if err != nil {
		panic(fmt.Sprintf("invalid schema configuration: %v", err))
	}

	return &Config{
		EnvConfig: env,
		Schema:    schemaCfg,
	}
}
