package config

import (
	"github.com/invopop/jsonschema"
)

// GenerateSchema generates a JSON schema for the Config struct
func GenerateSchema() *jsonschema.Schema {
	r := &jsonschema.Reflector{FieldNameTag: "yaml"}
	return r.Reflect(&Config{})
}
