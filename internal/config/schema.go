package config

import (
	"encoding/json"
	"reflect"

	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-msri/internal/tracker"
	"github.com/rxtech-lab/argo-msri/pkg/errors"
)

// SchemaName is the file name the generated schema is published under.
const SchemaName = "msri-scenario-config.json"

// GenerateSchema generates a JSON schema for the ScenarioConfig
func (c *ScenarioConfig) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			switch t {
			case reflect.TypeOf(optional.Option[[]float64]{}):
				return &jsonschema.Schema{
					Type:  "array",
					Items: &jsonschema.Schema{Type: "number"},
				}
			case reflect.TypeOf(tracker.SingularityPolicy("")):
				return &jsonschema.Schema{
					Type: "string",
					Enum: tracker.AllSingularityPolicies,
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)

	schema.Title = "msri-scenario-config"
	schema.Description = "Configuration schema for a market shock resistance scenario"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the ScenarioConfig
func (c *ScenarioConfig) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeSchemaGeneration, "failed to generate schema", err)
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeSchemaGeneration, "failed to marshal schema", err)
	}

	return string(schemaBytes), nil
}
