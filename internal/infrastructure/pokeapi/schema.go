package pokeapi

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const namedResourceSchema = `{
	"type": "object",
	"required": ["name"],
	"properties": {"name": {"type": "string", "minLength": 1}}
}`

var pokemonSchemaJSON = `{
	"type": "object",
	"required": ["id", "name", "height", "weight", "stats", "abilities", "types", "sprites"],
	"properties": {
		"id": {"type": "integer", "minimum": 1},
		"name": {"type": "string", "minLength": 1},
		"height": {"type": "integer", "minimum": 0},
		"weight": {"type": "integer", "minimum": 0},
		"stats": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["base_stat", "stat"],
				"properties": {
					"base_stat": {"type": "integer"},
					"stat": ` + namedResourceSchema + `
				}
			}
		},
		"abilities": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["ability"],
				"properties": {
					"ability": ` + namedResourceSchema + `,
					"is_hidden": {"type": "boolean"}
				}
			}
		},
		"types": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["type"],
				"properties": {"type": ` + namedResourceSchema + `}
			}
		},
		"sprites": {"type": "object"},
		"cries": {"type": ["object", "null"]}
	}
}`

var speciesSchemaJSON = `{
	"type": "object",
	"required": ["id", "genera", "flavor_text_entries"],
	"properties": {
		"id": {"type": "integer", "minimum": 1},
		"genera": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["genus", "language"],
				"properties": {
					"genus": {"type": "string"},
					"language": ` + namedResourceSchema + `
				}
			}
		},
		"flavor_text_entries": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["flavor_text", "language"],
				"properties": {
					"flavor_text": {"type": "string"},
					"language": ` + namedResourceSchema + `
				}
			}
		}
	}
}`

var (
	pokemonSchema = mustSchema(pokemonSchemaJSON)
	speciesSchema = mustSchema(speciesSchemaJSON)
)

func mustSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("pokeapi: invalid embedded schema: %v", err))
	}
	return schema
}

// validatePayload checks a raw response body against schema
func validatePayload(schema *gojsonschema.Schema, body []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("payload validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}
