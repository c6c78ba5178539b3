package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ErrInvalidConfig indicates settings that violate the configuration
// schema.
var ErrInvalidConfig = errors.New("invalid configuration")

// configSchema is the JSON Schema for the bibsift configuration
// surface. Viper lowercases all keys before validation.
const configSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "base_path": {"type": "string", "minLength": 1},
    "log_path": {"type": "string"},
    "log_every": {"type": "integer"},
    "max_per_file": {"type": "integer"},
    "default_format": {"enum": ["marc", "json", "json-pretty"]},
    "default_limit": {"type": "integer"},
    "outputs": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "format": {"enum": ["", "marc", "json", "json-pretty"]},
          "limit": {"type": ["integer", "null"]},
          "compress": {"type": "boolean"},
          "filters": {"type": "array", "items": {"$ref": "#/definitions/filter"}}
        },
        "required": ["name"],
        "additionalProperties": false
      }
    }
  },
  "additionalProperties": false,
  "definitions": {
    "filter": {
      "type": "object",
      "properties": {
        "type": {"enum": ["char_position", "field_exists", "any_of"]},
        "tags": {"type": "string"},
        "range": {
          "type": "array",
          "items": {"type": "integer", "minimum": 0},
          "minItems": 1,
          "maxItems": 2
        },
        "value": {"type": "string"},
        "op": {"enum": ["", "eq", "ne", "lt", "le", "gt", "ge", "contains"]},
        "numeric": {"type": "boolean"},
        "subfields": {"type": "string"},
        "filters": {"type": "array", "items": {"$ref": "#/definitions/filter"}}
      },
      "required": ["type"],
      "additionalProperties": false
    }
  }
}`

// ValidateSettings checks merged settings against the configuration
// schema and reports every violation in one error.
func ValidateSettings(settings map[string]any) error {
	schemaLoader := gojsonschema.NewStringLoader(configSchema)
	settingsLoader := gojsonschema.NewGoLoader(settings)

	result, err := gojsonschema.Validate(schemaLoader, settingsLoader)
	if err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}

	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
}
