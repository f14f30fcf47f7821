package appconfig

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ErrInvalidConfig is returned when a configuration file does not match the schema.
var ErrInvalidConfig = errors.New("invalid configuration")

// configSchema describes the JSON configuration file.
const configSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "definitions": {
    "backend": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "url": {"type": "string"},
        "apiKey": {"type": "string"},
        "models": {"type": "array", "items": {"type": "string", "minLength": 1}},
        "maxTokens": {"type": "integer", "minimum": 0}
      }
    }
  },
  "properties": {
    "folder": {"type": "string", "minLength": 1},
    "useOpenAI": {"type": "boolean"},
    "useOllama": {"type": "boolean"},
    "useAnthropic": {"type": "boolean"},
    "useGemini": {"type": "boolean"},
    "openai": {"$ref": "#/definitions/backend"},
    "ollama": {"$ref": "#/definitions/backend"},
    "anthropic": {"$ref": "#/definitions/backend"},
    "gemini": {"$ref": "#/definitions/backend"},
    "judge": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "backend": {"type": "string", "enum": ["openai", "ollama", "anthropic", "gemini"]},
        "model": {"type": "string", "minLength": 1}
      }
    },
    "prompt": {"type": "string"},
    "compare": {"type": "array", "items": {"type": "string", "minLength": 1}},
    "assessOnly": {"type": "boolean"},
    "tui": {"type": "boolean"},
    "debug": {"type": "boolean"},
    "timeout": {"type": "integer", "minimum": 0},
    "logFile": {"type": "string"},
    "metrics": {"type": "boolean"},
    "metricsFile": {"type": "string"}
  }
}`

// Validate checks a JSON configuration document against the schema.
func Validate(data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(configSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
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

// ValidateFile reads path and validates it with Validate.
func ValidateFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read config file %q: %w", path, err)
	}
	if err := Validate(data); err != nil {
		return fmt.Errorf("config file %q: %w", path, err)
	}
	return nil
}
