package tool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func weatherTool() *Definition {
	return &Definition{
		Name: "get_weather",
		Description: "Retrieves current weather conditions for a specified location. " +
			"Use this when the user asks about current weather for a specific place. " +
			"Input is a city name, output is temperature and conditions.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"location": map[string]any{
					"type":        "string",
					"description": "City name or city,country format",
				},
				"unit": map[string]any{
					"type": "string",
					"enum": []any{"celsius", "fahrenheit"},
				},
			},
			"required": []any{"location"},
		},
		RiskLevel: RiskReadOnly,
		Examples: []Example{
			{
				Description: "Weather in Tokyo",
				Input:       map[string]any{"location": "Tokyo", "unit": "celsius"},
				Output:      map[string]any{"temperature": 18.0, "conditions": "Partly cloudy"},
			},
		},
		Handler: func(ctx context.Context, input map[string]any) (map[string]any, error) {
			return map[string]any{"temperature": 18.0, "conditions": "Sunny"}, nil
		},
	}
}

func TestDefinitionToFunctionSchema(t *testing.T) {
	schema := weatherTool().ToFunctionSchema()
	assert.Equal(t, "function", schema["type"])

	fn := schema["function"].(map[string]any)
	assert.Equal(t, "get_weather", fn["name"])
	assert.NotEmpty(t, fn["description"])
	assert.NotNil(t, fn["parameters"])
}

func TestDefinitionValidate(t *testing.T) {
	def := weatherTool()

	t.Run("valid input", func(t *testing.T) {
		err := def.Validate(map[string]any{"location": "Paris", "unit": "celsius"})
		assert.NoError(t, err)
	})

	t.Run("missing required parameter", func(t *testing.T) {
		err := def.Validate(map[string]any{"unit": "celsius"})
		assert.Error(t, err)

		var structured *StructuredError
		assert.ErrorAs(t, err, &structured)
		assert.Equal(t, "MISSING_PARAMETER", structured.Code)
		assert.Equal(t, CategoryValidation, structured.Category)
		assert.Equal(t, RecoveryModifyInput, structured.Recovery)
		assert.Equal(t, "location", structured.Parameter)
	})

	t.Run("wrong type", func(t *testing.T) {
		err := def.Validate(map[string]any{"location": 42})
		assert.Error(t, err)

		var structured *StructuredError
		assert.ErrorAs(t, err, &structured)
		assert.Equal(t, "INVALID_FORMAT", structured.Code)
		assert.Equal(t, "location", structured.Parameter)
	})

	t.Run("enum violation", func(t *testing.T) {
		err := def.Validate(map[string]any{"location": "Paris", "unit": "kelvin"})
		assert.Error(t, err)

		var structured *StructuredError
		assert.ErrorAs(t, err, &structured)
		assert.Equal(t, "INVALID_FORMAT", structured.Code)
		assert.Equal(t, "unit", structured.Parameter)
	})

	t.Run("undeclared parameters pass through", func(t *testing.T) {
		err := def.Validate(map[string]any{"location": "Paris", "verbose": true})
		assert.NoError(t, err)
	})

	t.Run("integer accepts whole float", func(t *testing.T) {
		def := &Definition{
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"count": map[string]any{"type": "integer"},
				},
			},
		}
		// JSON decoding yields float64 for every number
		assert.NoError(t, def.Validate(map[string]any{"count": float64(3)}))
		assert.Error(t, def.Validate(map[string]any{"count": 3.5}))
	})
}
