package executor

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// responseSchema documents the structured-response contract an Execute
// caller can rely on: the shape of cliResponse, the CLI's
// --output-format json payload, reflected the same way
// claude/sdk_mcp_typed.go reflects tool-parameter structs.
var responseSchema = func() *jsonschema.Schema {
	reflector := &jsonschema.Reflector{DoNotReference: true}
	return reflector.Reflect(&cliResponse{})
}()

// ResponseSchema returns the JSON Schema for the CLI's structured response,
// for documentation or for validating a captured transcript out of band.
func ResponseSchema() *jsonschema.Schema {
	return responseSchema
}

// ResponseSchemaJSON marshals ResponseSchema to indented JSON.
func ResponseSchemaJSON() ([]byte, error) {
	data, err := json.MarshalIndent(responseSchema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal response schema: %w", err)
	}
	return data, nil
}
