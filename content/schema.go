package content

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// ToolInputEnvelope is the generic shape every ToolUse.Input is expected to
// take: a JSON object of named parameters, matching every upstream tool
// call observed so far (Bash, Edit, Read, ...). It exists purely to anchor
// a schema; the actual fields of a given tool's input are tool-specific and
// are not modeled here.
type ToolInputEnvelope map[string]any

// toolInputSchema is generated once and reused by ValidateToolInput.
var toolInputSchema = func() *jsonschema.Schema {
	reflector := &jsonschema.Reflector{DoNotReference: true}
	return reflector.Reflect(ToolInputEnvelope{})
}()

// ToolInputSchema returns the JSON Schema describing the ToolUse.Input
// envelope, for callers that want to publish or inspect it directly.
func ToolInputSchema() *jsonschema.Schema {
	return toolInputSchema
}

// ValidateToolInput checks that a ToolUse block's raw Input conforms to the
// envelope schema: a JSON object, never a bare scalar or array. Called by
// session in strict mode; a loose-mode parse never rejects a record on
// this basis, since some upstream tool calls carry no input at all.
func ValidateToolInput(input json.RawMessage) error {
	if len(input) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(input, &v); err != nil {
		return fmt.Errorf("tool input is not valid JSON: %w", err)
	}
	if _, ok := v.(map[string]any); !ok {
		return fmt.Errorf("tool input must be a JSON object, got %T", v)
	}
	return nil
}
