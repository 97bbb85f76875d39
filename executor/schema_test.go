package executor

import "testing"

func TestResponseSchemaJSON(t *testing.T) {
	data, err := ResponseSchemaJSON()
	if err != nil {
		t.Fatalf("ResponseSchemaJSON: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty schema JSON")
	}
}
