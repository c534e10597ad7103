package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Schema is a compiled JSON Schema together with the raw document sent to
// backends that accept a response schema.
type Schema struct {
	Name string
	// WrapKey names the property a bare top-level array is wrapped under.
	WrapKey string
	Doc     map[string]any

	compiled *jsonschema.Schema
}

// NewSchema compiles doc. name doubles as the resource URL and the
// json_schema name sent to OpenAI, so it should be a plain identifier.
func NewSchema(name, wrapKey string, doc map[string]any) (*Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name+".json", doc); err != nil {
		return nil, fmt.Errorf("add schema %s: %w", name, err)
	}
	compiled, err := compiler.Compile(name + ".json")
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return &Schema{Name: name, WrapKey: wrapKey, Doc: doc, compiled: compiled}, nil
}

// Validate checks that raw is a single JSON document accepted by the schema.
func (s *Schema) Validate(raw []byte) error {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return err
	}
	return s.compiled.Validate(inst)
}

const datasetListSchemaJSON = `{
  "type": "object",
  "properties": {
    "datasets": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "issueDescription": {"type": "string"},
          "actionsTaken": {"type": "array", "items": {"type": "string"}},
          "resolution": {"type": "string"},
          "rca": {"type": "string"}
        },
        "required": ["issueDescription", "actionsTaken", "resolution", "rca"],
        "additionalProperties": false
      }
    }
  },
  "required": ["datasets"],
  "additionalProperties": false
}`

const scenarioListSchemaJSON = `{
  "type": "object",
  "properties": {
    "scenarios": {
      "type": "array",
      "items": {"type": "string"}
    }
  },
  "required": ["scenarios"],
  "additionalProperties": false
}`

var (
	datasetListSchema  = mustSchema("DatasetList", "datasets", datasetListSchemaJSON)
	scenarioListSchema = mustSchema("ScenarioList", "scenarios", scenarioListSchemaJSON)
)

// DatasetListSchema describes {"datasets":[IncidentRecord...]}.
func DatasetListSchema() *Schema { return datasetListSchema }

// ScenarioListSchema describes {"scenarios":[string...]}.
func ScenarioListSchema() *Schema { return scenarioListSchema }

func mustSchema(name, wrapKey, raw string) *Schema {
	var doc map[string]any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		panic(fmt.Sprintf("parse %s schema: %v", name, err))
	}
	s, err := NewSchema(name, wrapKey, doc)
	if err != nil {
		panic(err)
	}
	return s
}
