package importer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ImportDocument is the top-level JSON structure for importing a project's
// WBS together with one priced budget version.
type ImportDocument struct {
	Project ProjectImport `json:"project"`
	Wbs     []NodeImport  `json:"wbs"`
	Budget  *BudgetImport `json:"budget,omitempty"`
}

// ProjectImport defines the project-level fields in the import file.
type ProjectImport struct {
	ShortID string `json:"short_id"`
	Name    string `json:"name"`
	Client  string `json:"client,omitempty"`
}

// NodeImport defines one WBS node. Codes are generated from the tree shape
// unless given explicitly.
type NodeImport struct {
	Ref       string  `json:"ref"`
	ParentRef *string `json:"parent_ref,omitempty"`
	Type      string  `json:"type"`
	Name      string  `json:"name"`
	Code      string  `json:"code,omitempty"`
	Category  string  `json:"category,omitempty"`
	Unit      string  `json:"unit,omitempty"`
	Quantity  string  `json:"quantity,omitempty"`
	SortOrder int     `json:"sort_order,omitempty"`
}

// BudgetImport defines the budget version created alongside the WBS.
type BudgetImport struct {
	VersionCode string       `json:"version_code"`
	VersionType string       `json:"version_type"`
	Lines       []LineImport `json:"lines"`
}

// LineImport prices one TASK node.
type LineImport struct {
	NodeRef     string `json:"node_ref"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	IndirectPct string `json:"indirect_pct,omitempty"`
}

// documentSchema is the structural contract of an import file. Decimals are
// strings so no precision is lost on the way in.
const documentSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["project", "wbs"],
	"additionalProperties": false,
	"$defs": {
		"decimal": {"type": "string", "pattern": "^[0-9]+(\\.[0-9]+)?$"},
		"ref": {"type": "string", "minLength": 1}
	},
	"properties": {
		"project": {
			"type": "object",
			"required": ["short_id", "name"],
			"additionalProperties": false,
			"properties": {
				"short_id": {"type": "string", "minLength": 1},
				"name": {"type": "string", "minLength": 1},
				"client": {"type": "string"}
			}
		},
		"wbs": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["ref", "type", "name"],
				"additionalProperties": false,
				"properties": {
					"ref": {"$ref": "#/$defs/ref"},
					"parent_ref": {"$ref": "#/$defs/ref"},
					"type": {"enum": ["PHASE", "ACTIVITY", "TASK"]},
					"name": {"type": "string", "minLength": 1},
					"code": {"type": "string", "pattern": "^[1-9][0-9]*(\\.[1-9][0-9]*){0,2}$"},
					"category": {"type": "string"},
					"unit": {"type": "string"},
					"quantity": {"$ref": "#/$defs/decimal"},
					"sort_order": {"type": "integer", "minimum": 0}
				}
			}
		},
		"budget": {
			"type": "object",
			"required": ["version_code", "version_type", "lines"],
			"additionalProperties": false,
			"properties": {
				"version_code": {"type": "string", "minLength": 1},
				"version_type": {"enum": ["BASELINE", "APPROVED", "WORKING", "PROPOSAL"]},
				"lines": {
					"type": "array",
					"items": {
						"type": "object",
						"required": ["node_ref", "quantity", "unit_price"],
						"additionalProperties": false,
						"properties": {
							"node_ref": {"$ref": "#/$defs/ref"},
							"quantity": {"$ref": "#/$defs/decimal"},
							"unit_price": {"$ref": "#/$defs/decimal"},
							"indirect_pct": {"$ref": "#/$defs/decimal"}
						}
					}
				}
			}
		}
	}
}`

const documentSchemaURL = "https://obra.local/schemas/import.schema.json"

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(documentSchemaURL, strings.NewReader(documentSchema)); err != nil {
		return nil, fmt.Errorf("loading import schema: %w", err)
	}
	return c.Compile(documentSchemaURL)
})

// ParseImportDocument checks data against the import JSON Schema and decodes
// it. Semantic checks (refs, hierarchy) are left to ValidateImportDocument.
func ParseImportDocument(data []byte) (*ImportDocument, error) {
	schema, err := compiledSchema()
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parsing import file: %w", err)
	}
	if err := schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("import file does not match schema: %w", err)
	}

	var doc ImportDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding import file: %w", err)
	}
	return &doc, nil
}

// LoadImportDocument reads and parses an import JSON file.
func LoadImportDocument(path string) (*ImportDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseImportDocument(data)
}
