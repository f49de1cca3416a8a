package treefmt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/mod/semver"

	"github.com/aledsdavies/treelang/core/lang"
	"github.com/aledsdavies/treelang/core/tree"
)

const schemaURL = "schema://tree.json"

// EncodeJSON encodes t as an indented JSON document for external tools.
func EncodeJSON(t *tree.Tree) ([]byte, error) {
	env, err := toArena(t)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("JSON encoding failed: %w", err)
	}
	return append(data, '\n'), nil
}

// DecodeJSON validates data against the tree schema and decodes it.
func DecodeJSON(data []byte) (*tree.Tree, error) {
	if err := ValidateJSON(data); err != nil {
		return nil, err
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("JSON decoding failed: %w", err)
	}
	return fromArena(&env)
}

// ValidateJSON checks data against the embedded JSON Schema. It checks the
// document shape only; index consistency is checked by DecodeJSON.
func ValidateJSON(data []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("tree JSON does not match schema: %w", err)
	}
	return nil
}

// Schema returns the JSON Schema that EncodeJSON output satisfies.
func Schema() ([]byte, error) {
	return json.MarshalIndent(schemaDocument(), "", "  ")
}

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	raw, err := json.Marshal(schemaDocument())
	if err != nil {
		return nil, fmt.Errorf("marshal tree schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	compiler.AssertFormat = true
	if compiler.Formats == nil {
		compiler.Formats = make(map[string]func(any) bool)
	}
	compiler.Formats["semver"] = func(v any) bool {
		s, ok := v.(string)
		return ok && semver.IsValid(s)
	}
	// The schema is self-contained; never fetch a $ref.
	compiler.LoadURL = func(url string) (io.ReadCloser, error) {
		return nil, fmt.Errorf("external $ref not allowed: %s", url)
	}
	if err := compiler.AddResource(schemaURL, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("add tree schema: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile tree schema: %w", err)
	}
	return schema, nil
})

func schemaDocument() map[string]any {
	required := func(kind, field string) map[string]any {
		return map[string]any{
			"if":   map[string]any{"properties": map[string]any{"kind": map[string]any{"const": kind}}},
			"then": map[string]any{"required": []string{field}},
		}
	}
	index := map[string]any{"type": "integer", "minimum": -1}

	node := map[string]any{
		"type":                 "object",
		"required":             []string{"kind", "left", "right"},
		"additionalProperties": false,
		"properties": map[string]any{
			"kind":   map[string]any{"enum": []string{tree.KindNumber.String(), tree.KindVariable.String(), tree.KindOperation.String()}},
			"number": map[string]any{"type": "number"},
			"name":   map[string]any{"type": "string", "pattern": `^[^"\s]+$`},
			"op":     map[string]any{"enum": lang.Displays()},
			"left":   index,
			"right":  index,
		},
		"allOf": []any{
			required("variable", "name"),
			required("operation", "op"),
		},
	}

	return map[string]any{
		"type":                 "object",
		"required":             []string{"format", "version", "nodes"},
		"additionalProperties": false,
		"properties": map[string]any{
			"format":  map[string]any{"const": ArenaFormat},
			"version": map[string]any{"type": "string", "format": "semver"},
			"nodes":   map[string]any{"type": "array", "items": map[string]any{"$ref": "#/$defs/node"}},
		},
		"$defs": map[string]any{"node": node},
	}
}
