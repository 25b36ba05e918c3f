package document

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed record.schema.json
var recordSchemaJSON string

var recordSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("record.schema.json", strings.NewReader(recordSchemaJSON)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("record.schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
})

// Decode turns a backend JSON body into a document.
// Numbers are accepted where strings are expected and kept as their literal text;
// anything else that does not match the record schema is rejected.
func Decode(data []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	raw = numbersToStrings(raw)

	schema, err := recordSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("record does not match schema: %w", err)
	}

	coerced, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}

	var doc Document
	switch Type(raw.(map[string]any)["DocumentType"].(string)) {
	case TypeCheck:
		doc = NewCheck()
	default:
		doc = NewInvoice()
	}
	if err := json.Unmarshal(coerced, doc); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", doc.Type(), err)
	}
	normalize(doc)
	return doc, nil
}

func numbersToStrings(v any) any {
	switch t := v.(type) {
	case json.Number:
		return t.String()
	case map[string]any:
		for k, e := range t {
			t[k] = numbersToStrings(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = numbersToStrings(e)
		}
		return t
	default:
		return v
	}
}
