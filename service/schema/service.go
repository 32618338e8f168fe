// Package schema derives structural JSON schemas from registered Go types.
// The engine uses it to describe a suspension's expected input type to
// callers and to validate resume input before typed conversion.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/viant/stepflow/extension"
	"github.com/viant/stepflow/model/types"
)

// Service holds an explicit per-instance cache of generated documents and
// compiled schemas; it is constructed once and passed by reference, never a
// package global.
type Service struct {
	types     *extension.Types
	mu        sync.RWMutex
	documents map[string]map[string]interface{}
	compiled  map[string]*jsonschema.Schema
}

// New creates a schema provider backed by the supplied type registry.
func New(registry *extension.Types) *Service {
	return &Service{
		types:     registry,
		documents: make(map[string]map[string]interface{}),
		compiled:  make(map[string]*jsonschema.Schema),
	}
}

// Schema returns the structural schema document for a registered type name.
func (s *Service) Schema(typeName string) (map[string]interface{}, error) {
	s.mu.RLock()
	document, ok := s.documents[typeName]
	s.mu.RUnlock()
	if ok {
		return document, nil
	}
	rType := s.types.TypeOf(typeName)
	if rType == nil {
		return nil, fmt.Errorf("type %v not registered", typeName)
	}
	document = schemaOf(rType, 0)
	s.mu.Lock()
	s.documents[typeName] = document
	s.mu.Unlock()
	return document, nil
}

// Validate checks a value against the schema of the named type; a violation
// is reported as a TypeMismatchError.
func (s *Service) Validate(typeName string, value interface{}) error {
	compiled, err := s.compiledSchema(typeName)
	if err != nil {
		return err
	}
	// Round-trip through JSON so that typed structs validate the same way
	// as raw maps supplied by transports.
	data, err := json.Marshal(value)
	if err != nil {
		return &types.TypeMismatchError{Expected: typeName, Actual: fmt.Sprintf("%T", value), Cause: err}
	}
	var decoded interface{}
	if err = json.Unmarshal(data, &decoded); err != nil {
		return &types.TypeMismatchError{Expected: typeName, Actual: fmt.Sprintf("%T", value), Cause: err}
	}
	if err = compiled.Validate(decoded); err != nil {
		return &types.TypeMismatchError{Expected: typeName, Actual: fmt.Sprintf("%T", value), Cause: err}
	}
	return nil
}

func (s *Service) compiledSchema(typeName string) (*jsonschema.Schema, error) {
	s.mu.RLock()
	compiled, ok := s.compiled[typeName]
	s.mu.RUnlock()
	if ok {
		return compiled, nil
	}
	document, err := s.Schema(typeName)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(document)
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	resource := typeName + ".json"
	if err = compiler.AddResource(resource, bytes.NewReader(data)); err != nil {
		return nil, err
	}
	if compiled, err = compiler.Compile(resource); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.compiled[typeName] = compiled
	s.mu.Unlock()
	return compiled, nil
}

const maxDepth = 8

var timeType = reflect.TypeOf(time.Time{})

func schemaOf(rType reflect.Type, depth int) map[string]interface{} {
	if depth > maxDepth {
		return map[string]interface{}{}
	}
	for rType.Kind() == reflect.Ptr {
		rType = rType.Elem()
	}
	// Timestamps serialise as strings, not as their opaque struct layout.
	if rType == timeType {
		return map[string]interface{}{"type": "string", "format": "date-time"}
	}
	switch rType.Kind() {
	case reflect.String:
		return map[string]interface{}{"type": "string"}
	case reflect.Bool:
		return map[string]interface{}{"type": "boolean"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return map[string]interface{}{"type": "integer"}
	case reflect.Float32, reflect.Float64:
		return map[string]interface{}{"type": "number"}
	case reflect.Slice, reflect.Array:
		return map[string]interface{}{
			"type":  "array",
			"items": schemaOf(rType.Elem(), depth+1),
		}
	case reflect.Map:
		return map[string]interface{}{
			"type":                 "object",
			"additionalProperties": schemaOf(rType.Elem(), depth+1),
		}
	case reflect.Struct:
		properties := make(map[string]interface{})
		var required []interface{}
		for i := 0; i < rType.NumField(); i++ {
			field := rType.Field(i)
			if field.PkgPath != "" {
				continue
			}
			name, optional := fieldName(field)
			if name == "" {
				continue
			}
			properties[name] = schemaOf(field.Type, depth+1)
			if !optional && field.Type.Kind() != reflect.Ptr {
				required = append(required, name)
			}
		}
		document := map[string]interface{}{
			"type":       "object",
			"properties": properties,
		}
		if len(required) > 0 {
			document["required"] = required
		}
		return document
	}
	// interface{} and anything else: unconstrained
	return map[string]interface{}{}
}

func fieldName(field reflect.StructField) (string, bool) {
	tag := field.Tag.Get("json")
	if tag == "" {
		return field.Name, false
	}
	parts := strings.Split(tag, ",")
	name := parts[0]
	if name == "-" {
		return "", false
	}
	if name == "" {
		name = field.Name
	}
	optional := false
	for _, part := range parts[1:] {
		if part == "omitempty" {
			optional = true
		}
	}
	return name, optional
}
