// Package validation checks job variables against JSON schemas.
package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// JSONSchema is the object schema each worker declares for its input.
type JSONSchema struct {
	Type                 string              `json:"type"`
	Properties           map[string]Property `json:"properties"`
	Required             []string            `json:"required,omitempty"`
	AdditionalProperties *bool               `json:"additionalProperties,omitempty"`
}

type Property struct {
	Type        string              `json:"-"`
	Nullable    bool                `json:"-"`
	Description string              `json:"description,omitempty"`
	Minimum     *float64            `json:"minimum,omitempty"`
	Maximum     *float64            `json:"maximum,omitempty"`
	Enum        []string            `json:"enum,omitempty"`
	Pattern     string              `json:"pattern,omitempty"`
	MinLength   *int                `json:"minLength,omitempty"`
	MaxLength   *int                `json:"maxLength,omitempty"`
	Items       *Property           `json:"items,omitempty"`
	Properties  map[string]Property `json:"properties,omitempty"`
	Required    []string            `json:"required,omitempty"`
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// GetErrorMessages renders every error as "field: message".
func (r *ValidationResult) GetErrorMessages() []string {
	out := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		out = append(out, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return out
}

// FirstField names the first offending field, or "" when valid.
func (r *ValidationResult) FirstField() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Field
}

// ValidateInput validates decoded job variables against schema.
func ValidateInput(input map[string]interface{}, schema JSONSchema) *ValidationResult {
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema.toMap()),
		gojsonschema.NewGoLoader(input),
	)
	if err != nil {
		return &ValidationResult{
			Valid: false,
			Errors: []ValidationError{{
				Field:   "(schema)",
				Message: err.Error(),
				Code:    "SCHEMA_ERROR",
			}},
		}
	}
	if result.Valid() {
		return &ValidationResult{Valid: true}
	}

	errs := make([]ValidationError, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		field := desc.Field()
		if desc.Type() == "required" {
			if prop, ok := desc.Details()["property"].(string); ok {
				if field == "(root)" {
					field = prop
				} else {
					field = field + "." + prop
				}
			}
		}
		errs = append(errs, ValidationError{
			Field:   strings.TrimPrefix(field, "(root)."),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	sort.SliceStable(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })
	return &ValidationResult{Valid: false, Errors: errs}
}

func (s JSONSchema) toMap() map[string]interface{} {
	m := map[string]interface{}{"type": s.Type}
	if len(s.Properties) > 0 {
		props := make(map[string]interface{}, len(s.Properties))
		for name, p := range s.Properties {
			props[name] = p.toMap()
		}
		m["properties"] = props
	}
	if len(s.Required) > 0 {
		m["required"] = toAnySlice(s.Required)
	}
	if s.AdditionalProperties != nil {
		m["additionalProperties"] = *s.AdditionalProperties
	}
	return m
}

// ToMap exposes the schema as a plain JSON document, e.g. for the registry.
func (s JSONSchema) ToMap() map[string]interface{} { return s.toMap() }

func (p Property) toMap() map[string]interface{} {
	m := map[string]interface{}{}
	if p.Type != "" {
		if p.Nullable {
			m["type"] = []interface{}{p.Type, "null"}
		} else {
			m["type"] = p.Type
		}
	}
	if p.Description != "" {
		m["description"] = p.Description
	}
	if p.Minimum != nil {
		m["minimum"] = *p.Minimum
	}
	if p.Maximum != nil {
		m["maximum"] = *p.Maximum
	}
	if len(p.Enum) > 0 {
		enum := toAnySlice(p.Enum)
		if p.Nullable {
			enum = append(enum, nil)
		}
		m["enum"] = enum
	}
	if p.Pattern != "" {
		m["pattern"] = p.Pattern
	}
	if p.MinLength != nil {
		m["minLength"] = *p.MinLength
	}
	if p.MaxLength != nil {
		m["maxLength"] = *p.MaxLength
	}
	if p.Items != nil {
		m["items"] = p.Items.toMap()
	}
	if len(p.Properties) > 0 {
		props := make(map[string]interface{}, len(p.Properties))
		for name, child := range p.Properties {
			props[name] = child.toMap()
		}
		m["properties"] = props
	}
	if len(p.Required) > 0 {
		m["required"] = toAnySlice(p.Required)
	}
	return m
}

func toAnySlice(in []string) []interface{} {
	out := make([]interface{}, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

func Float(v float64) *float64 { return &v }

func Int(v int) *int { return &v }
