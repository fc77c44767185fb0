package salesforce

import (
	"fmt"
	"sort"

	"github.com/xeipuuv/gojsonschema"
)

// RecordSchema derives a JSON schema for create payloads from describe
// metadata. Only createable fields are allowed.
func RecordSchema(meta *ObjectMetadata) map[string]interface{} {
	properties := make(map[string]interface{})
	required := make([]string, 0)

	for _, f := range meta.Fields {
		if !f.Createable {
			continue
		}
		properties[f.Name] = fieldSchema(f)
		if !f.Nillable && !f.DefaultedOnCreate && f.Type != "boolean" {
			required = append(required, f.Name)
		}
	}
	sort.Strings(required)

	schema := map[string]interface{}{
		"$schema":              "http://json-schema.org/draft-07/schema#",
		"title":                meta.Name,
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func fieldSchema(f FieldMetadata) map[string]interface{} {
	var s map[string]interface{}
	switch f.Type {
	case "boolean":
		s = map[string]interface{}{"type": "boolean"}
	case "double", "currency", "percent":
		s = map[string]interface{}{"type": "number"}
	case "int":
		s = map[string]interface{}{"type": "integer"}
	case "picklist":
		values := make([]interface{}, 0, len(f.PicklistValues))
		for _, pv := range f.PicklistValues {
			if pv.Active {
				values = append(values, pv.Value)
			}
		}
		s = map[string]interface{}{"type": "string"}
		if len(values) > 0 {
			s["enum"] = values
		}
	default:
		s = map[string]interface{}{"type": "string"}
		if f.Length > 0 {
			s["maxLength"] = f.Length
		}
	}

	if f.Nillable {
		s["type"] = []interface{}{s["type"], "null"}
		if enum, ok := s["enum"].([]interface{}); ok {
			s["enum"] = append(enum, nil)
		}
	}
	return s
}

// ValidateRecord checks record against the schema derived from meta and
// returns one message per violation.
func ValidateRecord(meta *ObjectMetadata, record map[string]interface{}) ([]string, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(RecordSchema(meta)),
		gojsonschema.NewGoLoader(record),
	)
	if err != nil {
		return nil, fmt.Errorf("schema validation: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, desc.String())
	}
	sort.Strings(violations)
	return violations, nil
}

// CheckFields reports every field that meta does not declare or that
// cannot be set on create.
func CheckFields(meta *ObjectMetadata, fields []string) []string {
	var problems []string
	for _, name := range fields {
		f, ok := meta.Field(name)
		switch {
		case !ok:
			problems = append(problems, fmt.Sprintf("%s: not found on %s", name, meta.Name))
		case !f.Createable:
			problems = append(problems, fmt.Sprintf("%s: not createable", name))
		}
	}
	return problems
}
